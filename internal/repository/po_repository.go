package repository

import (
	"context"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/google/uuid"
)

type PORepository interface {
	Insert(ctx context.Context, po *domain.PurchaseOrder) error
	InsertItems(ctx context.Context, items []domain.PurchaseOrderItem) error
	Get(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error)
	Update(ctx context.Context, po *domain.PurchaseOrder) error
	ListItems(ctx context.Context, poID uuid.UUID) ([]domain.PurchaseOrderItem, error)
	UpdateItem(ctx context.Context, item *domain.PurchaseOrderItem) error
}
