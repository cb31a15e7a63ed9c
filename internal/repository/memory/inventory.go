package memory

import (
	"context"
	"slices"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/google/uuid"
)

type lotRepo struct{ t *tx }

func (r lotRepo) Insert(ctx context.Context, lot *domain.InventoryLot) error {
	if err := r.t.fault("lots.Insert"); err != nil {
		return err
	}
	for _, existing := range r.t.state.lots {
		if existing.TenantID == r.t.tenantID && existing.LotNumber == lot.LotNumber {
			return domain.NewConflictError("lot number %s already exists", lot.LotNumber)
		}
	}
	lot.TenantID = r.t.tenantID
	r.t.state.lots[lot.ID] = *lot
	return nil
}

func (r lotRepo) Get(ctx context.Context, id uuid.UUID) (*domain.InventoryLot, error) {
	lot, ok := r.t.state.lots[id]
	if !ok {
		return nil, domain.NewNotFoundError("lot", id)
	}
	if err := r.t.scope("lot", id, lot.TenantID); err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r lotRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.InventoryLot, error) {
	return r.Get(ctx, id)
}

func (r lotRepo) Update(ctx context.Context, lot *domain.InventoryLot) error {
	if err := r.t.fault("lots.Update"); err != nil {
		return err
	}
	if _, err := r.Get(ctx, lot.ID); err != nil {
		return err
	}
	r.t.state.lots[lot.ID] = *lot
	return nil
}

func (r lotRepo) List(ctx context.Context, statuses []domain.LotStatus) ([]domain.InventoryLot, error) {
	var out []domain.InventoryLot
	for _, lot := range r.t.state.lots {
		if lot.TenantID != r.t.tenantID {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, lot.Status) {
			continue
		}
		out = append(out, lot)
	}
	sortByCreated(out, func(l domain.InventoryLot) time.Time { return l.ReceivedDate }, func(l domain.InventoryLot) uuid.UUID { return l.ID })
	return out, nil
}

type cuttingRepo struct{ t *tx }

func (r cuttingRepo) InsertSession(ctx context.Context, s *domain.CuttingSession) error {
	if err := r.t.fault("cutting.InsertSession"); err != nil {
		return err
	}
	s.TenantID = r.t.tenantID
	row := *s
	row.Items = nil
	r.t.state.sessions[s.ID] = row
	return nil
}

func (r cuttingRepo) InsertItems(ctx context.Context, items []domain.CuttingSessionItem) error {
	if err := r.t.fault("cutting.InsertItems"); err != nil {
		return err
	}
	for _, item := range items {
		item.TenantID = r.t.tenantID
		r.t.state.sessionItems[item.ID] = item
	}
	return nil
}

func (r cuttingRepo) GetSession(ctx context.Context, id uuid.UUID) (*domain.CuttingSession, error) {
	s, ok := r.t.state.sessions[id]
	if !ok {
		return nil, domain.NewNotFoundError("cutting session", id)
	}
	if err := r.t.scope("cutting session", id, s.TenantID); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r cuttingRepo) ListItems(ctx context.Context, sessionID uuid.UUID) ([]domain.CuttingSessionItem, error) {
	var out []domain.CuttingSessionItem
	for _, item := range r.t.state.sessionItems {
		if item.SessionID == sessionID && item.TenantID == r.t.tenantID {
			out = append(out, item)
		}
	}
	sortByCreated(out, func(i domain.CuttingSessionItem) time.Time { return i.CreatedAt }, func(i domain.CuttingSessionItem) uuid.UUID { return i.ID })
	return out, nil
}
