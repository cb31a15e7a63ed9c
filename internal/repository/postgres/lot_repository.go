package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const lotColumns = `id, tenant_id, lot_number, product_id, variant_id, supplier_id, status,
	initial_weight_lb, current_weight_lb, cost_per_lb, received_date, aging_start_date,
	best_by_date, notes, created_at, updated_at`

type lotRepository struct {
	t *tx
}

func (r *lotRepository) Insert(ctx context.Context, lot *domain.InventoryLot) error {
	lot.TenantID = r.t.tenantID
	query := `
		INSERT INTO inventory_lots (` + lotColumns + `)
		VALUES (:id, :tenant_id, :lot_number, :product_id, :variant_id, :supplier_id, :status,
			:initial_weight_lb, :current_weight_lb, :cost_per_lb, :received_date, :aging_start_date,
			:best_by_date, :notes, :created_at, :updated_at)
	`
	if _, err := r.t.tx.NamedExecContext(ctx, query, lot); err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError("lot number %s already exists", lot.LotNumber)
		}
		return fmt.Errorf("failed to insert lot: %w", err)
	}
	return nil
}

func (r *lotRepository) Get(ctx context.Context, id uuid.UUID) (*domain.InventoryLot, error) {
	query := `SELECT ` + lotColumns + ` FROM inventory_lots WHERE id = $1`
	return getScoped(ctx, r.t, "lot", id, query, lotTenant)
}

func (r *lotRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.InventoryLot, error) {
	query := `SELECT ` + lotColumns + ` FROM inventory_lots WHERE id = $1 FOR UPDATE`
	return getScoped(ctx, r.t, "lot", id, query, lotTenant)
}

func (r *lotRepository) Update(ctx context.Context, lot *domain.InventoryLot) error {
	query := `
		UPDATE inventory_lots SET
			lot_number = $3,
			status = $4,
			current_weight_lb = $5,
			cost_per_lb = $6,
			aging_start_date = $7,
			best_by_date = $8,
			notes = $9,
			updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2
	`
	res, err := r.t.tx.ExecContext(ctx, query,
		lot.ID,
		r.t.tenantID,
		lot.LotNumber,
		lot.Status,
		lot.CurrentWeight,
		lot.CostPerLb,
		lot.AgingStartDate,
		lot.BestByDate,
		lot.Notes,
	)
	if isUniqueViolation(err) {
		return domain.NewConflictError("lot number %s already exists", lot.LotNumber)
	}
	return affectedOne("lot", lot.ID, res, err)
}

func (r *lotRepository) List(ctx context.Context, statuses []domain.LotStatus) ([]domain.InventoryLot, error) {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, string(s))
	}

	query := `
		SELECT ` + lotColumns + `
		FROM inventory_lots
		WHERE tenant_id = $1
		  AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
		ORDER BY received_date, id
	`
	var lots []domain.InventoryLot
	if err := r.t.tx.SelectContext(ctx, &lots, query, r.t.tenantID, pq.Array(names)); err != nil {
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}
	return lots, nil
}

func lotTenant(l *domain.InventoryLot) uuid.UUID { return l.TenantID }

type cuttingRepository struct {
	t *tx
}

const sessionColumns = `id, tenant_id, source_lot_id, performed_by, session_date, input_weight_lb,
	total_output_weight_lb, waste_weight_lb, yield_percentage, notes, created_at`

func (r *cuttingRepository) InsertSession(ctx context.Context, s *domain.CuttingSession) error {
	s.TenantID = r.t.tenantID
	query := `
		INSERT INTO cutting_sessions (` + sessionColumns + `)
		VALUES (:id, :tenant_id, :source_lot_id, :performed_by, :session_date, :input_weight_lb,
			:total_output_weight_lb, :waste_weight_lb, :yield_percentage, :notes, :created_at)
	`
	if _, err := r.t.tx.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("failed to insert cutting session: %w", err)
	}
	return nil
}

func (r *cuttingRepository) InsertItems(ctx context.Context, items []domain.CuttingSessionItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].TenantID = r.t.tenantID
	}
	query := `
		INSERT INTO cutting_session_items (id, tenant_id, session_id, variant_id, quantity, weight_lb, created_at)
		VALUES (:id, :tenant_id, :session_id, :variant_id, :quantity, :weight_lb, :created_at)
	`
	if _, err := r.t.tx.NamedExecContext(ctx, query, items); err != nil {
		return fmt.Errorf("failed to insert cutting session items: %w", err)
	}
	return nil
}

func (r *cuttingRepository) GetSession(ctx context.Context, id uuid.UUID) (*domain.CuttingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM cutting_sessions WHERE id = $1`
	return getScoped(ctx, r.t, "cutting session", id, query, func(s *domain.CuttingSession) uuid.UUID { return s.TenantID })
}

func (r *cuttingRepository) ListItems(ctx context.Context, sessionID uuid.UUID) ([]domain.CuttingSessionItem, error) {
	query := `
		SELECT id, tenant_id, session_id, variant_id, quantity, weight_lb, created_at
		FROM cutting_session_items
		WHERE tenant_id = $1 AND session_id = $2
		ORDER BY created_at, id
	`
	var items []domain.CuttingSessionItem
	if err := r.t.tx.SelectContext(ctx, &items, query, r.t.tenantID, sessionID); err != nil {
		return nil, fmt.Errorf("failed to list cutting session items: %w", err)
	}
	return items, nil
}
