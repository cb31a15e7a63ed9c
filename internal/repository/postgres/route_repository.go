package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/google/uuid"
)

const routeColumns = `id, tenant_id, name, route_date, driver_id, is_complete, completed_at, created_at`

const stopColumns = `id, tenant_id, route_id, order_id, customer_id, stop_order, delivered, delivered_at, notes`

type routeRepository struct {
	t *tx
}

func (r *routeRepository) Insert(ctx context.Context, route *domain.DeliveryRoute) error {
	route.TenantID = r.t.tenantID
	query := `
		INSERT INTO delivery_routes (` + routeColumns + `)
		VALUES (:id, :tenant_id, :name, :route_date, :driver_id, :is_complete, :completed_at, :created_at)
	`
	if _, err := r.t.tx.NamedExecContext(ctx, query, route); err != nil {
		return fmt.Errorf("failed to insert route: %w", err)
	}
	return nil
}

func (r *routeRepository) Get(ctx context.Context, id uuid.UUID) (*domain.DeliveryRoute, error) {
	query := `SELECT ` + routeColumns + ` FROM delivery_routes WHERE id = $1`
	return getScoped(ctx, r.t, "route", id, query, routeTenant)
}

func (r *routeRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.DeliveryRoute, error) {
	query := `SELECT ` + routeColumns + ` FROM delivery_routes WHERE id = $1 FOR UPDATE`
	return getScoped(ctx, r.t, "route", id, query, routeTenant)
}

func (r *routeRepository) Update(ctx context.Context, route *domain.DeliveryRoute) error {
	query := `
		UPDATE delivery_routes SET
			name = $3,
			route_date = $4,
			driver_id = $5,
			is_complete = $6,
			completed_at = $7
		WHERE id = $1 AND tenant_id = $2
	`
	res, err := r.t.tx.ExecContext(ctx, query,
		route.ID,
		r.t.tenantID,
		route.Name,
		route.RouteDate,
		route.DriverID,
		route.IsComplete,
		route.CompletedAt,
	)
	return affectedOne("route", route.ID, res, err)
}

func (r *routeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.t.tx.ExecContext(ctx, `DELETE FROM delivery_routes WHERE id = $1 AND tenant_id = $2`, id, r.t.tenantID)
	return affectedOne("route", id, res, err)
}

func (r *routeRepository) InsertStop(ctx context.Context, s *domain.DeliveryStop) error {
	s.TenantID = r.t.tenantID
	query := `
		INSERT INTO delivery_stops (` + stopColumns + `)
		VALUES (:id, :tenant_id, :route_id, :order_id, :customer_id, :stop_order, :delivered, :delivered_at, :notes)
	`
	if _, err := r.t.tx.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("failed to insert stop: %w", err)
	}
	return nil
}

func (r *routeRepository) GetStopForUpdate(ctx context.Context, id uuid.UUID) (*domain.DeliveryStop, error) {
	query := `SELECT ` + stopColumns + ` FROM delivery_stops WHERE id = $1 FOR UPDATE`
	return getScoped(ctx, r.t, "stop", id, query, func(s *domain.DeliveryStop) uuid.UUID { return s.TenantID })
}

func (r *routeRepository) UpdateStop(ctx context.Context, s *domain.DeliveryStop) error {
	query := `
		UPDATE delivery_stops SET
			stop_order = $3,
			delivered = $4,
			delivered_at = $5,
			notes = $6
		WHERE id = $1 AND tenant_id = $2
	`
	res, err := r.t.tx.ExecContext(ctx, query,
		s.ID,
		r.t.tenantID,
		s.StopOrder,
		s.Delivered,
		s.DeliveredAt,
		s.Notes,
	)
	return affectedOne("stop", s.ID, res, err)
}

func (r *routeRepository) DeleteStop(ctx context.Context, id uuid.UUID) error {
	res, err := r.t.tx.ExecContext(ctx, `DELETE FROM delivery_stops WHERE id = $1 AND tenant_id = $2`, id, r.t.tenantID)
	return affectedOne("stop", id, res, err)
}

func (r *routeRepository) DeleteStops(ctx context.Context, routeID uuid.UUID) error {
	query := `DELETE FROM delivery_stops WHERE route_id = $1 AND tenant_id = $2`
	if _, err := r.t.tx.ExecContext(ctx, query, routeID, r.t.tenantID); err != nil {
		return fmt.Errorf("failed to delete stops: %w", err)
	}
	return nil
}

func (r *routeRepository) ListStops(ctx context.Context, routeID uuid.UUID) ([]domain.DeliveryStop, error) {
	query := `
		SELECT ` + stopColumns + `
		FROM delivery_stops
		WHERE tenant_id = $1 AND route_id = $2
		ORDER BY stop_order, id
	`
	var stops []domain.DeliveryStop
	if err := r.t.tx.SelectContext(ctx, &stops, query, r.t.tenantID, routeID); err != nil {
		return nil, fmt.Errorf("failed to list stops: %w", err)
	}
	return stops, nil
}

func (r *routeRepository) MaxStopOrder(ctx context.Context, routeID uuid.UUID) (int, error) {
	var max int
	query := `SELECT COALESCE(MAX(stop_order), 0) FROM delivery_stops WHERE tenant_id = $1 AND route_id = $2`
	if err := r.t.tx.GetContext(ctx, &max, query, r.t.tenantID, routeID); err != nil {
		return 0, fmt.Errorf("failed to read max stop order: %w", err)
	}
	return max, nil
}

func routeTenant(r *domain.DeliveryRoute) uuid.UUID { return r.TenantID }
