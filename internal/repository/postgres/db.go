package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/config"
	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/andresuchdata/butcherline/backend-go/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

const uniqueViolation = "23505"

type DB struct {
	*sqlx.DB
	sem *semaphore.Weighted
}

var (
	dbInstance *DB
	once       sync.Once
)

// NewDB creates a new database connection pool
func NewDB(cfg *config.DatabaseConfig) (*DB, error) {
	var err error
	once.Do(func() {
		var db *sqlx.DB
		db, err = sqlx.Connect("postgres", cfg.DSN())
		if err != nil {
			return
		}

		// Configure connection pool
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		maxTx := int64(cfg.MaxConcurrentTx)
		if maxTx <= 0 {
			maxTx = 10
		}
		dbInstance = &DB{
			DB:  db,
			sem: semaphore.NewWeighted(maxTx),
		}
	})

	return dbInstance, err
}

// WithTx executes a function within a transaction
func (db *DB) WithTx(ctx context.Context, tenantID uuid.UUID, fn func(tx repository.Tx) error) error {
	// Acquire semaphore
	if err := db.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer db.sem.Release(1)

	sqlTx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := fn(&tx{tx: sqlTx, tenantID: tenantID}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("could not rollback transaction")
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

type tx struct {
	tx       *sqlx.Tx
	tenantID uuid.UUID
}

func (t *tx) Catalog() repository.CatalogRepository   { return &catalogRepository{t} }
func (t *tx) Lots() repository.LotRepository           { return &lotRepository{t} }
func (t *tx) Cutting() repository.CuttingRepository    { return &cuttingRepository{t} }
func (t *tx) Orders() repository.OrderRepository       { return &orderRepository{t} }
func (t *tx) PickLists() repository.PickListRepository { return &pickListRepository{t} }
func (t *tx) PurchaseOrders() repository.PORepository  { return &poRepository{t} }
func (t *tx) Routes() repository.RouteRepository       { return &routeRepository{t} }

var _ repository.Store = (*DB)(nil)

// getScoped loads one row by id and rejects rows owned by another tenant.
func getScoped[T any](ctx context.Context, t *tx, entity string, id uuid.UUID, query string, owner func(*T) uuid.UUID) (*T, error) {
	var row T
	if err := t.tx.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError(entity, id)
		}
		return nil, fmt.Errorf("failed to get %s: %w", entity, err)
	}
	if err := domain.CheckTenant(entity, id, owner(&row), t.tenantID); err != nil {
		return nil, err
	}
	return &row, nil
}

// affectedOne maps a zero-row update to NotFoundError.
func affectedOne(entity string, id uuid.UUID, res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", entity, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", entity, err)
	}
	if n == 0 {
		return domain.NewNotFoundError(entity, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
