package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/andresuchdata/butcherline/backend-go/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"
)

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unique violation", &pq.Error{Code: "23505"}, true},
		{"wrapped", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		{"foreign key", &pq.Error{Code: "23503"}, false},
		{"check constraint", &pq.Error{Code: "23514"}, false},
		{"plain error", errors.New("duplicate key"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestAffectedOne(t *testing.T) {
	id := uuid.New()
	boom := errors.New("connection reset")
	tests := []struct {
		name  string
		res   fakeResult
		err   error
		check func(error) bool
	}{
		{"one row", fakeResult{rows: 1}, nil, func(err error) bool { return err == nil }},
		{"no rows", fakeResult{rows: 0}, nil, domain.IsNotFound},
		{"exec failed", fakeResult{}, boom, func(err error) bool { return errors.Is(err, boom) && !domain.IsNotFound(err) }},
		{"rows affected failed", fakeResult{err: boom}, nil, func(err error) bool { return errors.Is(err, boom) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := affectedOne("lot", id, tt.res, tt.err); !tt.check(err) {
				t.Errorf("unexpected result %v", err)
			}
		})
	}
}

// testDB connects to BUTCHERLINE_TEST_DATABASE_URL and applies the schema.
func testDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("BUTCHERLINE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("BUTCHERLINE_TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := Migrate(context.Background(), db.DB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &DB{DB: db, sem: semaphore.NewWeighted(4)}
}

func seedTenant(t *testing.T, db *DB) (tenantID, productID uuid.UUID) {
	t.Helper()
	tenantID, productID = uuid.New(), uuid.New()
	if _, err := db.Exec(`INSERT INTO tenants (id, name) VALUES ($1, $2)`, tenantID, "tenant-"+tenantID.String()[:8]); err != nil {
		t.Fatalf("insert tenant: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO products (id, tenant_id, name) VALUES ($1, $2, 'Ribeye')`, productID, tenantID); err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return tenantID, productID
}

func TestLotRepositoryScoping(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	owner, product := seedTenant(t, db)
	other, _ := seedTenant(t, db)

	now := time.Now().UTC().Truncate(time.Second)
	lot := &domain.InventoryLot{
		ID:            uuid.New(),
		LotNumber:     "LOT-" + uuid.NewString()[:8],
		ProductID:     product,
		Status:        domain.LotAvailable,
		InitialWeight: decimal.NewFromInt(50),
		CurrentWeight: decimal.NewFromInt(50),
		ReceivedDate:  now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.WithTx(ctx, owner, func(tx repository.Tx) error {
		return tx.Lots().Insert(ctx, lot)
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	dup := *lot
	dup.ID = uuid.New()
	err := db.WithTx(ctx, owner, func(tx repository.Tx) error {
		return tx.Lots().Insert(ctx, &dup)
	})
	if !domain.IsConflict(err) {
		t.Errorf("duplicate lot number: expected ConflictError, got %v", err)
	}

	err = db.WithTx(ctx, other, func(tx repository.Tx) error {
		_, err := tx.Lots().Get(ctx, lot.ID)
		return err
	})
	if !domain.IsTenantMismatch(err) {
		t.Errorf("cross-tenant get: expected TenantMismatchError, got %v", err)
	}

	err = db.WithTx(ctx, other, func(tx repository.Tx) error {
		return tx.Lots().Update(ctx, lot)
	})
	if !domain.IsNotFound(err) {
		t.Errorf("cross-tenant update: expected NotFoundError, got %v", err)
	}

	err = db.WithTx(ctx, owner, func(tx repository.Tx) error {
		_, err := tx.Lots().Get(ctx, uuid.New())
		return err
	})
	if !domain.IsNotFound(err) {
		t.Errorf("missing lot: expected NotFoundError, got %v", err)
	}
}
