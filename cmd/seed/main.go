package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/andresuchdata/butcherline/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/butcherline/backend-go/pkg/logger"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

type ctxKey struct{}

var dbKey ctxKey

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newTenantFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "tenant",
		Usage:    "Tenant id the seeded rows belong to",
		Required: true,
		EnvVars:  []string{"SEED_TENANT_ID"},
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(c.Context); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) *sql.DB {
	return c.Context.Value(dbKey).(*sql.DB)
}

func tenantFrom(c *cli.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.String("tenant"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid tenant id %q: %w", c.String("tenant"), err)
	}
	return id, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Apply the schema and load starter data",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Apply pending schema migrations",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runMigrate,
			},
			{
				Name:  "tenant",
				Usage: "Register a tenant",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newTenantFlag(),
					&cli.StringFlag{Name: "name", Usage: "Tenant display name", Required: true},
				},
				Before: initDB,
				After:  closeDB,
				Action: runTenant,
			},
			{
				Name:  "catalog",
				Usage: "Load products and variants from a CSV file",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newTenantFlag(),
					&cli.StringFlag{
						Name:    "file",
						Usage:   "CSV with product,variant,sku,weight_type,unit,default_price_per_unit,estimated_weight_lb",
						Value:   "./data/seeds/catalog.csv",
						EnvVars: []string{"SEED_CATALOG_FILE"},
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runCatalog,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("seed failed")
	}
}

func runMigrate(c *cli.Context) error {
	applied, err := postgres.Migrate(c.Context, dbFrom(c))
	if err != nil {
		return err
	}
	logger.Log.Info().Int("applied", applied).Msg("Migrations complete")
	return nil
}

func runTenant(c *cli.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	if _, err := dbFrom(c).ExecContext(c.Context, `
		INSERT INTO tenants (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		tenantID, c.String("name"),
	); err != nil {
		return fmt.Errorf("failed to upsert tenant: %w", err)
	}
	logger.Log.Info().Str("tenant_id", tenantID.String()).Msg("Tenant registered")
	return nil
}

func runCatalog(c *cli.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}

	path := c.String("file")
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	rows, err := readCatalog(file)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	tx, err := dbFrom(c).BeginTx(c.Context, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	products, variants, err := seedCatalog(c.Context, tx, tenantID, rows)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Log.Info().
		Str("tenant_id", tenantID.String()).
		Int("products", products).
		Int("variants", variants).
		Msg("Catalog seeded")
	return nil
}
