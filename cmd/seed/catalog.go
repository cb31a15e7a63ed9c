package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var catalogColumns = []string{"product", "variant", "sku", "weight_type", "unit", "default_price_per_unit", "estimated_weight_lb"}

type catalogRow struct {
	Product         string
	Variant         string
	SKU             string
	WeightType      domain.WeightType
	Unit            domain.Unit
	DefaultPrice    decimal.Decimal
	EstimatedWeight *decimal.Decimal
}

// readCatalog parses the seed CSV. Columns are located by header name so
// their order does not matter; estimated_weight_lb may be blank or absent.
func readCatalog(r io.Reader) ([]catalogRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range catalogColumns[:6] {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("column %q not found in header: %v", col, header)
		}
	}

	field := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []catalogRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		row := catalogRow{
			Product:    field(record, "product"),
			Variant:    field(record, "variant"),
			SKU:        field(record, "sku"),
			WeightType: domain.WeightType(field(record, "weight_type")),
			Unit:       domain.Unit(field(record, "unit")),
		}
		if row.Product == "" || row.Variant == "" {
			return nil, fmt.Errorf("line %d: product and variant are required", line)
		}
		switch row.WeightType {
		case domain.CatchWeight, domain.FixedWeight, domain.EachWeight:
		default:
			return nil, fmt.Errorf("line %d: unknown weight_type %q", line, row.WeightType)
		}
		if !row.Unit.Valid() {
			return nil, fmt.Errorf("line %d: unknown unit %q", line, row.Unit)
		}
		row.DefaultPrice, err = decimal.NewFromString(field(record, "default_price_per_unit"))
		if err != nil || !row.DefaultPrice.IsPositive() {
			return nil, fmt.Errorf("line %d: default_price_per_unit must be a positive number", line)
		}
		if raw := field(record, "estimated_weight_lb"); raw != "" {
			w, err := decimal.NewFromString(raw)
			if err != nil || !w.IsPositive() {
				return nil, fmt.Errorf("line %d: estimated_weight_lb must be a positive number", line)
			}
			row.EstimatedWeight = &w
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// seedCatalog creates products by name and upserts variants by sku. Variants
// without a sku are always inserted.
func seedCatalog(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, rows []catalogRow) (int, int, error) {
	productIDs := make(map[string]uuid.UUID)
	products := 0

	for _, row := range rows {
		productID, ok := productIDs[row.Product]
		if !ok {
			err := tx.QueryRowContext(ctx,
				`SELECT id FROM products WHERE tenant_id = $1 AND name = $2 LIMIT 1`,
				tenantID, row.Product,
			).Scan(&productID)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				productID = uuid.New()
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO products (id, tenant_id, name) VALUES ($1, $2, $3)`,
					productID, tenantID, row.Product,
				); err != nil {
					return 0, 0, fmt.Errorf("failed to insert product %s: %w", row.Product, err)
				}
				products++
			case err != nil:
				return 0, 0, fmt.Errorf("failed to look up product %s: %w", row.Product, err)
			}
			productIDs[row.Product] = productID
		}

		var sku sql.NullString
		if row.SKU != "" {
			sku = sql.NullString{String: row.SKU, Valid: true}
		}
		var estimated sql.NullString
		if row.EstimatedWeight != nil {
			estimated = sql.NullString{String: row.EstimatedWeight.String(), Valid: true}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO product_variants (
				id, tenant_id, product_id, name, sku, weight_type, unit,
				default_price_per_unit, estimated_weight_lb
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (tenant_id, sku) DO UPDATE SET
				product_id = EXCLUDED.product_id,
				name = EXCLUDED.name,
				weight_type = EXCLUDED.weight_type,
				unit = EXCLUDED.unit,
				default_price_per_unit = EXCLUDED.default_price_per_unit,
				estimated_weight_lb = EXCLUDED.estimated_weight_lb`,
			uuid.New(), tenantID, productID, row.Variant, sku, string(row.WeightType), string(row.Unit),
			row.DefaultPrice.String(), estimated,
		); err != nil {
			return 0, 0, fmt.Errorf("failed to upsert variant %s: %w", row.Variant, err)
		}
	}
	return products, len(rows), nil
}
