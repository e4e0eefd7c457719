package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const listProductsSQL = `SELECT product_code, name, price::text FROM products ORDER BY product_code`

// rowQuerier is the subset of pgxpool.Pool used by PostgresSource.
type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads products from the products table.
type PostgresSource struct {
	DB rowQuerier
}

// Load queries every product. Prices are read as text so no precision is lost.
func (s PostgresSource) Load(ctx context.Context) ([]Product, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("catalog: postgres source not configured")
	}
	rows, err := s.DB.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("catalog: query products: %w", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Product, error) {
		var (
			p     Product
			price *string
		)
		if err := row.Scan(&p.ProductCode, &p.Name, &price); err != nil {
			return Product{}, err
		}
		if price != nil {
			d, err := decimal.NewFromString(*price)
			if err != nil {
				return Product{}, fmt.Errorf("parse price for %s: %w", p.ProductCode, err)
			}
			p.Price = &d
		}
		return p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: scan products: %w", err)
	}
	return products, nil
}
