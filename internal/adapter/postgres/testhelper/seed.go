package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UniqueSuffix returns a short unique string for generating non-conflicting test data.
func UniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedCategory inserts an active category and returns its id.
func SeedCategory(t *testing.T, pool *pgxpool.Pool, name string) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO categories (name, active) VALUES ($1, TRUE) RETURNING id`,
		name+" "+UniqueSuffix(),
	).Scan(&id)
	if err != nil {
		t.Fatalf("testhelper: SeedCategory: %v", err)
	}
	return id
}

// SeedTag inserts a tag with a unique label and returns its id.
func SeedTag(t *testing.T, pool *pgxpool.Pool, label string) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO tags (label) VALUES ($1) RETURNING id`,
		label+"-"+UniqueSuffix(),
	).Scan(&id)
	if err != nil {
		t.Fatalf("testhelper: SeedTag: %v", err)
	}
	return id
}

// SeedProduct inserts an active product in the given category (nil for
// none) and returns its id.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, categoryID *int64, name string, price float64) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO products (name, description, price, active, category_id, keywords)
		 VALUES ($1, '', $2, TRUE, $3, '{}') RETURNING id`,
		name, price, categoryID,
	).Scan(&id)
	if err != nil {
		t.Fatalf("testhelper: SeedProduct: %v", err)
	}
	return id
}

// SeedVariant inserts a variant of product and returns its id.
func SeedVariant(t *testing.T, pool *pgxpool.Pool, productID uuid.UUID, stock int) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO variants (sku, stock, product_id) VALUES ($1, $2, $3) RETURNING id`,
		"SKU-"+UniqueSuffix(), stock, productID,
	).Scan(&id)
	if err != nil {
		t.Fatalf("testhelper: SeedVariant: %v", err)
	}
	return id
}
