package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/crudzilla/crudzilla/internal/adapter/postgres"
	"github.com/crudzilla/crudzilla/internal/adapter/postgres/entitystore"
	"github.com/crudzilla/crudzilla/internal/domain"
	"github.com/crudzilla/crudzilla/internal/repository"
)

func newMockProducts(t *testing.T) (pgxmock.PgxPoolIface, repository.Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		mock.Close()
	})

	m := entitystore.NewMapper(discardLogger, mock, postgres.NewTxManager(mock), nil)
	if _, err := NewCategoryRepo(m); err != nil {
		t.Fatalf("NewCategoryRepo: %v", err)
	}
	products, err := NewProductRepo(m)
	if err != nil {
		t.Fatalf("NewProductRepo: %v", err)
	}
	return mock, repository.Erase[*Product, uuid.UUID](products)
}

func TestProductRepo_CountByCategory(t *testing.T) {
	t.Parallel()
	mock, store := newMockProducts(t)
	catID, catName := int64(2), "Lighting"

	mock.ExpectQuery(`SELECT p.category_id, c.name AS category_name, COUNT\(\*\) AS products FROM products p ` +
		`LEFT JOIN categories c ON c.id = p.category_id GROUP BY p.category_id, c.name ORDER BY c.name NULLS LAST`).
		WillReturnRows(pgxmock.NewRows([]string{"category_id", "category_name", "products"}).
			AddRow(&catID, &catName, int64(4)).
			AddRow((*int64)(nil), (*string)(nil), int64(1)))

	got, err := store.Projection(context.Background(), "CountByCategory", nil)
	if err != nil {
		t.Fatalf("Projection: %v", err)
	}
	rows := got.([]CategoryCount)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if *rows[0].CategoryID != 2 || *rows[0].CategoryName != "Lighting" || rows[0].Products != 4 {
		t.Errorf("unexpected first row %+v", rows[0])
	}
	if rows[1].CategoryID != nil || rows[1].Products != 1 {
		t.Errorf("uncategorized row must have a nil category, got %+v", rows[1])
	}
}

func TestProductRepo_LowStock(t *testing.T) {
	t.Parallel()
	mock, store := newMockProducts(t)
	productID := uuid.New()

	mock.ExpectQuery(`SELECT p.id AS product_id, p.name AS product_name, v.sku, v.stock FROM variants v ` +
		`JOIN products p ON p.id = v.product_id WHERE v.stock <= \$1 ORDER BY v.stock, v.sku`).
		WithArgs(2).
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "product_name", "sku", "stock"}).
			AddRow(productID, "Desk lamp", "LAMP-B", 0))

	got, err := store.Projection(context.Background(), "LowStock", []byte(`{"threshold":2}`))
	if err != nil {
		t.Fatalf("Projection: %v", err)
	}
	rows := got.([]LowStockRow)
	if len(rows) != 1 || rows[0].ProductID != productID || rows[0].SKU != "LAMP-B" {
		t.Errorf("unexpected rows %+v", rows)
	}
}

func TestProductRepo_Projection_NotExposed(t *testing.T) {
	t.Parallel()
	_, store := newMockProducts(t)

	for _, name := range []string{"Missing", "Store", "Conn", "Get", "termPredicate"} {
		if _, err := store.Projection(context.Background(), name, nil); !errors.Is(err, domain.ErrProjectionNotFound) {
			t.Errorf("%s: expected ErrProjectionNotFound, got %v", name, err)
		}
	}
}

func TestDecodeThreshold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  string
		want    int
		wantErr error
	}{
		{"empty", "", defaultLowStockThreshold, nil},
		{"no threshold", `{}`, defaultLowStockThreshold, nil},
		{"explicit", `{"threshold":0}`, 0, nil},
		{"negative", `{"threshold":-1}`, 0, domain.ErrValidation},
		{"malformed", `{"threshold":`, 0, domain.ErrDecode},
		{"wrong type", `{"threshold":"x"}`, 0, domain.ErrDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := decodeThreshold([]byte(tt.params))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
