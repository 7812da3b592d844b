package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const productColumns = `id, name, price, category, img, available, created_at`

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p     Product
		price pgtype.Numeric
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.Category, &p.Img, &p.Available, &p.CreatedAt); err != nil {
		return Product{}, err
	}
	p.Price = NumericToDecimal(price)
	return p, nil
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// CreateProductParams are the fields for a new menu item.
type CreateProductParams struct {
	Name     string
	Price    decimal.Decimal
	Category string
	Img      string
}

// CreateProduct inserts a menu item, available by default.
func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO products (name, price, category, img)
		VALUES ($1, $2, $3, $4)
		RETURNING `+productColumns,
		arg.Name, DecimalToNumeric(arg.Price), arg.Category, arg.Img)
	return scanProduct(row)
}

// GetProduct fetches one menu item by id.
func (q *Queries) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// ListProducts returns the whole catalog, stable by name.
func (q *Queries) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// ListAvailableProducts returns the customer-facing menu: available
// items whose category is currently enabled in shop_config.
func (q *Queries) ListAvailableProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE available
		  AND category IN (
			SELECT jsonb_array_elements_text(categories)
			FROM shop_config WHERE id = 1
		  )
		ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// UpdateProductParams replaces a menu item's editable fields.
type UpdateProductParams struct {
	ID       uuid.UUID
	Name     string
	Price    decimal.Decimal
	Category string
	Img      string
}

// UpdateProduct updates name, price, category, and image.
func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE products SET name = $2, price = $3, category = $4, img = $5
		WHERE id = $1
		RETURNING `+productColumns,
		arg.ID, arg.Name, DecimalToNumeric(arg.Price), arg.Category, arg.Img)
	return scanProduct(row)
}

// SetProductAvailability toggles whether an item is orderable.
func (q *Queries) SetProductAvailability(ctx context.Context, id uuid.UUID, available bool) (Product, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE products SET available = $2
		WHERE id = $1
		RETURNING `+productColumns, id, available)
	return scanProduct(row)
}

// DeleteProduct removes a menu item, returning the rows removed.
func (q *Queries) DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
