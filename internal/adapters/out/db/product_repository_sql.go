// internal/adapters/out/db/product_repository_sql.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dbcommon "storefront/internal/adapters/out/db/common"
	productdom "storefront/internal/domain/product"
)

const productColumns = `id, name, price, image_url, category_id, is_featured, created_at`

// ProductRepositorySQL implements product.Repository on Postgres or SQLite.
type ProductRepositorySQL struct {
	DB      *sql.DB
	Dialect dbcommon.Dialect

	tracer trace.Tracer
}

func NewProductRepositorySQL(db *sql.DB, d dbcommon.Dialect) *ProductRepositorySQL {
	return &ProductRepositorySQL{
		DB:      db,
		Dialect: d,
		tracer:  otel.Tracer("storefront/db"),
	}
}

func (r *ProductRepositorySQL) List(ctx context.Context, filter productdom.Filter, opts productdom.ListOptions) ([]productdom.Product, error) {
	if r == nil || r.DB == nil {
		return nil, errors.New("product_repository_sql: db is nil")
	}

	ctx, span := r.tracer.Start(ctx, "ProductRepositorySQL.List")
	defer span.End()

	where, args := r.buildWhere(filter)
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	orderBy := ""
	if opts.Order == productdom.OrderFeaturedThenNewest {
		orderBy = "ORDER BY is_featured DESC, created_at DESC"
	}

	limitSQL := ""
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		limitSQL = "LIMIT " + r.Dialect.Placeholder(len(args))
	}

	q := fmt.Sprintf("SELECT %s FROM products %s %s %s", productColumns, whereSQL, orderBy, limitSQL)
	span.SetAttributes(
		attribute.String("db.system", r.Dialect.Name),
		attribute.Int("catalog.limit", opts.Limit),
	)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, wrapQueryErr("list products", err)
	}
	defer rows.Close()

	items := []productdom.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("catalog.count", len(items)))
	return items, nil
}

func (r *ProductRepositorySQL) GetByID(ctx context.Context, id string) (productdom.Product, error) {
	if r == nil || r.DB == nil {
		return productdom.Product{}, errors.New("product_repository_sql: db is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.Product{}, productdom.ErrInvalidID
	}

	ctx, span := r.tracer.Start(ctx, "ProductRepositorySQL.GetByID")
	defer span.End()

	q := fmt.Sprintf("SELECT %s FROM products WHERE id = %s", productColumns, r.Dialect.Placeholder(1))
	row := r.DB.QueryRowContext(ctx, q, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return productdom.Product{}, productdom.ErrNotFound
		}
		span.RecordError(err)
		return productdom.Product{}, wrapQueryErr("get product", err)
	}
	return p, nil
}

func (r *ProductRepositorySQL) CountByCategory(ctx context.Context) (map[string]int, error) {
	if r == nil || r.DB == nil {
		return nil, errors.New("product_repository_sql: db is nil")
	}

	ctx, span := r.tracer.Start(ctx, "ProductRepositorySQL.CountByCategory")
	defer span.End()

	const q = `
SELECT category_id, COUNT(*)
FROM products
WHERE category_id IS NOT NULL
GROUP BY category_id`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, wrapQueryErr("count products", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func (r *ProductRepositorySQL) buildWhere(f productdom.Filter) ([]string, []any) {
	where := []string{}
	args := []any{}

	if q := strings.TrimSpace(f.NameContains); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("name %s %s", r.Dialect.ILike, r.Dialect.Placeholder(len(args))))
	}
	if c := strings.TrimSpace(f.CategoryID); c != "" {
		args = append(args, c)
		where = append(where, "category_id = "+r.Dialect.Placeholder(len(args)))
	}
	if f.FeaturedOnly {
		args = append(args, true)
		where = append(where, "is_featured = "+r.Dialect.Placeholder(len(args)))
	}
	return where, args
}

func scanProduct(s dbcommon.RowScanner) (productdom.Product, error) {
	var (
		p          productdom.Product
		price      decimal.Decimal
		imageURL   sql.NullString
		categoryID sql.NullString
		createdAt  any
	)
	if err := s.Scan(&p.ID, &p.Name, &price, &imageURL, &categoryID, &p.IsFeatured, &createdAt); err != nil {
		return productdom.Product{}, err
	}
	t, err := dbcommon.AsTime(createdAt)
	if err != nil {
		return productdom.Product{}, err
	}
	p.Price = price
	p.ImageURL = dbcommon.NullStringPtr(imageURL)
	p.CategoryID = dbcommon.NullStringPtr(categoryID)
	p.CreatedAt = t
	return p, nil
}

func wrapQueryErr(op string, err error) error {
	if dbcommon.IsUndefinedTable(err) {
		return fmt.Errorf("db: %s: catalog schema missing: %w", op, err)
	}
	return fmt.Errorf("db: %s: %w", op, err)
}
