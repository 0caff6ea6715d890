// internal/adapters/out/db/category_repository_sql.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	dbcommon "storefront/internal/adapters/out/db/common"
	categorydom "storefront/internal/domain/category"
)

const categoryColumns = `id, name, slug, description, image_url`

// CategoryRepositorySQL implements category.Repository on Postgres or SQLite.
type CategoryRepositorySQL struct {
	DB      *sql.DB
	Dialect dbcommon.Dialect

	tracer trace.Tracer
}

func NewCategoryRepositorySQL(db *sql.DB, d dbcommon.Dialect) *CategoryRepositorySQL {
	return &CategoryRepositorySQL{
		DB:      db,
		Dialect: d,
		tracer:  otel.Tracer("storefront/db"),
	}
}

func (r *CategoryRepositorySQL) List(ctx context.Context, opts categorydom.ListOptions) ([]categorydom.Category, error) {
	if r == nil || r.DB == nil {
		return nil, errors.New("category_repository_sql: db is nil")
	}

	ctx, span := r.tracer.Start(ctx, "CategoryRepositorySQL.List")
	defer span.End()

	q := "SELECT " + categoryColumns + " FROM categories"
	args := []any{}
	if opts.OrderByName {
		q += " ORDER BY name ASC"
	}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		q += " LIMIT " + r.Dialect.Placeholder(len(args))
	}

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		span.RecordError(err)
		return nil, wrapQueryErr("list categories", err)
	}
	defer rows.Close()

	out := []categorydom.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CategoryRepositorySQL) GetBySlug(ctx context.Context, slug string) (categorydom.Category, error) {
	if r == nil || r.DB == nil {
		return categorydom.Category{}, errors.New("category_repository_sql: db is nil")
	}
	s, err := categorydom.NormalizeSlug(slug)
	if err != nil {
		// an unusable slug cannot match any row
		return categorydom.Category{}, categorydom.ErrNotFound
	}

	ctx, span := r.tracer.Start(ctx, "CategoryRepositorySQL.GetBySlug")
	defer span.End()

	q := fmt.Sprintf("SELECT %s FROM categories WHERE slug = %s", categoryColumns, r.Dialect.Placeholder(1))
	c, err := scanCategory(r.DB.QueryRowContext(ctx, q, s))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return categorydom.Category{}, categorydom.ErrNotFound
		}
		span.RecordError(err)
		return categorydom.Category{}, wrapQueryErr("get category", err)
	}
	return c, nil
}

func scanCategory(s dbcommon.RowScanner) (categorydom.Category, error) {
	var (
		c           categorydom.Category
		description sql.NullString
		imageURL    sql.NullString
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Slug, &description, &imageURL); err != nil {
		return categorydom.Category{}, err
	}
	c.Description = dbcommon.NullStringPtr(description)
	c.ImageURL = dbcommon.NullStringPtr(imageURL)
	return c, nil
}
