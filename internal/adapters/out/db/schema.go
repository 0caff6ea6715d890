// internal/adapters/out/db/schema.go
package db

import (
	"context"
	"database/sql"
	"fmt"

	dbcommon "storefront/internal/adapters/out/db/common"
)

// catalog tables, mirrored from the hosted database.
var schemaStatements = map[string][]string{
	"postgres": {
		`CREATE TABLE IF NOT EXISTS categories (
  id          TEXT PRIMARY KEY,
  name        TEXT NOT NULL,
  slug        TEXT NOT NULL UNIQUE,
  description TEXT,
  image_url   TEXT,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE TABLE IF NOT EXISTS products (
  id          TEXT PRIMARY KEY,
  name        TEXT NOT NULL,
  price       NUMERIC(12,2) NOT NULL DEFAULT 0,
  image_url   TEXT,
  category_id TEXT REFERENCES categories(id) ON DELETE SET NULL,
  is_featured BOOLEAN NOT NULL DEFAULT FALSE,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE INDEX IF NOT EXISTS products_category_id_idx ON products (category_id)`,
	},
	"sqlite": {
		`CREATE TABLE IF NOT EXISTS categories (
  id          TEXT PRIMARY KEY,
  name        TEXT NOT NULL,
  slug        TEXT NOT NULL UNIQUE,
  description TEXT,
  image_url   TEXT,
  created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
		`CREATE TABLE IF NOT EXISTS products (
  id          TEXT PRIMARY KEY,
  name        TEXT NOT NULL,
  price       NUMERIC NOT NULL DEFAULT 0,
  image_url   TEXT,
  category_id TEXT REFERENCES categories(id) ON DELETE SET NULL,
  is_featured BOOLEAN NOT NULL DEFAULT 0,
  created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
		`CREATE INDEX IF NOT EXISTS products_category_id_idx ON products (category_id)`,
	},
}

// EnsureSchema creates the catalog tables when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB, d dbcommon.Dialect) error {
	stmts, ok := schemaStatements[d.Name]
	if !ok {
		return fmt.Errorf("db: no schema for dialect %q", d.Name)
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("db: ensure schema (%s): %w", d.Name, err)
		}
	}
	return nil
}
