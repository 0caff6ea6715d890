// internal/adapters/out/db/common/sqlutil.go
package common

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// RowScanner is the Scan method shared by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// Dialect captures the SQL differences between the supported catalog backends.
type Dialect struct {
	Name string

	// ILike is the case-insensitive LIKE operator.
	ILike string

	numbered bool
}

var (
	Postgres = Dialect{Name: "postgres", ILike: "ILIKE", numbered: true}
	// SQLite LIKE is case-insensitive for ASCII.
	SQLite = Dialect{Name: "sqlite", ILike: "LIKE", numbered: false}
)

// DialectByName returns the dialect for a driver name.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pq":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("db: unknown dialect %q", name)
}

// Placeholder returns the bind marker for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d.numbered {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// IsUndefinedTable detects a PostgreSQL "relation does not exist" error.
func IsUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "42P01"
}

// NullStringPtr converts a nullable column into *string (empty string stays non-nil).
func NullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// AsTime converts a scanned timestamp column into time.Time.
// Drivers differ: pq yields time.Time, SQLite may yield text or unix seconds.
func AsTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case []byte:
		return parseTime(string(t))
	case string:
		return parseTime(t)
	}
	return time.Time{}, fmt.Errorf("db: unsupported time value %T", v)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("db: unparseable time %q", s)
}
