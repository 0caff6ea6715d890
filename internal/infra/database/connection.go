// internal/infra/database/connection.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	dbcommon "storefront/internal/adapters/out/db/common"
)

type DB struct {
	Client  *sql.DB
	Dialect dbcommon.Dialect
}

// Open connects to the catalog database and pings it.
//   - postgres: dsn is a lib/pq URL; a non-empty password replaces the one in dsn
//   - sqlite: dsn is a file path or ":memory:"
func Open(ctx context.Context, dialect dbcommon.Dialect, dsn, password string, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var (
		driver string
		source string
		err    error
	)
	switch dialect.Name {
	case dbcommon.Postgres.Name:
		driver = "postgres"
		source, err = WithPassword(dsn, password)
		if err != nil {
			return nil, err
		}
	case dbcommon.SQLite.Name:
		driver = "sqlite"
		source = strings.TrimSpace(dsn)
	default:
		return nil, fmt.Errorf("database: unsupported dialect %q", dialect.Name)
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	// Connection pool tuning
	if driver == "sqlite" {
		// one writer; :memory: databases are per-connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetConnMaxLifetime(30 * time.Minute)
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	log.Info("database connected", zap.String("dialect", dialect.Name))
	return &DB{Client: db, Dialect: dialect}, nil
}

// WithPassword sets the password of a postgres:// URL. Key/value DSNs get a
// password= pair appended.
func WithPassword(dsn, password string) (string, error) {
	d := strings.TrimSpace(dsn)
	if d == "" {
		return "", fmt.Errorf("database: dsn is empty")
	}
	if password == "" {
		return d, nil
	}

	if strings.HasPrefix(d, "postgres://") || strings.HasPrefix(d, "postgresql://") {
		u, err := url.Parse(d)
		if err != nil {
			return "", fmt.Errorf("database: parse dsn: %w", err)
		}
		user := ""
		if u.User != nil {
			user = u.User.Username()
		}
		u.User = url.UserPassword(user, password)
		return u.String(), nil
	}

	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(password)
	return d + " password='" + escaped + "'", nil
}

// Graceful shutdown
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
