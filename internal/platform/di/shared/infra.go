// internal/platform/di/shared/infra.go
package shared

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	outdb "storefront/internal/adapters/out/db"
	dbcommon "storefront/internal/adapters/out/db/common"
	outredis "storefront/internal/adapters/out/redis"
	appcfg "storefront/internal/infra/config"
	"storefront/internal/infra/database"
	firestoreinfra "storefront/internal/infra/firestore"
	"storefront/internal/infra/secret"
	"storefront/internal/infra/telemetry"
)

const redisReadyAttempts = 5

// Infra is shared runtime infrastructure for DI.
// - owns external clients (SQL catalog, Firestore, GCS, Redis, Secret Manager)
// - owns the tracer provider
//
// Infra must NOT depend on routers, handlers, or queries.
type Infra struct {
	Config  *appcfg.Config
	Logger  *zap.Logger
	Version string

	// Clients (owned; Close-managed). Each is nil unless config needs it.
	DB        *database.DB
	Firestore *firestoreinfra.ClientWrapper
	GCS       *storage.Client
	Redis     *redis.Client
	Secrets   *secret.Provider

	shutdownTracer telemetry.Shutdown
}

// NewInfra initializes the clients cfg asks for.
// The catalog store, Firestore and Redis are strict (return error).
// Tracing and the GCS signing client are best-effort (warn + continue).
func NewInfra(ctx context.Context, cfg *appcfg.Config, log *zap.Logger, version string) (*Infra, error) {
	if cfg == nil {
		return nil, errors.New("shared.infra: config is nil")
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("shared.infra")

	inf := &Infra{
		Config:         cfg,
		Logger:         log,
		Version:        version,
		shutdownTracer: func(context.Context) error { return nil },
	}

	// 1) tracing (best-effort)
	if sd, err := telemetry.Init(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName, version, log); err != nil {
		log.Warn("tracer init failed; spans are dropped", zap.Error(err))
	} else {
		inf.shutdownTracer = sd
	}

	var clientOpts []option.ClientOption
	if f := strings.TrimSpace(cfg.Firestore.CredentialsFile); f != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(f))
	}

	// 2) Firestore (strict, only when used)
	if cfg.UsesFirestore() {
		fs, err := firestoreinfra.NewClient(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile, log)
		if err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: firestore (project=%s): %w", cfg.Firestore.ProjectID, err)
		}
		inf.Firestore = fs
	}

	// 3) SQL catalog (strict)
	if cfg.Catalog.Backend != "firestore" {
		db, err := openCatalogDB(ctx, cfg, clientOpts, inf, log)
		if err != nil {
			_ = inf.Close()
			return nil, err
		}
		inf.DB = db
	}

	// 4) GCS client, needed only to sign image URLs (best-effort)
	if cfg.Images.SignedURLs {
		gcs, err := storage.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Warn("storage.NewClient failed; serving public image URLs", zap.Error(err))
		} else {
			inf.GCS = gcs
			log.Info("GCS storage client initialized", zap.String("bucket", cfg.Images.Bucket))
		}
	}

	// 5) Redis (strict, only for redis snapshots)
	if cfg.Cart.SnapshotBackend == "redis" {
		rc := outredis.NewClient(cfg.Cart.RedisAddr)
		if err := outredis.WaitReady(ctx, rc, redisReadyAttempts, log); err != nil {
			_ = rc.Close()
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: redis %s: %w", cfg.Cart.RedisAddr, err)
		}
		inf.Redis = rc
		log.Info("redis connected", zap.String("addr", cfg.Cart.RedisAddr))
	}

	return inf, nil
}

func openCatalogDB(ctx context.Context, cfg *appcfg.Config, clientOpts []option.ClientOption, inf *Infra, log *zap.Logger) (*database.DB, error) {
	dialect, err := dbcommon.DialectByName(cfg.Catalog.Backend)
	if err != nil {
		return nil, fmt.Errorf("shared.infra: %w", err)
	}

	dsn := cfg.Catalog.DatabaseURL
	if dialect == dbcommon.SQLite {
		dsn = cfg.Catalog.SQLitePath
	}

	var password string
	if ref := strings.TrimSpace(cfg.Catalog.DatabasePasswordSecret); ref != "" && dialect == dbcommon.Postgres {
		sp, err := secret.NewProvider(ctx, cfg.Firestore.ProjectID, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("shared.infra: %w", err)
		}
		inf.Secrets = sp
		password, err = sp.Access(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("shared.infra: database password: %w", err)
		}
		log.Info("database password loaded from secret manager")
	}

	db, err := database.Open(ctx, dialect, dsn, password, log)
	if err != nil {
		return nil, fmt.Errorf("shared.infra: catalog db (%s): %w", dialect.Name, err)
	}

	// local catalogs are created on first run; the hosted one is managed elsewhere
	if dialect == dbcommon.SQLite {
		if err := outdb.EnsureSchema(ctx, db.Client, dialect); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("shared.infra: %w", err)
		}
	}
	return db, nil
}

// Close releases every client. It is safe to call more than once.
func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	var errs []error
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
		i.Redis = nil
	}
	if i.GCS != nil {
		errs = append(errs, i.GCS.Close())
		i.GCS = nil
	}
	if i.DB != nil {
		errs = append(errs, i.DB.Close())
		i.DB = nil
	}
	if i.Firestore != nil {
		errs = append(errs, i.Firestore.Close())
		i.Firestore = nil
	}
	if i.Secrets != nil {
		errs = append(errs, i.Secrets.Close())
		i.Secrets = nil
	}
	if i.shutdownTracer != nil {
		errs = append(errs, i.shutdownTracer(context.Background()))
		i.shutdownTracer = nil
	}
	return errors.Join(errs...)
}
