// internal/platform/di/storefront/container.go
package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	httpstorefront "storefront/internal/adapters/in/http/storefront"
	storefrontHandler "storefront/internal/adapters/in/http/storefront/handler"
	outdb "storefront/internal/adapters/out/db"
	outfs "storefront/internal/adapters/out/firestore"
	gcso "storefront/internal/adapters/out/gcs"
	outredis "storefront/internal/adapters/out/redis"
	sfquery "storefront/internal/application/query/storefront"
	appresolver "storefront/internal/application/resolver"
	usecase "storefront/internal/application/usecase"
	cartdom "storefront/internal/domain/cart"
	categorydom "storefront/internal/domain/category"
	productdom "storefront/internal/domain/product"
	shared "storefront/internal/platform/di/shared"
)

const janitorInterval = time.Minute

// Container is the storefront DI container.
// Pure DI: build deps only. No routing branching.
type Container struct {
	Infra *shared.Infra

	// Outbound ports
	Products   productdom.Repository
	Categories categorydom.Repository
	Snapshots  cartdom.SnapshotRepository // nil when snapshots are off
	Images     appresolver.ImageURLResolver

	// Application
	CartUC       *usecase.CartUsecase
	CatalogQuery *sfquery.CatalogQuery
	CartQuery    *sfquery.CartQuery
	Loaders      *sfquery.CatalogLoaders

	// Inbound
	Router http.Handler

	stopJanitor context.CancelFunc
	janitorWG   sync.WaitGroup
	closeOnce   sync.Once
}

// NewContainer wires the storefront on top of infra. Infra stays owned by
// the caller.
func NewContainer(_ context.Context, infra *shared.Infra) (*Container, error) {
	if infra == nil || infra.Config == nil {
		return nil, errors.New("storefront.di: infra is nil")
	}
	cfg := infra.Config
	log := infra.Logger
	if log == nil {
		log = zap.NewNop()
	}

	c := &Container{Infra: infra}

	// catalog
	switch cfg.Catalog.Backend {
	case "firestore":
		if infra.Firestore == nil {
			return nil, errors.New("storefront.di: firestore catalog without a firestore client")
		}
		c.Products = outfs.NewProductRepositoryFS(infra.Firestore.Client)
		c.Categories = outfs.NewCategoryRepositoryFS(infra.Firestore.Client)
	default:
		if infra.DB == nil {
			return nil, fmt.Errorf("storefront.di: %s catalog without a database", cfg.Catalog.Backend)
		}
		c.Products = outdb.NewProductRepositorySQL(infra.DB.Client, infra.DB.Dialect)
		c.Categories = outdb.NewCategoryRepositorySQL(infra.DB.Client, infra.DB.Dialect)
	}

	// cart snapshots
	switch cfg.Cart.SnapshotBackend {
	case "redis":
		if infra.Redis == nil {
			return nil, errors.New("storefront.di: redis snapshots without a redis client")
		}
		c.Snapshots = outredis.NewCartRepositoryRedis(infra.Redis, log)
	case "firestore":
		if infra.Firestore == nil {
			return nil, errors.New("storefront.di: firestore snapshots without a firestore client")
		}
		c.Snapshots = outfs.NewCartRepositoryFS(infra.Firestore.Client)
	default:
		log.Info("cart snapshots disabled; carts live in memory only")
	}

	c.Images = gcso.NewImageURLResolver(infra.GCS, cfg.Images.Bucket, cfg.Images.SignedURLs && infra.GCS != nil, log)

	c.CartUC = usecase.NewCartUsecase(c.Products, usecase.CartOptions{
		Snapshots:        c.Snapshots,
		SessionIdleTTL:   cfg.SessionIdleTTL(),
		SaveTimeout:      cfg.SaveTimeout(),
		FallbackImageURL: cfg.Images.FallbackURL,
		Logger:           log,
	})
	c.CatalogQuery = sfquery.NewCatalogQuery(c.Products, c.Categories, c.Images, cfg.Images.FallbackURL, log)
	c.CartQuery = sfquery.NewCartQuery(c.CartUC, c.Images)
	c.Loaders = sfquery.NewCatalogLoaders(c.CatalogQuery, cfg.LoadTimeout())

	c.Router = httpstorefront.NewRouter(httpstorefront.Deps{
		Catalog:        storefrontHandler.NewCatalogHandler(c.Loaders, log),
		Cart:           storefrontHandler.NewCartHandler(c.CartUC, c.CartQuery, log),
		AllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
		Logger:         log,
	})

	return c, nil
}

// StartJanitor evicts idle session carts and forgets finished page loads
// older than the session idle TTL, until Close.
func (c *Container) StartJanitor(ctx context.Context) {
	if c == nil || c.stopJanitor != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.stopJanitor = cancel

	idle := c.Infra.Config.SessionIdleTTL()
	c.janitorWG.Add(2)
	go func() {
		defer c.janitorWG.Done()
		c.CartUC.RunJanitor(ctx, janitorInterval)
	}()
	go func() {
		defer c.janitorWG.Done()
		t := time.NewTicker(janitorInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				c.Loaders.Prune(now.Add(-idle))
			}
		}
	}()
}

// Close stops the janitor. Infra is closed by its owner.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		if c.stopJanitor != nil {
			c.stopJanitor()
		}
		c.janitorWG.Wait()
	})
	return nil
}
