// cmd/storefront/serve.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/internal/adapters/in/http/middleware"
	httpstorefront "storefront/internal/adapters/in/http/storefront"
	shared "storefront/internal/platform/di/shared"
	storefrontDI "storefront/internal/platform/di/storefront"
)

const diInitTimeout = 2 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the storefront HTTP API",
	Long: `Serve the storefront HTTP API.

The listener starts immediately with /healthz only; the full API is swapped
in once the catalog store and snapshot backends are connected.`,
	RunE: runServe,
}

// atomicHandler allows swapping the underlying handler at runtime safely.
type atomicHandler struct {
	v atomic.Value // stores http.Handler
}

func newAtomicHandler(initial http.Handler) *atomicHandler {
	ah := &atomicHandler{}
	if initial == nil {
		initial = http.NotFoundHandler()
	}
	ah.v.Store(initial)
	return ah
}

func (h *atomicHandler) Store(next http.Handler) {
	if next == nil {
		return
	}
	h.v.Store(next)
}

func (h *atomicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cur, _ := h.v.Load().(http.Handler)
	if cur == nil {
		http.NotFound(w, r)
		return
	}
	cur.ServeHTTP(w, r)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log = log.Named("boot")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start listening ASAP with a lightweight mux (healthz only)
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", httpstorefront.Healthz)
	switcher := newAtomicHandler(middleware.CORS(cfg.HTTP.CORSAllowedOrigins)(healthMux))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           switcher,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Heavy DI init in background; then swap handler to the full router
	var (
		infraHolder atomic.Pointer[shared.Infra]
		contHolder  atomic.Pointer[storefrontDI.Container]
	)
	ready := make(chan struct{})
	go func() {
		defer close(ready)

		initCtx, cancel := context.WithTimeout(ctx, diInitTimeout)
		defer cancel()

		infra, err := shared.NewInfra(initCtx, cfg, log.Named("infra"), version)
		if err != nil {
			log.Error("shared infra init failed; serving /healthz only", zap.Error(err))
			return
		}
		cont, err := storefrontDI.NewContainer(initCtx, infra)
		if err != nil {
			_ = infra.Close()
			log.Error("storefront di init failed; serving /healthz only", zap.Error(err))
			return
		}
		if ctx.Err() != nil {
			_ = cont.Close()
			_ = infra.Close()
			return
		}

		infraHolder.Store(infra)
		contHolder.Store(cont)
		cont.StartJanitor(ctx)
		switcher.Store(cont.Router)
		log.Info("storefront router ready",
			zap.String("catalog", cfg.Catalog.Backend),
			zap.String("snapshots", cfg.Cart.SnapshotBackend),
		)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			stop()
			<-ready
			closeAll(log, &contHolder, &infraHolder)
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown error", zap.Error(err))
	}

	<-ready
	closeAll(log, &contHolder, &infraHolder)
	return nil
}

func closeAll(log *zap.Logger, cont *atomic.Pointer[storefrontDI.Container], infra *atomic.Pointer[shared.Infra]) {
	if c := cont.Swap(nil); c != nil {
		if err := c.Close(); err != nil {
			log.Warn("container close error", zap.Error(err))
		}
	}
	if i := infra.Swap(nil); i != nil {
		log.Info("closing infra resources")
		if err := i.Close(); err != nil {
			log.Warn("infra close error", zap.Error(err))
		}
	}
}
