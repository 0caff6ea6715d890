// internal/infra/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the storefront process settings.
// Sources, lowest precedence first: defaults, YAML file, environment.
type Config struct {
	Port string `yaml:"port"`

	Catalog   CatalogConfig   `yaml:"catalog"`
	Firestore FirestoreConfig `yaml:"firestore"`
	Cart      CartConfig      `yaml:"cart"`
	Images    ImagesConfig    `yaml:"images"`
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// CatalogConfig selects where products and categories are read from.
type CatalogConfig struct {
	Backend string `yaml:"backend"` // postgres, sqlite, firestore

	DatabaseURL string `yaml:"database_url"`
	// Secret Manager resource whose payload replaces the DSN password,
	// e.g. projects/p/secrets/db-password/versions/latest
	DatabasePasswordSecret string `yaml:"database_password_secret"`

	SQLitePath string `yaml:"sqlite_path"`

	// Per-load timeout of page fetches; empty means none.
	LoadTimeout string `yaml:"load_timeout"`
}

type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// CartConfig configures session carts and their optional snapshots.
type CartConfig struct {
	SnapshotBackend string `yaml:"snapshot_backend"` // none, redis, firestore
	RedisAddr       string `yaml:"redis_addr"`
	SessionIdleTTL  string `yaml:"session_idle_ttl"`
	SaveTimeout     string `yaml:"save_timeout"`
}

type ImagesConfig struct {
	Bucket      string `yaml:"bucket"`
	SignedURLs  bool   `yaml:"signed_urls"`
	FallbackURL string `yaml:"fallback_url"`
}

type HTTPConfig struct {
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	ShutdownTimeout    string   `yaml:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

type TelemetryConfig struct {
	// Empty disables trace export.
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

const DefaultFallbackImageURL = "https://images.unsplash.com/photo-1596462502278-27bfdc403348?w=500"

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Port: "8080",
		Catalog: CatalogConfig{
			Backend:     "sqlite",
			SQLitePath:  "storefront.db",
			LoadTimeout: "10s",
		},
		Cart: CartConfig{
			SnapshotBackend: "none",
			SessionIdleTTL:  "2h",
			SaveTimeout:     "5s",
		},
		Images: ImagesConfig{
			FallbackURL: DefaultFallbackImageURL,
		},
		HTTP: HTTPConfig{
			CORSAllowedOrigins: []string{"*"},
			ShutdownTimeout:    "25s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "storefront",
		},
	}
}

// Load reads path (optional) over the defaults, then applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if p := strings.TrimSpace(path); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", p, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", p, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Port = getenvDefault("PORT", c.Port)

	c.Catalog.Backend = getenvDefault("CATALOG_BACKEND", c.Catalog.Backend)
	c.Catalog.DatabaseURL = getenvDefault("DATABASE_URL", c.Catalog.DatabaseURL)
	c.Catalog.DatabasePasswordSecret = getenvDefault("DATABASE_PASSWORD_SECRET", c.Catalog.DatabasePasswordSecret)
	c.Catalog.SQLitePath = getenvDefault("SQLITE_PATH", c.Catalog.SQLitePath)

	// FIRESTORE_PROJECT_ID falls back to the GCP project
	c.Firestore.ProjectID = getenvDefault("FIRESTORE_PROJECT_ID", getenvDefault("GCP_PROJECT_ID", c.Firestore.ProjectID))
	c.Firestore.CredentialsFile = getenvDefault("FIRESTORE_CREDENTIALS_FILE", c.Firestore.CredentialsFile)

	c.Cart.SnapshotBackend = getenvDefault("CART_SNAPSHOT_BACKEND", c.Cart.SnapshotBackend)
	c.Cart.RedisAddr = getenvDefault("REDIS_ADDR", c.Cart.RedisAddr)
	c.Cart.SessionIdleTTL = getenvDefault("SESSION_IDLE_TTL", c.Cart.SessionIdleTTL)

	c.Images.Bucket = getenvDefault("IMAGE_BUCKET", c.Images.Bucket)
	if v := os.Getenv("IMAGE_SIGNED_URLS"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			c.Images.SignedURLs = b
		}
	}
	c.Images.FallbackURL = getenvDefault("FALLBACK_IMAGE_URL", c.Images.FallbackURL)

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); strings.TrimSpace(v) != "" {
		c.HTTP.CORSAllowedOrigins = splitCSV(v)
	}

	c.Logging.Level = getenvDefault("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getenvDefault("LOG_FORMAT", c.Logging.Format)

	c.Telemetry.OTLPEndpoint = getenvDefault("OTEL_EXPORTER_OTLP_ENDPOINT", c.Telemetry.OTLPEndpoint)
	c.Telemetry.ServiceName = getenvDefault("OTEL_SERVICE_NAME", c.Telemetry.ServiceName)
}

// Validate checks backend names and the settings each backend requires.
func (c *Config) Validate() error {
	var errs []error

	switch c.Catalog.Backend {
	case "postgres":
		if strings.TrimSpace(c.Catalog.DatabaseURL) == "" {
			errs = append(errs, errors.New("catalog.database_url is required for postgres"))
		}
	case "sqlite":
		if strings.TrimSpace(c.Catalog.SQLitePath) == "" {
			errs = append(errs, errors.New("catalog.sqlite_path is required for sqlite"))
		}
	case "firestore":
		if strings.TrimSpace(c.Firestore.ProjectID) == "" {
			errs = append(errs, errors.New("firestore.project_id is required for the firestore catalog"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown catalog backend %q", c.Catalog.Backend))
	}

	switch c.Cart.SnapshotBackend {
	case "", "none":
	case "redis":
		if strings.TrimSpace(c.Cart.RedisAddr) == "" {
			errs = append(errs, errors.New("cart.redis_addr is required for redis snapshots"))
		}
	case "firestore":
		if strings.TrimSpace(c.Firestore.ProjectID) == "" {
			errs = append(errs, errors.New("firestore.project_id is required for firestore snapshots"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cart snapshot backend %q", c.Cart.SnapshotBackend))
	}

	for name, v := range map[string]string{
		"catalog.load_timeout":  c.Catalog.LoadTimeout,
		"cart.session_idle_ttl": c.Cart.SessionIdleTTL,
		"cart.save_timeout":     c.Cart.SaveTimeout,
		"http.shutdown_timeout": c.HTTP.ShutdownTimeout,
	} {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// UsesFirestore reports whether any component needs a Firestore client.
func (c *Config) UsesFirestore() bool {
	return c.Catalog.Backend == "firestore" || c.Cart.SnapshotBackend == "firestore"
}

func (c *Config) LoadTimeout() time.Duration { return durationOr(c.Catalog.LoadTimeout, 0) }
func (c *Config) SessionIdleTTL() time.Duration { return durationOr(c.Cart.SessionIdleTTL, 2*time.Hour) }
func (c *Config) SaveTimeout() time.Duration { return durationOr(c.Cart.SaveTimeout, 5*time.Second) }
func (c *Config) ShutdownTimeout() time.Duration { return durationOr(c.HTTP.ShutdownTimeout, 25*time.Second) }

func durationOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d < 0 {
		return def
	}
	return d
}

func splitCSV(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
