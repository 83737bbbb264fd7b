package app

import (
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Session store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (GALLERY_ prefix), flags, or YAML config files.
type Config struct {
	Addr     string `default:"0.0.0.0:8080" usage:"HTTP listen address"`
	Repo     RepoConfig
	Session  SessionConfig
	Upload   UploadConfig
	Graceful GracefulConfig
}

// RepoConfig points at the remote repository holding product images.
type RepoConfig struct {
	Owner  string `default:"GarvKapoor" usage:"Repository owner"`
	Name   string `default:"ecom-pics" usage:"Repository name"`
	Dir    string `default:"" usage:"Directory inside the repository"`
	Branch string `default:"" usage:"Branch to read and write (default branch when empty)"`
	Token  string `usage:"Access token (GALLERY_REPO_TOKEN or GITHUB_TOKEN)"`
	APIURL string `default:"" usage:"API base URL for GitHub Enterprise" flag:"repo-api-url"`
	// Timeout bounds each repository API request. Zero means no limit.
	Timeout time.Duration `default:"0s" usage:"Repository API request timeout, 0 for none"`
}

// SessionConfig selects the cart store and controls the session cookie.
type SessionConfig struct {
	Backend       string        `default:"memory" usage:"Cart store: memory, redis or postgres"`
	TTL           time.Duration `default:"168h" usage:"Cart lifetime after the last change"`
	CookieName    string        `default:"gallery_session" usage:"Session cookie name"`
	Secure        bool          `default:"false" usage:"Mark the session cookie Secure"`
	RedisAddr     string        `default:"localhost:6379" usage:"Redis address or redis:// URL (REDIS_URL)"`
	RedisPassword string        `usage:"Redis password"`
	RedisDB       int           `default:"0" usage:"Redis database"`
	DatabaseURL   string        `usage:"PostgreSQL connection URL (DATABASE_URL)" flag:"database-url"`
}

// UploadConfig limits image uploads.
type UploadConfig struct {
	MaxBytes  int64 `default:"10485760" usage:"Maximum upload request size in bytes"`
	RateLimit RateLimitConfig
}

// RateLimitConfig controls the per-session fixed window upload limiter.
type RateLimitConfig struct {
	Max    int           `default:"10" usage:"Max uploads per window"`
	Window time.Duration `default:"1m" usage:"Rate limit window duration"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads a .env file if present, then configuration from
// environment variables, YAML config files and flags, and applies
// platform-specific defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}
	return loadConfig(aconfig.Config{
		EnvPrefix: "GALLERY",
		Files:     []string{"config.yaml", "/etc/gallery/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

// LoadEnvConfig is LoadConfig without flag parsing, for commands that own
// their command line.
func LoadEnvConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}
	return loadConfig(aconfig.Config{
		EnvPrefix: "GALLERY",
		SkipFlags: true,
		Files:     []string{"config.yaml", "/etc/gallery/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the unprefixed variables hosting platforms
// provide (GITHUB_TOKEN, PORT, DATABASE_URL, REDIS_URL) onto the config.
func (c *Config) applyPlatformDefaults() {
	if c.Repo.Token == "" {
		c.Repo.Token = os.Getenv("GITHUB_TOKEN")
	}
	if c.Session.DatabaseURL == "" {
		c.Session.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if v := os.Getenv("REDIS_URL"); v != "" && c.Session.RedisAddr == "localhost:6379" {
		c.Session.RedisAddr = v
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	c.Session.Backend = strings.ToLower(strings.TrimSpace(c.Session.Backend))
	switch c.Session.Backend {
	case BackendMemory, BackendRedis:
	case BackendPostgres:
		if c.Session.DatabaseURL == "" {
			return errors.New("database URL is required for the postgres session backend: set GALLERY_SESSION_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown session backend %q", c.Session.Backend)
	}
	if c.Repo.Owner == "" || c.Repo.Name == "" {
		return errors.New("repository owner and name are required")
	}
	if c.Upload.RateLimit.Max <= 0 || c.Upload.RateLimit.Window <= 0 {
		return errors.New("upload rate limit max and window must be positive")
	}
	return nil
}
