package app

import (
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoaderConfig() aconfig.Config {
	return aconfig.Config{
		EnvPrefix: "GALLERY",
		SkipFlags: true,
		SkipFiles: true,
	}
}

func clearPlatformEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GITHUB_TOKEN", "PORT", "DATABASE_URL", "REDIS_URL"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearPlatformEnv(t)

	cfg, err := loadConfig(testLoaderConfig())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, "GarvKapoor", cfg.Repo.Owner)
	assert.Equal(t, "ecom-pics", cfg.Repo.Name)
	assert.Empty(t, cfg.Repo.Token)
	assert.Zero(t, cfg.Repo.Timeout)
	assert.Equal(t, BackendMemory, cfg.Session.Backend)
	assert.Equal(t, 168*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "gallery_session", cfg.Session.CookieName)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, 10, cfg.Upload.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.Upload.RateLimit.Window)
	assert.Equal(t, 3*time.Second, cfg.Graceful.ReadinessDelay)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
}

func TestLoadConfig_Env(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("GALLERY_REPO_OWNER", "acme")
	t.Setenv("GALLERY_REPO_DIR", "products")
	t.Setenv("GALLERY_SESSION_BACKEND", "Redis")
	t.Setenv("GALLERY_SESSION_TTL", "2h")

	cfg, err := loadConfig(testLoaderConfig())
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.Repo.Owner)
	assert.Equal(t, "products", cfg.Repo.Dir)
	assert.Equal(t, BackendRedis, cfg.Session.Backend)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
}

func TestLoadConfig_PlatformDefaults(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/gallery")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("GALLERY_SESSION_BACKEND", "postgres")

	cfg, err := loadConfig(testLoaderConfig())
	require.NoError(t, err)

	assert.Equal(t, "ghp_test", cfg.Repo.Token)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	assert.Equal(t, "postgres://u:p@db/gallery", cfg.Session.DatabaseURL)
	assert.Equal(t, "redis://cache:6379/0", cfg.Session.RedisAddr)
}

func TestLoadConfig_PrefixedWins(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("GITHUB_TOKEN", "platform")
	t.Setenv("GALLERY_REPO_TOKEN", "explicit")
	t.Setenv("PORT", "9000")
	t.Setenv("GALLERY_ADDR", "127.0.0.1:7000")

	cfg, err := loadConfig(testLoaderConfig())
	require.NoError(t, err)

	assert.Equal(t, "explicit", cfg.Repo.Token)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown backend",
			env:     map[string]string{"GALLERY_SESSION_BACKEND": "etcd"},
			wantErr: `unknown session backend "etcd"`,
		},
		{
			name:    "postgres without url",
			env:     map[string]string{"GALLERY_SESSION_BACKEND": "postgres"},
			wantErr: "database URL is required",
		},
		{
			name:    "zero rate limit",
			env:     map[string]string{"GALLERY_UPLOAD_RATE_LIMIT_MAX": "0"},
			wantErr: "rate limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearPlatformEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := loadConfig(testLoaderConfig())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
