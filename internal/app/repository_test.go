package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestNewRepoHTTPClient_Timeout(t *testing.T) {
	clearPlatformEnv(t)

	cfg, err := loadConfig(testLoaderConfig())
	require.NoError(t, err)

	client := newRepoHTTPClient(cfg.Repo, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	assert.Zero(t, client.Timeout, "no client timeout by default")

	cfg.Repo.Timeout = 5 * time.Second
	client = newRepoHTTPClient(cfg.Repo, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	assert.Equal(t, 5*time.Second, client.Timeout)
}

func TestNewRepository_RequiresOwnerAndName(t *testing.T) {
	_, err := NewRepository(RepoConfig{Owner: "acme"}, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.Error(t, err)

	repo, err := NewRepository(RepoConfig{Owner: "acme", Name: "pics"}, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)
	assert.NotNil(t, repo)
}
