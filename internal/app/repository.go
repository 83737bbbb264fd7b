package app

import (
	"net/http"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/ecom-gallery/internal/storage/github"
)

// NewRepository creates the image repository client. Outbound calls are
// traced like inbound ones; cfg.Timeout of zero leaves requests unbounded.
func NewRepository(cfg RepoConfig, tp trace.TracerProvider, mp metric.MeterProvider) (*github.Repository, error) {
	repo, err := github.New(github.Config{
		Owner:  cfg.Owner,
		Repo:   cfg.Name,
		Dir:    cfg.Dir,
		Branch: cfg.Branch,
		Token:  cfg.Token,
		APIURL: cfg.APIURL,
	}, newRepoHTTPClient(cfg, tp, mp))
	if err != nil {
		return nil, errors.Wrap(err, "create repository client")
	}
	return repo, nil
}

func newRepoHTTPClient(cfg RepoConfig, tp trace.TracerProvider, mp metric.MeterProvider) *http.Client {
	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithMeterProvider(mp),
		),
	}
}
