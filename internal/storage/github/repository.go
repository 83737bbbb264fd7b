// Package github implements gallery.Repository on top of the GitHub
// repository contents API.
package github

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-faster/errors"
	gh "github.com/google/go-github/v66/github"

	"github.com/xenking/ecom-gallery/internal/domain/gallery"
)

var _ gallery.Repository = (*Repository)(nil)

// Config identifies the repository holding product images.
type Config struct {
	Owner string
	Repo  string
	// Dir is the directory inside the repository, empty for the root.
	Dir string
	// Branch to read from and commit to, empty for the default branch.
	Branch string
	Token  string
	// APIURL overrides the API endpoint (GitHub Enterprise, tests).
	APIURL string
}

// Repository reads and writes image files in one GitHub repository.
type Repository struct {
	client *gh.Client
	owner  string
	repo   string
	dir    string
	branch string
	token  bool
}

// New creates a Repository. httpClient may be nil.
func New(cfg Config, httpClient *http.Client) (*Repository, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, errors.New("repository owner and name are required")
	}

	client := gh.NewClient(httpClient)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}
	if cfg.APIURL != "" {
		u, err := url.Parse(strings.TrimSuffix(cfg.APIURL, "/") + "/")
		if err != nil {
			return nil, errors.Wrap(err, "parse api url")
		}
		client.BaseURL = u
	}

	return &Repository{
		client: client,
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		dir:    strings.Trim(cfg.Dir, "/"),
		branch: cfg.Branch,
		token:  cfg.Token != "",
	}, nil
}

// List returns the files of the configured directory in API order.
func (r *Repository) List(ctx context.Context) ([]gallery.File, error) {
	_, entries, _, err := r.client.Repositories.GetContents(ctx, r.owner, r.repo, r.dir,
		&gh.RepositoryContentGetOptions{Ref: r.branch},
	)
	if err != nil {
		return nil, upstream(err)
	}

	files := make([]gallery.File, 0, len(entries))
	for _, e := range entries {
		if e.GetType() != "file" {
			continue
		}
		files = append(files, gallery.File{
			Name:        e.GetName(),
			Path:        e.GetPath(),
			DownloadURL: e.GetDownloadURL(),
		})
	}
	return files, nil
}

// Create commits content as a new file named name in the configured
// directory. It refuses to run without an access token.
func (r *Repository) Create(ctx context.Context, name string, content []byte, message string) error {
	if !r.token {
		return gallery.ErrNotConfigured
	}

	opts := &gh.RepositoryContentFileOptions{
		Message: gh.String(message),
		Content: content,
	}
	if r.branch != "" {
		opts.Branch = gh.String(r.branch)
	}

	if _, _, err := r.client.Repositories.CreateFile(ctx, r.owner, r.repo, path.Join(r.dir, name), opts); err != nil {
		return upstream(err)
	}
	return nil
}

// upstream converts API error responses into gallery.UpstreamError so the
// status and message reach the caller.
func upstream(err error) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return &gallery.UpstreamError{StatusCode: rateErr.Response.StatusCode, Message: rateErr.Message}
	}
	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return &gallery.UpstreamError{StatusCode: respErr.Response.StatusCode, Message: respErr.Message}
	}
	return errors.Wrap(err, "github api")
}
