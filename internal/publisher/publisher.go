// Package publisher pushes locally stored song images to a remote media host.
//
// A [Publisher] reads the local file, optionally downscales it, waits on a rate limiter and
// performs a single upload through a [Backend]: Cloudinary, S3 (or any S3 compatible store)
// or Qiniu Kodo. There are no retries; every remote failure is reported as
// [shared.ErrRemoteService] and leaves local state untouched.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/cancionero/internal/shared"
)

const defaultTimeout = 30 * time.Second

// Object is one image handed to a [Backend].
type Object struct {
	// PublicID is the folder-qualified name without extension, e.g. "canciones/3_ab12_cover".
	PublicID    string
	Ext         string
	ContentType string
	Data        []byte
}

// Key returns the object key for stores that address files by full name.
func (o Object) Key() string { return o.PublicID + o.Ext }

// Filename returns the base file name sent with multipart uploads.
func (o Object) Filename() string { return path.Base(o.Key()) }

// Backend uploads an [Object] and returns its public URL.
type Backend interface {
	Name() string
	Upload(ctx context.Context, obj Object) (string, error)
}

// Publisher uploads local images through a [Backend].
type Publisher struct {
	backend  Backend
	folder   string
	maxWidth uint
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   *log.Logger
}

// New creates a [Publisher] over backend. A nil backend yields a publisher whose
// every call fails with [shared.ErrRemoteService].
func New(backend Backend, cfg shared.PublisherConfig, logger *log.Logger) *Publisher {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	timeout := defaultTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Publisher{
		backend:  backend,
		folder:   strings.Trim(cfg.Folder, "/"),
		maxWidth: cfg.MaxWidth,
		timeout:  timeout,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
}

// NewFromConfig builds the backend selected by cfg.Backend and wraps it in a [Publisher].
func NewFromConfig(ctx context.Context, cfg shared.PublisherConfig, logger *log.Logger) (*Publisher, error) {
	var (
		backend Backend
		err     error
	)

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	switch cfg.Backend {
	case shared.PublisherNone:
	case shared.PublisherCloudinary:
		backend, err = NewCloudinary(cfg.Cloudinary, timeout)
	case shared.PublisherS3:
		backend, err = NewS3(ctx, cfg.S3)
	case shared.PublisherQiniu:
		backend, err = NewQiniu(cfg.Qiniu)
	default:
		err = fmt.Errorf("%w: unknown publisher backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	return New(backend, cfg, logger), nil
}

// Enabled reports whether a backend is configured.
func (p *Publisher) Enabled() bool { return p.backend != nil }

// Backend returns the configured backend name, or "" when publishing is disabled.
func (p *Publisher) Backend() string {
	if p.backend == nil {
		return ""
	}
	return p.backend.Name()
}

// Publish uploads the file at localPath under "{folder}/{name}" and returns the remote URL.
//
// A missing local file is [shared.ErrNotFound]; everything that goes wrong talking to the
// remote host is [shared.ErrRemoteService].
func (p *Publisher) Publish(ctx context.Context, localPath, name string) (string, error) {
	data, err := os.ReadFile(localPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: local image %s", shared.ErrNotFound, filepath.Base(localPath))
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to read local image: %v", shared.ErrStorage, err)
	}

	if p.backend == nil {
		return "", fmt.Errorf("%w: remote publishing is not configured", shared.ErrRemoteService)
	}

	ext := strings.ToLower(filepath.Ext(localPath))
	obj := Object{
		PublicID:    p.publicID(name),
		Ext:         ext,
		ContentType: mime.TypeByExtension(ext),
		Data:        Downscale(data, ext, p.maxWidth),
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrRemoteService, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	url, err := p.backend.Upload(ctx, obj)
	if err != nil {
		p.logger.Error("publish failed", "backend", p.backend.Name(), "public_id", obj.PublicID, "error", err)
		if errors.Is(err, shared.ErrRemoteService) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", shared.ErrRemoteService, err)
	}
	if url == "" {
		return "", fmt.Errorf("%w: %s returned no url", shared.ErrRemoteService, p.backend.Name())
	}

	p.logger.Info("published image",
		"backend", p.backend.Name(),
		"public_id", obj.PublicID,
		"bytes", len(obj.Data),
		"duration", time.Since(start),
	)
	return url, nil
}

func (p *Publisher) publicID(name string) string {
	if p.folder == "" {
		return name
	}
	return p.folder + "/" + name
}
