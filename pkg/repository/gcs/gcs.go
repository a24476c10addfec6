package gcs

import (
	"context"
	"errors"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/secmon-lab/plantops/pkg/utils/safe"
	"google.golang.org/api/option"
)

// GCS stores each blob as one Cloud Storage object under an optional prefix
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.BlobStore = &GCS{}

type Option func(*config)

type config struct {
	prefix     string
	clientOpts []option.ClientOption
}

// WithPrefix places all objects under prefix
func WithPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = prefix
	}
}

// WithClientOptions passes options to the storage client, e.g. an emulator endpoint
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *config) {
		c.clientOpts = append(c.clientOpts, opts...)
	}
}

func New(ctx context.Context, bucket string, opts ...Option) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("bucket name is required")
	}

	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := storage.NewClient(ctx, cfg.clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	return &GCS{
		client: client,
		bucket: bucket,
		prefix: cfg.prefix,
	}, nil
}

func (g *GCS) object(key string) *storage.ObjectHandle {
	return g.client.Bucket(g.bucket).Object(path.Join(g.prefix, key))
}

func (g *GCS) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := g.object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, goerr.Wrap(model.ErrNotFound, "blob not found", goerr.V(model.KeyKey, key))
		}
		return nil, goerr.Wrap(err, "failed to open object", goerr.V(model.KeyKey, key), goerr.V("bucket", g.bucket))
	}
	defer safe.Close(ctx, r)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read object", goerr.V(model.KeyKey, key), goerr.V("bucket", g.bucket))
	}
	return data, nil
}

func (g *GCS) Put(ctx context.Context, key string, data []byte) error {
	w := g.object(key).NewWriter(ctx)
	w.ContentType = "application/octet-stream"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write object", goerr.V(model.KeyKey, key), goerr.V("bucket", g.bucket))
	}
	// The object becomes visible only when Close succeeds
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize object", goerr.V(model.KeyKey, key), goerr.V("bucket", g.bucket))
	}
	return nil
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	if err := g.object(key).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return goerr.Wrap(err, "failed to delete object", goerr.V(model.KeyKey, key), goerr.V("bucket", g.bucket))
	}
	return nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
