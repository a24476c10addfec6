package firestore

import (
	"context"
	"net/url"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultCollection = "plantops"

// blobDoc is the Firestore document holding one blob
type blobDoc struct {
	Key       string    `firestore:"Key"`
	Data      []byte    `firestore:"Data"`
	UpdatedAt time.Time `firestore:"UpdatedAt"`
}

// Firestore stores each blob as one document. Documents are capped at 1 MiB by Firestore.
type Firestore struct {
	client     *firestore.Client
	collection string
}

var _ interfaces.BlobStore = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix isolates collections, e.g. per test run
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.collection = prefix + f.collection
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID),
		)
	}

	f := &Firestore{
		client:     client,
		collection: defaultCollection,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// docID escapes '/' so that any key maps to a single document
func docID(key string) string {
	return url.PathEscape(key)
}

func (f *Firestore) Get(ctx context.Context, key string) ([]byte, error) {
	doc, err := f.client.Collection(f.collection).Doc(docID(key)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "blob not found", goerr.V(model.KeyKey, key))
		}
		return nil, goerr.Wrap(err, "failed to get blob document", goerr.V(model.KeyKey, key))
	}

	var d blobDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode blob document", goerr.V(model.KeyKey, key))
	}
	return d.Data, nil
}

func (f *Firestore) Put(ctx context.Context, key string, data []byte) error {
	d := &blobDoc{
		Key:       key,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := f.client.Collection(f.collection).Doc(docID(key)).Set(ctx, d); err != nil {
		return goerr.Wrap(err, "failed to set blob document", goerr.V(model.KeyKey, key))
	}
	return nil
}

func (f *Firestore) Delete(ctx context.Context, key string) error {
	if _, err := f.client.Collection(f.collection).Doc(docID(key)).Delete(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return goerr.Wrap(err, "failed to delete blob document", goerr.V(model.KeyKey, key))
	}
	return nil
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
