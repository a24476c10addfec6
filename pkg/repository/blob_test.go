package repository_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/secmon-lab/plantops/pkg/repository/file"
	"github.com/secmon-lab/plantops/pkg/repository/firestore"
	"github.com/secmon-lab/plantops/pkg/repository/gcs"
	"github.com/secmon-lab/plantops/pkg/repository/memory"
	"github.com/secmon-lab/plantops/pkg/repository/sqlite"
)

func runBlobStoreTest(t *testing.T, newStore func(t *testing.T) interfaces.BlobStore) {
	t.Helper()

	// unique keys keep shared remote backends isolated between runs
	key := func(name string) string {
		return fmt.Sprintf("test/%s/%d", name, time.Now().UnixNano())
	}

	t.Run("Get returns not found for missing key", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(context.Background(), key("missing"))
		gt.Error(t, err).Is(model.ErrNotFound)
	})

	t.Run("Put then Get returns same bytes", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		k := key("roundtrip")

		gt.NoError(t, store.Put(ctx, k, []byte(`[{"id":"p1"}]`))).Required()

		data, err := store.Get(ctx, k)
		gt.NoError(t, err).Required()
		gt.Value(t, string(data)).Equal(`[{"id":"p1"}]`)
	})

	t.Run("Put overwrites previous value", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		k := key("overwrite")

		gt.NoError(t, store.Put(ctx, k, []byte("first"))).Required()
		gt.NoError(t, store.Put(ctx, k, []byte("second"))).Required()

		data, err := store.Get(ctx, k)
		gt.NoError(t, err).Required()
		gt.Value(t, string(data)).Equal("second")
	})

	t.Run("keys with separators are stored independently", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		base := key("sep")

		gt.NoError(t, store.Put(ctx, base+"/images/sha256:aa", []byte("a"))).Required()
		gt.NoError(t, store.Put(ctx, base+"/images/sha256:bb", []byte("b"))).Required()

		a, err := store.Get(ctx, base+"/images/sha256:aa")
		gt.NoError(t, err).Required()
		b, err := store.Get(ctx, base+"/images/sha256:bb")
		gt.NoError(t, err).Required()
		gt.Value(t, string(a)).Equal("a")
		gt.Value(t, string(b)).Equal("b")
	})

	t.Run("Delete removes key and is idempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		k := key("delete")

		gt.NoError(t, store.Put(ctx, k, []byte("x"))).Required()
		gt.NoError(t, store.Delete(ctx, k)).Required()
		gt.NoError(t, store.Delete(ctx, k)).Required()

		_, err := store.Get(ctx, k)
		gt.Error(t, err).Is(model.ErrNotFound)
	})

	t.Run("returned bytes are not aliased", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		k := key("alias")

		src := []byte("abc")
		gt.NoError(t, store.Put(ctx, k, src)).Required()
		src[0] = 'z'

		data, err := store.Get(ctx, k)
		gt.NoError(t, err).Required()
		gt.Value(t, string(data)).Equal("abc")
	})
}

func TestMemoryBlobStore(t *testing.T) {
	runBlobStoreTest(t, func(t *testing.T) interfaces.BlobStore {
		return memory.New()
	})
}

func TestFileBlobStore(t *testing.T) {
	runBlobStoreTest(t, func(t *testing.T) interfaces.BlobStore {
		store, err := file.New(filepath.Join(t.TempDir(), "data"))
		gt.NoError(t, err).Required()
		return store
	})
}

func TestSQLiteBlobStore(t *testing.T) {
	runBlobStoreTest(t, func(t *testing.T) interfaces.BlobStore {
		store, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "plantops.db"))
		gt.NoError(t, err).Required()
		t.Cleanup(func() {
			gt.NoError(t, store.Close())
		})
		return store
	})
}

func TestFirestoreBlobStore(t *testing.T) {
	runBlobStoreTest(t, func(t *testing.T) interfaces.BlobStore {
		projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
		if projectID == "" {
			t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
		}
		databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
		if databaseID == "" {
			t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
		}

		store, err := firestore.New(context.Background(), projectID, databaseID,
			firestore.WithCollectionPrefix("test_"),
		)
		gt.NoError(t, err).Required()
		t.Cleanup(func() {
			gt.NoError(t, store.Close())
		})
		return store
	})
}

func TestGCSBlobStore(t *testing.T) {
	runBlobStoreTest(t, func(t *testing.T) interfaces.BlobStore {
		bucket := os.Getenv("TEST_GCS_BUCKET")
		if bucket == "" {
			t.Skip("TEST_GCS_BUCKET not set")
		}

		store, err := gcs.New(context.Background(), bucket, gcs.WithPrefix("plantops-test"))
		gt.NoError(t, err).Required()
		t.Cleanup(func() {
			gt.NoError(t, store.Close())
		})
		return store
	})
}
