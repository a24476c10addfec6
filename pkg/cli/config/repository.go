package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/repository/file"
	"github.com/secmon-lab/plantops/pkg/repository/firestore"
	"github.com/secmon-lab/plantops/pkg/repository/gcs"
	"github.com/secmon-lab/plantops/pkg/repository/memory"
	"github.com/secmon-lab/plantops/pkg/repository/sqlite"
	"github.com/secmon-lab/plantops/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	BackendMemory    = "memory"
	BackendFile      = "file"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
	BackendGCS       = "gcs"
)

// Repository holds CLI flags for blob store backend configuration
type Repository struct {
	backend    string
	path       string
	projectID  string
	databaseID string
	bucket     string
	prefix     string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (memory, file, sqlite, firestore or gcs)",
			Value:       BackendFile,
			Category:    "Repository",
			Sources:     cli.EnvVars("PLANTOPS_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "repository-path",
			Usage:       "Directory (file backend) or database file (sqlite backend)",
			Value:       "./plantops-data",
			Category:    "Repository",
			Sources:     cli.EnvVars("PLANTOPS_REPOSITORY_PATH"),
			Destination: &r.path,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("PLANTOPS_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Value:       "(default)",
			Category:    "Repository",
			Sources:     cli.EnvVars("PLANTOPS_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Cloud Storage bucket (required when using gcs backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("PLANTOPS_GCS_BUCKET"),
			Destination: &r.bucket,
		},
		&cli.StringFlag{
			Name:        "gcs-prefix",
			Usage:       "Object name prefix in the Cloud Storage bucket",
			Category:    "Repository",
			Sources:     cli.EnvVars("PLANTOPS_GCS_PREFIX"),
			Destination: &r.prefix,
		},
	}
}

func (r *Repository) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("backend", r.backend),
		slog.String("path", r.path),
		slog.String("project_id", r.projectID),
		slog.String("database_id", r.databaseID),
		slog.String("bucket", r.bucket),
	}
}

// Configure initializes and returns a blob store based on the configured backend.
// The caller is responsible for calling Close() on the returned store.
func (r *Repository) Configure(ctx context.Context) (interfaces.BlobStore, error) {
	switch r.backend {
	case BackendMemory:
		logging.Default().Info("Using in-memory repository (development mode, data is lost on exit)")
		return memory.New(), nil

	case BackendFile:
		store, err := file.New(r.path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize file repository")
		}
		logging.Default().Info("Using file repository", "path", r.path)
		return store, nil

	case BackendSQLite:
		store, err := sqlite.New(ctx, r.path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize sqlite repository")
		}
		logging.Default().Info("Using SQLite repository", "path", r.path)
		return store, nil

	case BackendFirestore:
		if r.projectID == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "firestore-project-id is required when using firestore backend")
		}
		store, err := firestore.New(ctx, r.projectID, r.databaseID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return store, nil

	case BackendGCS:
		if r.bucket == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "gcs-bucket is required when using gcs backend")
		}
		store, err := gcs.New(ctx, r.bucket, gcs.WithPrefix(r.prefix))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize gcs repository")
		}
		logging.Default().Info("Using Cloud Storage repository", "bucket", r.bucket, "prefix", r.prefix)
		return store, nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid repository backend", goerr.V("backend", r.backend))
	}
}
