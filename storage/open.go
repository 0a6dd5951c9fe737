package storage

import (
	"context"
	"fmt"
)

// Config selects and configures a backend.
type Config struct {
	Driver          string
	Path            string
	DSN             string
	Project         string
	Collection      string
	CredentialsFile string
	Bucket          string
	Prefix          string
	Region          string
}

// Open returns the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemory(), nil
	case "file", "":
		return OpenFile(cfg.Path)
	case "sqlite":
		return OpenSQLite(ctx, cfg.Path)
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN)
	case "firestore":
		return OpenFirestore(ctx, FirestoreConfig{
			Project:         cfg.Project,
			Collection:      cfg.Collection,
			CredentialsFile: cfg.CredentialsFile,
		})
	case "s3":
		return OpenS3(ctx, S3Config{
			Bucket: cfg.Bucket,
			Prefix: cfg.Prefix,
			Region: cfg.Region,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
