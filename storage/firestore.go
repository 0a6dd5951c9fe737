package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreSlot struct {
	Value     []byte    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// Firestore stores each key as a document in one collection.
type Firestore struct {
	client     *firestore.Client
	collection string
}

// FirestoreConfig selects the project, collection and optional service
// account key file.
type FirestoreConfig struct {
	Project         string
	Collection      string
	CredentialsFile string
}

func OpenFirestore(ctx context.Context, cfg FirestoreConfig) (*Firestore, error) {
	if strings.TrimSpace(cfg.Project) == "" {
		return nil, fmt.Errorf("firestore project is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = "recipebox"
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, cfg.Project, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &Firestore{client: client, collection: cfg.Collection}, nil
}

func (f *Firestore) Get(ctx context.Context, key string) ([]byte, error) {
	doc, err := f.client.Collection(f.collection).Doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	var slot firestoreSlot
	if err := doc.DataTo(&slot); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return slot.Value, nil
}

func (f *Firestore) Set(ctx context.Context, key string, value []byte) error {
	slot := firestoreSlot{Value: value, UpdatedAt: time.Now().UTC()}
	if _, err := f.client.Collection(f.collection).Doc(key).Set(ctx, slot); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (f *Firestore) Delete(ctx context.Context, key string) error {
	if _, err := f.client.Collection(f.collection).Doc(key).Delete(ctx); err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (f *Firestore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := f.client.Collection(f.collection).Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list keys: %w", err)
		}
		keys = append(keys, doc.Ref.ID)
	}
	slices.Sort(keys)
	return keys, nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}
