// Package gcsstore implements a Google Cloud Storage backend.
package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/discochess/omfile/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// objects is the subset of bucket operations the store needs.
type objects interface {
	rangeReader(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error)
	size(ctx context.Context, key string) (int64, error)
}

type bucketObjects struct {
	bucket *storage.BucketHandle
}

func (b bucketObjects) rangeReader(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	return b.bucket.Object(key).NewRangeReader(ctx, offset, length)
}

func (b bucketObjects) size(ctx context.Context, key string) (int64, error) {
	attrs, err := b.bucket.Object(key).Attrs(ctx)
	if err != nil {
		return 0, err
	}
	return attrs.Size, nil
}

// Store is a Google Cloud Storage backend.
type Store struct {
	client  *storage.Client
	objects objects
	prefix  string
}

// New creates a new GCS store.
// The bucket must already exist.
func New(ctx context.Context, bucketName string, opts ...Option) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}

	s := &Store{
		client:  client,
		objects: bucketObjects{bucket: client.Bucket(bucketName)},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = strings.TrimSuffix(prefix, "/")
		if s.prefix != "" {
			s.prefix += "/"
		}
	}
}

// Size returns the object size from its attributes.
func (s *Store) Size(ctx context.Context, name string) (uint64, error) {
	n, err := s.objects.size(ctx, s.key(name))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return 0, fmt.Errorf("%s: %w", name, store.ErrNotFound)
		}
		return 0, fmt.Errorf("reading attrs of %s: %w", name, err)
	}
	return uint64(n), nil
}

// ReadRange reads length bytes at offset with a ranged GET.
func (s *Store) ReadRange(ctx context.Context, name string, offset, length uint64) ([]byte, error) {
	// Check for cancellation before starting.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if length == 0 {
		return []byte{}, nil
	}

	reader, err := s.objects.rangeReader(ctx, s.key(name), int64(offset), int64(length))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%s: %w", name, store.ErrNotFound)
		}
		return nil, fmt.Errorf("creating range reader: %w", err)
	}
	defer reader.Close()

	buf := make([]byte, length)
	if _, err := io.ReadFull(reader, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", name, store.ErrOutOfRange)
		}
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return buf, nil
}

// Close releases resources.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// key returns the full object key for a name.
func (s *Store) key(name string) string {
	return s.prefix + name
}
