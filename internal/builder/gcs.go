package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// ErrInvalidGCSPath is returned for paths not of the form gs://bucket/prefix.
var ErrInvalidGCSPath = errors.New("builder: invalid GCS path")

// GCSUploader publishes a build directory to Google Cloud Storage.
type GCSUploader struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

// NewGCSUploader creates a new GCS uploader.
// gcsPath should be in the format "gs://bucket/prefix".
func NewGCSUploader(ctx context.Context, gcsPath string) (*GCSUploader, error) {
	bucket, prefix, err := parseGCSPath(gcsPath)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}

	return &GCSUploader{
		client: client,
		bucket: client.Bucket(bucket),
		prefix: prefix,
	}, nil
}

// parseGCSPath parses "gs://bucket/prefix" into bucket and prefix.
func parseGCSPath(gcsPath string) (bucket, prefix string, err error) {
	path, ok := strings.CutPrefix(gcsPath, "gs://")
	if !ok {
		return "", "", fmt.Errorf("%q must start with gs://: %w", gcsPath, ErrInvalidGCSPath)
	}

	bucket, prefix, _ = strings.Cut(path, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%q has no bucket name: %w", gcsPath, ErrInvalidGCSPath)
	}
	if prefix = strings.TrimSuffix(prefix, "/"); prefix != "" {
		prefix += "/"
	}
	return bucket, prefix, nil
}

// Upload uploads every container listed in localDir's manifest, then the
// manifest itself, then deletes containers under the prefix that the
// manifest no longer lists. Readers see either the old or the new manifest,
// and every container either lists is present.
func (u *GCSUploader) Upload(ctx context.Context, localDir string, progress ProgressFunc) error {
	m, err := ReadManifest(localDir)
	if err != nil {
		return err
	}

	var written atomic.Int64
	keep := make(map[string]bool, len(m.Arrays))
	for _, a := range m.Arrays {
		if err := u.uploadFile(ctx, filepath.Join(localDir, a.File), u.prefix+a.File, &written); err != nil {
			return fmt.Errorf("uploading %s: %w", a.File, err)
		}
		keep[a.File] = true
		if progress != nil {
			progress(Progress{Phase: PhaseUpload, BytesWritten: written.Load()})
		}
	}

	manifestPath := filepath.Join(localDir, ManifestFilename)
	if err := u.uploadFile(ctx, manifestPath, u.prefix+ManifestFilename, &written); err != nil {
		return fmt.Errorf("uploading manifest: %w", err)
	}

	if err := u.cleanStale(ctx, keep); err != nil {
		return fmt.Errorf("cleaning stale containers: %w", err)
	}

	if progress != nil {
		progress(Progress{Phase: PhaseUpload, BytesWritten: written.Load()})
	}
	return nil
}

// cleanStale deletes containers under the prefix that are not in keep.
func (u *GCSUploader) cleanStale(ctx context.Context, keep map[string]bool) error {
	it := u.bucket.Objects(ctx, &storage.Query{Prefix: u.prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("listing objects: %w", err)
		}

		name := strings.TrimPrefix(attrs.Name, u.prefix)
		if !isStale(name, keep) {
			continue
		}
		if err := u.bucket.Object(attrs.Name).Delete(ctx); err != nil {
			return fmt.Errorf("deleting %s: %w", attrs.Name, err)
		}
	}
}

// isStale reports whether an object name relative to the prefix is a
// container missing from keep. Objects in subdirectories are left alone.
func isStale(name string, keep map[string]bool) bool {
	if strings.Contains(name, "/") || filepath.Ext(name) != ContainerExt {
		return false
	}
	return !keep[name]
}

// uploadFile copies a local file to an object.
func (u *GCSUploader) uploadFile(ctx context.Context, localPath, key string, written *atomic.Int64) error {
	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := u.bucket.Object(key).NewWriter(ctx)
	if _, err := io.Copy(newProgressWriter(writer, written), file); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}

// Close releases resources.
func (u *GCSUploader) Close() error {
	return u.client.Close()
}
