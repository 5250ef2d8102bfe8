// Package gcs wraps the Cloud Storage operations plumber needs: parsing
// gs:// paths, archiving generated pipeline scripts, and basic object
// listing for template buckets.
package gcs

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// ParsePath splits a gs://bucket/prefix path into bucket and prefix. The
// prefix may be empty; the scheme and bucket are required.
func ParsePath(p string) (bucket, prefix string, err error) {
	const scheme = "gs://"
	if !strings.HasPrefix(p, scheme) {
		return "", "", fmt.Errorf("path must start with %q: %s", scheme, p)
	}
	rest := strings.TrimPrefix(p, scheme)
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("path has no bucket: %s", p)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// ScriptObject builds the archive object name for a generated pipeline
// script: <prefix>/generated_pipelines/<job>-<8 hex chars>.py.
func ScriptObject(prefix, jobName string) string {
	name := fmt.Sprintf("%s-%s.py", jobName, uuid.NewString()[:8])
	return path.Join(prefix, "generated_pipelines", name)
}

// Store is a thin Cloud Storage wrapper.
type Store struct {
	client *storage.Client
	log    *zap.Logger
}

// NewStore connects to Cloud Storage.
func NewStore(ctx context.Context, log *zap.Logger, opts ...option.ClientOption) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &Store{client: client, log: log}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Upload writes data to gs://bucket/object.
func (s *Store) Upload(ctx context.Context, bucket, object, contentType string, data []byte) error {
	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", bucket, object, err)
	}
	return nil
}

// Download reads gs://bucket/object in full.
func (s *Store) Download(ctx context.Context, bucket, object string) ([]byte, error) {
	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w", bucket, object, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", bucket, object, err)
	}
	return data, nil
}

// List returns the object names under gs://bucket/prefix.
func (s *Store) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	it := s.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s/%s: %w", bucket, prefix, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

// Buckets lists the bucket names in a project.
func (s *Store) Buckets(ctx context.Context, projectID string) ([]string, error) {
	it := s.client.Buckets(ctx, projectID)

	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list buckets in %s: %w", projectID, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

// CreateBucket creates a bucket in the given project and location.
func (s *Store) CreateBucket(ctx context.Context, projectID, bucket, location string) error {
	attrs := &storage.BucketAttrs{Location: location}
	if err := s.client.Bucket(bucket).Create(ctx, projectID, attrs); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

// DeleteBucket removes an empty bucket.
func (s *Store) DeleteBucket(ctx context.Context, bucket string) error {
	if err := s.client.Bucket(bucket).Delete(ctx); err != nil {
		return fmt.Errorf("delete bucket %s: %w", bucket, err)
	}
	return nil
}

// DeleteObject removes gs://bucket/object.
func (s *Store) DeleteObject(ctx context.Context, bucket, object string) error {
	if err := s.client.Bucket(bucket).Object(object).Delete(ctx); err != nil {
		return fmt.Errorf("delete gs://%s/%s: %w", bucket, object, err)
	}
	return nil
}

// UploadDir uploads every regular file under dir to gs://bucket/prefix,
// preserving the relative layout. Returns the uploaded object names.
func (s *Store) UploadDir(ctx context.Context, bucket, prefix, dir string) ([]string, error) {
	var objects []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		object := path.Join(prefix, filepath.ToSlash(rel))
		if err := s.Upload(ctx, bucket, object, "application/octet-stream", data); err != nil {
			return err
		}
		objects = append(objects, object)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upload dir %s: %w", dir, err)
	}
	return objects, nil
}

// ArchiveScript uploads a generated pipeline script under the bucket
// path's generated_pipelines folder and returns its full gs:// path.
func (s *Store) ArchiveScript(ctx context.Context, bucketPath, jobName string, code []byte) (string, error) {
	bucket, prefix, err := ParsePath(bucketPath)
	if err != nil {
		return "", err
	}
	object := ScriptObject(prefix, jobName)
	if err := s.Upload(ctx, bucket, object, "text/x-python", code); err != nil {
		return "", err
	}

	full := fmt.Sprintf("gs://%s/%s", bucket, object)
	s.log.Debug("archived pipeline script", zap.String("path", full))
	return full, nil
}
