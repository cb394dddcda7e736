package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

const uploadTimeout = 2 * time.Minute

// Bucket is the part of an object store the pipeline needs.
type Bucket interface {
	List(ctx context.Context, prefix string) ([]string, error)
	NewReader(ctx context.Context, object string) (io.ReadCloser, error)
	NewWriter(ctx context.Context, object, contentType string) io.WriteCloser
}

// Store reads statements from and writes ledgers to one bucket.
type Store struct {
	name   string
	bucket Bucket
	client *storage.Client
}

// NewStore opens a Cloud Storage client using Application Default Credentials.
func NewStore(ctx context.Context, bucketName string) (*Store, error) {
	if bucketName == "" {
		return nil, errors.New("bucket name is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Store{
		name:   bucketName,
		bucket: &gcsBucket{handle: client.Bucket(bucketName)},
		client: client,
	}, nil
}

// NewStoreWithBucket wraps an existing bucket implementation.
func NewStoreWithBucket(name string, bucket Bucket) *Store {
	return &Store{name: name, bucket: bucket}
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Store) Name() string { return s.name }

// URI returns the gs:// address of object.
func (s *Store) URI(object string) string {
	return "gs://" + s.name + "/" + object
}

// List returns the PDF objects under prefix, sorted by name.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	objects, err := s.bucket.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.URI(prefix), err)
	}
	pdfs := make([]string, 0, len(objects))
	for _, object := range objects {
		if strings.EqualFold(path.Ext(object), ".pdf") {
			pdfs = append(pdfs, object)
		}
	}
	sort.Strings(pdfs)
	return pdfs, nil
}

func (s *Store) Fetch(ctx context.Context, object string) ([]byte, error) {
	r, err := s.bucket.NewReader(ctx, object)
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader %s: %w", s.URI(object), err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object %s: %w", s.URI(object), err)
	}
	return data, nil
}

func (s *Store) Upload(ctx context.Context, object, contentType string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.bucket.NewWriter(ctx, object, contentType)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy to GCS writer: %w", err)
	}
	// Close finalizes the upload
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload %s: %w", s.URI(object), err)
	}
	return nil
}

type gcsBucket struct {
	handle *storage.BucketHandle
}

func (b *gcsBucket) List(ctx context.Context, prefix string) ([]string, error) {
	it := b.handle.Objects(ctx, &storage.Query{Prefix: prefix})
	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

func (b *gcsBucket) NewReader(ctx context.Context, object string) (io.ReadCloser, error) {
	return b.handle.Object(object).NewReader(ctx)
}

func (b *gcsBucket) NewWriter(ctx context.Context, object, contentType string) io.WriteCloser {
	w := b.handle.Object(object).NewWriter(ctx)
	w.ContentType = contentType
	return w
}
