// Package object provides the object storage collaborator used by blob
// blocks, backed by gocloud.dev/blob
package object

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

type (
	// Store is the object storage collaborator interface
	Store interface {
		Read(ctx context.Context, key string) ([]byte, error)
		Write(ctx context.Context, key string, data []byte) error
		Delete(ctx context.Context, key string) (bool, error)
		Exists(ctx context.Context, key string) (bool, error)
		List(ctx context.Context, prefix string) ([]string, error)
	}

	// BlobStore implements Store on a gocloud.dev bucket, supporting any
	// driver registered with blob.OpenBucket
	BlobStore struct {
		bucket *blob.Bucket
		prefix string
	}
)

var (
	ErrNotFound = errors.New("object not found")
	ErrKeyEmpty = errors.New("object key is empty")
	ErrOpen     = errors.New("failed to open bucket")
)

var _ Store = (*BlobStore)(nil)

// NewBlob wraps an open bucket. Keys are stored under prefix
func NewBlob(bucket *blob.Bucket, prefix string) *BlobStore {
	return &BlobStore{bucket: bucket, prefix: prefix}
}

// Open opens the bucket at bucketURL
func Open(ctx context.Context, bucketURL, prefix string) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	return NewBlob(bucket, prefix), nil
}

func (s *BlobStore) Read(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrKeyEmpty
	}
	data, err := s.bucket.ReadAll(ctx, s.keyFor(key))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, err
	}
	return data, nil
}

func (s *BlobStore) Write(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return ErrKeyEmpty
	}
	return s.bucket.WriteAll(ctx, s.keyFor(key), data, nil)
}

// Delete removes the object, reporting whether it existed
func (s *BlobStore) Delete(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrKeyEmpty
	}
	err := s.bucket.Delete(ctx, s.keyFor(key))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *BlobStore) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrKeyEmpty
	}
	return s.bucket.Exists(ctx, s.keyFor(key))
}

// List returns the keys under prefix, with the store prefix stripped
func (s *BlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.bucket.List(&blob.ListOptions{Prefix: s.keyFor(prefix)})
	res := []string{}
	for {
		obj, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return nil, err
		}
		if obj.IsDir {
			continue
		}
		res = append(res, obj.Key[len(s.prefix):])
	}
}

func (s *BlobStore) Close() error {
	return s.bucket.Close()
}

func (s *BlobStore) keyFor(key string) string {
	return s.prefix + key
}
