package s3

import (
	"context"
	"io"
)

// Object is a readable blob returned from the store. The caller owns the
// stream and must close it.
type Object interface {
	io.ReadCloser
	ContentLength() int64
	ContentType() string
}

type s3Object struct {
	io.ReadCloser
	contentLength int64
	contentType   string
}

func (o *s3Object) ContentLength() int64 {
	return o.contentLength
}

func (o *s3Object) ContentType() string {
	return o.contentType
}

// Storage is the narrow contract the services consume for binary content.
type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (Object, error)
	Copy(ctx context.Context, sourceKey, destKey string) error
	Remove(ctx context.Context, key string) error
	BucketExists(ctx context.Context) (bool, error)
	EnsureBucket(ctx context.Context) error
}
