package mocks

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/mock"
)

// NoSuchKey is the error minio reports for a missing object.
var NoSuchKey = minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}

// Body wraps s as the reader GetObject returns.
func Body(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

// Listing returns a closed channel holding objects, in the form ListObjects
// returns it.
func Listing(objects ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(objects))
	for _, o := range objects {
		ch <- o
	}
	close(ch)
	return ch
}

// RemoveErrors returns a closed channel holding errs, in the form
// RemoveObjects returns it.
func RemoveErrors(errs ...minio.RemoveObjectError) <-chan minio.RemoveObjectError {
	ch := make(chan minio.RemoveObjectError, len(errs))
	for _, e := range errs {
		ch <- e
	}
	close(ch)
	return ch
}

// Client records storage calls for state and archive tests.
type Client struct {
	mock.Mock

	mu      sync.Mutex
	removed []string
}

// Removed returns the keys handed to RemoveObjects so far.
func (m *Client) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}

func (m *Client) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *Client) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return m.Called(ctx, bucketName, opts).Error(0)
}

func (m *Client) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	info, _ := args.Get(0).(minio.UploadInfo)
	return info, args.Error(1)
}

func (m *Client) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	body, _ := args.Get(0).(io.ReadCloser)
	return body, args.Error(1)
}

// ListObjects returns the configured listing or an empty one.
func (m *Client) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	if ch, ok := m.Called(ctx, bucketName, opts).Get(0).(<-chan minio.ObjectInfo); ok {
		return ch
	}
	return Listing()
}

func (m *Client) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return m.Called(ctx, bucketName, objectName, opts).Error(0)
}

// RemoveObjects drains objectsCh into Removed and returns the configured
// errors, or none.
func (m *Client) RemoveObjects(ctx context.Context, bucketName string, objectsCh <-chan minio.ObjectInfo, opts minio.RemoveObjectsOptions) <-chan minio.RemoveObjectError {
	args := m.Called(ctx, bucketName, objectsCh, opts)
	for obj := range objectsCh {
		m.mu.Lock()
		m.removed = append(m.removed, obj.Key)
		m.mu.Unlock()
	}
	if ch, ok := args.Get(0).(<-chan minio.RemoveObjectError); ok {
		return ch
	}
	return RemoveErrors()
}
