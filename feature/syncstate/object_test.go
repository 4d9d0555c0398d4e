package syncstate

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"ldap2moodle/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestObjectStore_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing Object", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "state", "sync/users.json", mock.Anything).Return(nil, mocks.NoSuchKey)

		ts, err := NewObjectStore(client, "state", "sync").Load(ctx, "users")
		require.NoError(t, err)
		assert.True(t, ts.IsZero())
	})

	t.Run("Existing Object", func(t *testing.T) {
		client := new(mocks.Client)
		body := `{"domain":"users","watermark":"2026-03-01T02:00:00Z"}`
		client.On("GetObject", mock.Anything, "state", "sync/users.json", mock.Anything).
			Return(mocks.Body(body), nil)

		ts, err := NewObjectStore(client, "state", "sync").Load(ctx, "users")
		require.NoError(t, err)
		assert.True(t, time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC).Equal(ts))
	})

	t.Run("Storage Failure", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "state", "sync/users.json", mock.Anything).Return(nil, assert.AnError)

		_, err := NewObjectStore(client, "state", "sync").Load(ctx, "users")
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("Corrupt Object", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "state", "sync/users.json", mock.Anything).
			Return(mocks.Body("{"), nil)

		_, err := NewObjectStore(client, "state", "sync").Load(ctx, "users")
		assert.ErrorContains(t, err, "corrupt state")
	})
}

func TestObjectStore_Save(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "state", "sync/users.json", mock.Anything).Return(nil, mocks.NoSuchKey)

	var written []byte
	client.On("PutObject", mock.Anything, "state", "sync/users.json", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			written, _ = io.ReadAll(args.Get(3).(io.Reader))
		}).
		Return(minio.UploadInfo{}, nil)

	ts := time.Date(2026, 3, 1, 3, 0, 0, 0, time.FixedZone("CET", 3600))
	require.NoError(t, NewObjectStore(client, "state", "sync").Save(ctx, "users", ts))

	var st objectState
	require.NoError(t, json.Unmarshal(written, &st))
	assert.Equal(t, "users", st.Domain)
	assert.True(t, time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC).Equal(st.Watermark))
	client.AssertExpectations(t)
}

func TestObjectStore_SaveReport(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	body := `{"domain":"users","watermark":"2026-02-01T00:00:00Z"}`
	client.On("GetObject", mock.Anything, "state", "sync/users.json", mock.Anything).
		Return(mocks.Body(body), nil)

	var state []byte
	client.On("PutObject", mock.Anything, "state", "sync/users.json", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			state, _ = io.ReadAll(args.Get(3).(io.Reader))
		}).
		Return(minio.UploadInfo{}, nil)
	client.On("PutObject", mock.Anything, "state",
		"sync/reports/users/20260301T020000Z-6f1c1c1e-1d7a-4d0b-9a57-8f1c2b8e2d10.json",
		mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	require.NoError(t, NewObjectStore(client, "state", "sync").SaveReport(ctx, sampleReport("users")))

	var st objectState
	require.NoError(t, json.Unmarshal(state, &st))
	assert.True(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC).Equal(st.Watermark), "report keeps the watermark")
	require.NotNil(t, st.LastRun)
	assert.Equal(t, 1, st.LastRun.Suspended)
	client.AssertExpectations(t)
}

func TestObjectStore_Reset(t *testing.T) {
	ctx := context.Background()

	client := new(mocks.Client)
	client.On("RemoveObject", mock.Anything, "state", "sync/users.json", mock.Anything).Return(nil).Once()
	client.On("RemoveObject", mock.Anything, "state", "sync/gone.json", mock.Anything).Return(mocks.NoSuchKey).Once()
	client.On("RemoveObject", mock.Anything, "state", "sync/locked.json", mock.Anything).Return(assert.AnError).Once()

	store := NewObjectStore(client, "state", "sync")
	assert.NoError(t, store.Reset(ctx, "users"))
	assert.NoError(t, store.Reset(ctx, "gone"))
	assert.ErrorIs(t, store.Reset(ctx, "locked"), assert.AnError)
	client.AssertExpectations(t)
}

func TestObjectStore_Reports(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)

	client.On("ListObjects", mock.Anything, "state", minio.ListObjectsOptions{Prefix: "sync/reports/users/", Recursive: true}).
		Return(mocks.Listing(
			minio.ObjectInfo{Key: "sync/reports/users/20260302T020000Z-b.json", Size: 20},
			minio.ObjectInfo{Key: "sync/reports/users/20260301T020000Z-a.json", Size: 10},
		))
	client.On("RemoveObjects", mock.Anything, "state", mock.Anything, mock.Anything).
		Return(mocks.RemoveErrors(
			minio.RemoveObjectError{ObjectName: "sync/reports/users/20260302T020000Z-b.json", Err: assert.AnError},
		))

	store := NewObjectStore(client, "state", "sync")

	n, err := store.PurgeReports(ctx, "users")
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, err, assert.AnError)
	assert.ErrorContains(t, err, "20260302T020000Z-b.json")
	assert.Equal(t, []string{
		"sync/reports/users/20260301T020000Z-a.json",
		"sync/reports/users/20260302T020000Z-b.json",
	}, client.Removed())
}

func TestObjectStore_PurgeReports(t *testing.T) {
	ctx := context.Background()

	t.Run("Nothing Archived", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("ListObjects", mock.Anything, "state", mock.Anything).Return(mocks.Listing())

		n, err := NewObjectStore(client, "state", "sync").PurgeReports(ctx, "users")
		require.NoError(t, err)
		assert.Zero(t, n)
		client.AssertNotCalled(t, "RemoveObjects", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("All Removed", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("ListObjects", mock.Anything, "state", mock.Anything).
			Return(mocks.Listing(minio.ObjectInfo{Key: "sync/reports/users/20260301T020000Z-a.json"}))
		client.On("RemoveObjects", mock.Anything, "state", mock.Anything, mock.Anything).Return(nil)

		n, err := NewObjectStore(client, "state", "sync").PurgeReports(ctx, "users")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, []string{"sync/reports/users/20260301T020000Z-a.json"}, client.Removed())
	})
}

func TestObjectStore_ReportsOrder(t *testing.T) {
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "state", mock.Anything).Return(mocks.Listing(
		minio.ObjectInfo{Key: "sync/reports/users/20260303T020000Z-c.json"},
		minio.ObjectInfo{Key: "sync/reports/users/20260301T020000Z-a.json"},
		minio.ObjectInfo{Key: "sync/reports/users/20260302T020000Z-b.json"},
	))

	reports, err := NewObjectStore(client, "state", "sync").Reports(context.Background(), "users")
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, "sync/reports/users/20260301T020000Z-a.json", reports[0].Name)
	assert.Equal(t, "sync/reports/users/20260303T020000Z-c.json", reports[2].Name)
}
