package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/williamokano/objstore/pkg/storage"
	"github.com/williamokano/objstore/pkg/storage/mocks"
)

func TestBatchUploader_Upload(t *testing.T) {
	t.Run("all_succeed_in_input_order", func(t *testing.T) {
		client, backend := newTestClient(t, testConfig())
		conn := mocks.NewMockConn(t)
		conn.On("Close").Return(nil).Times(3)
		conn.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(3)
		backend.On("Connect", mock.Anything).Return(conn, nil).Times(3)

		paths := []string{
			writeLocal(t, "a", "1"),
			writeLocal(t, "b", "22"),
			writeLocal(t, "c", "333"),
		}

		uploader := storage.NewBatchUploader(client, 2, zerolog.Nop())
		results := uploader.Upload(context.Background(), paths)

		require.Len(t, results, 3)
		for i, result := range results {
			assert.Equal(t, paths[i], result.Path)
			assert.Equal(t, filepath.Base(paths[i]), result.Key)
			assert.Equal(t, storage.UploadCompleted, result.Outcome)
			assert.NoError(t, result.Error)
		}
	})

	t.Run("partial_failure_does_not_stop_others", func(t *testing.T) {
		client, backend := newTestClient(t, testConfig())
		conn := mocks.NewMockConn(t)
		conn.On("Close").Return(nil).Times(3)
		conn.On("Put", mock.Anything, "a", mock.Anything, mock.Anything).Return(nil).Once()
		conn.On("Put", mock.Anything, "b", mock.Anything, mock.Anything).Return(storage.ErrConnFailed).Once()
		conn.On("Put", mock.Anything, "c", mock.Anything, mock.Anything).Return(nil).Once()
		backend.On("Connect", mock.Anything).Return(conn, nil).Times(3)

		paths := []string{
			writeLocal(t, "a", "1"),
			writeLocal(t, "b", "2"),
			writeLocal(t, "c", "3"),
		}

		results := storage.NewBatchUploader(client, 3, zerolog.Nop()).Upload(context.Background(), paths)

		require.Len(t, results, 3)
		assert.Equal(t, storage.UploadCompleted, results[0].Outcome)
		assert.Equal(t, storage.UploadFailed, results[1].Outcome)
		assert.ErrorIs(t, results[1].Error, storage.ErrConnFailed)
		assert.Equal(t, storage.UploadCompleted, results[2].Outcome)
	})

	t.Run("missing_files_are_skipped", func(t *testing.T) {
		client, _ := newTestClient(t, testConfig())

		results := storage.NewBatchUploader(client, 0, zerolog.Nop()).
			Upload(context.Background(), []string{filepath.Join(t.TempDir(), "gone.txt")})

		require.Len(t, results, 1)
		assert.Equal(t, storage.UploadSkipped, results[0].Outcome)
		assert.NoError(t, results[0].Error)
	})

	t.Run("empty_paths", func(t *testing.T) {
		client, _ := newTestClient(t, testConfig())

		results := storage.NewBatchUploader(client, 3, zerolog.Nop()).Upload(context.Background(), nil)
		assert.Empty(t, results)
	})

	t.Run("parallel_execution", func(t *testing.T) {
		client, backend := newTestClient(t, testConfig())
		conn := mocks.NewMockConn(t)
		conn.On("Close").Return(nil).Times(2)
		conn.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				time.Sleep(100 * time.Millisecond)
			}).
			Return(nil).Times(2)
		backend.On("Connect", mock.Anything).Return(conn, nil).Times(2)

		paths := []string{writeLocal(t, "slow1", "x"), writeLocal(t, "slow2", "y")}

		start := time.Now()
		results := storage.NewBatchUploader(client, 2, zerolog.Nop()).Upload(context.Background(), paths)
		elapsed := time.Since(start)

		// ~100ms when parallel, ~200ms when serial
		assert.Less(t, elapsed, 180*time.Millisecond, "Uploads should run in parallel")
		require.Len(t, results, 2)
		for _, result := range results {
			assert.Equal(t, storage.UploadCompleted, result.Outcome)
			assert.Greater(t, result.Duration, time.Duration(0))
		}
	})

	t.Run("context_cancellation", func(t *testing.T) {
		client, backend := newTestClient(t, testConfig())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		results := storage.NewBatchUploader(client, 1, zerolog.Nop()).
			Upload(ctx, []string{writeLocal(t, "a", "1"), writeLocal(t, "b", "2")})

		require.Len(t, results, 2)
		for _, result := range results {
			assert.Equal(t, storage.UploadFailed, result.Outcome)
			assert.ErrorIs(t, result.Error, context.Canceled)
		}
		backend.AssertNotCalled(t, "Connect", mock.Anything)
	})
}
