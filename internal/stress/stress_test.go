package stress

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cachemgr/internal/cache"
	cmerrors "cachemgr/pkg/errors"
)

func TestRun_OriginalWorkload(t *testing.T) {
	for _, optimistic := range []bool{false, true} {
		c, err := cache.New(50, cache.WithOptimisticGet(optimistic))
		require.NoError(t, err)

		report, err := Run(context.Background(), c, Config{
			Writers:      4,
			Readers:      8,
			OpsPerWorker: 1000,
			KeySpace:     100,
			DeleteEvery:  200,
			Seed:         42,
		}, zaptest.NewLogger(t))
		require.NoError(t, err)

		assert.Equal(t, int64(4000), report.Puts)
		assert.Equal(t, int64(4*5), report.Deletes+report.NotFound)
		assert.Equal(t, int64(8000), report.Hits+report.Misses)
		assert.LessOrEqual(t, report.FinalSize, 50)

		c.Destroy()
	}
}

func TestRun_InvalidArguments(t *testing.T) {
	_, err := Run(context.Background(), nil, Config{KeySpace: 1}, nil)
	assert.ErrorIs(t, err, cmerrors.ErrInvalidArgument)

	c, err := cache.New(1)
	require.NoError(t, err)
	defer c.Destroy()

	_, err = Run(context.Background(), c, Config{Writers: 1, KeySpace: 0}, nil)
	assert.ErrorIs(t, err, cmerrors.ErrInvalidArgument)
}

func TestRun_Cancelled(t *testing.T) {
	c, err := cache.New(10)
	require.NoError(t, err)
	defer c.Destroy()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Run(ctx, c, Config{Writers: 2, Readers: 2, OpsPerWorker: 1000, KeySpace: 10}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), report.Puts)
}

// failingStore rejects puts after a number of calls
type failingStore struct {
	puts  atomic.Int64
	after int64
}

var errBoom = errors.New("boom")

func (s *failingStore) Put(key, value string) error {
	if s.puts.Add(1) > s.after {
		return errBoom
	}
	return nil
}
func (s *failingStore) Get(string) (string, error) { return "", cmerrors.ErrMiss }
func (s *failingStore) Delete(string) error        { return cmerrors.ErrNotFound }
func (s *failingStore) Len() int                   { return 0 }
func (s *failingStore) Cap() int                   { return 1 }
func (s *failingStore) Check() error               { return nil }

func TestRun_PropagatesWorkerError(t *testing.T) {
	store := &failingStore{after: 10}
	_, err := Run(context.Background(), store, Config{Writers: 3, Readers: 1, OpsPerWorker: 100, KeySpace: 5, DeleteEvery: 3}, nil)
	assert.ErrorIs(t, err, errBoom)
}

// corruptStore reports a structural problem after a clean run
type corruptStore struct{ failingStore }

func (s *corruptStore) Check() error { return cmerrors.ErrInconsistent }

func TestRun_ReportsFailedCheck(t *testing.T) {
	store := &corruptStore{failingStore{after: 1 << 30}}
	_, err := Run(context.Background(), store, Config{Writers: 1, OpsPerWorker: 10, KeySpace: 5}, nil)
	assert.ErrorIs(t, err, cmerrors.ErrInconsistent)
}

func TestRun_FirstErrorStopsOtherWorkers(t *testing.T) {
	const ops = 1_000_000
	store := &failingStore{after: 0}

	report, err := Run(context.Background(), store, Config{Writers: 1, Readers: 2, OpsPerWorker: ops, KeySpace: 5}, nil)
	require.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "writer 0")
	assert.Less(t, report.Misses, int64(2*ops))
}
