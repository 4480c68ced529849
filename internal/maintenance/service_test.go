package maintenance

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/homura-labs/storefront/internal/storage"
	"github.com/homura-labs/storefront/pkg/logger"
	"github.com/homura-labs/storefront/pkg/metrics"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "maintenance-test", Output: io.Discard})
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "ok"}
	failing := &testJob{name: "fail", err: errors.New("boom")}
	reg := prometheus.NewRegistry()

	svc, err := NewService(ServiceParams{Logger: testLogger(), Jobs: []Job{failing, nil, ok}, Metrics: metrics.NewJobMetrics(reg)})
	require.NoError(t, err)
	require.NoError(t, svc.runCycle(context.Background()))

	require.Equal(t, 1, failing.runs)
	require.Equal(t, 1, ok.runs)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	lock := &LocalLock{}
	held, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, held)

	job := &testJob{name: "job"}
	svc, err := NewService(ServiceParams{Logger: testLogger(), Jobs: []Job{job}, Lock: lock})
	require.NoError(t, err)
	require.NoError(t, svc.runCycle(context.Background()))
	require.Zero(t, job.runs)

	require.NoError(t, lock.Release(context.Background()))
	require.NoError(t, svc.runCycle(context.Background()))
	require.Equal(t, 1, job.runs)
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "job"}
	svc, err := NewService(ServiceParams{Logger: testLogger(), Jobs: []Job{job}, Interval: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type fakeRedis struct {
	values map[string]string
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func TestRedisLockReleasesOnlyOwnedKey(t *testing.T) {
	store := &fakeRedis{values: map[string]string{}}
	first, err := NewRedisLock(store, "lock:maintenance", time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "lock:maintenance", time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(context.Background())
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, second.Release(context.Background()))
	require.Contains(t, store.values, "lock:maintenance")

	require.NoError(t, first.Release(context.Background()))
	require.NotContains(t, store.values, "lock:maintenance")
}

type fakePurger struct {
	deleted int64
	err     error
	calls   int
}

func (f *fakePurger) PurgeExpired(context.Context) (int64, error) {
	f.calls++
	return f.deleted, f.err
}

func TestSessionPurgeJob(t *testing.T) {
	purger := &fakePurger{deleted: 3}
	job, err := NewSessionPurgeJob(testLogger(), purger)
	require.NoError(t, err)
	require.Equal(t, "session-purge", job.Name())
	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, 1, purger.calls)

	purger.err = errors.New("db down")
	require.Error(t, job.Run(context.Background()))

	_, err = NewSessionPurgeJob(testLogger(), nil)
	require.Error(t, err)
}

func TestSessionPurgeJobReclaimsMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory(time.Nanosecond)
	require.NoError(t, store.Set(ctx, "session-a:cartId", "cart-a"))
	time.Sleep(time.Millisecond)

	var purger Purger = store
	job, err := NewSessionPurgeJob(testLogger(), purger)
	require.NoError(t, err)
	require.NoError(t, job.Run(ctx))

	deleted, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, deleted)
}
