package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/homura-labs/storefront/pkg/db/models"
	pkgredis "github.com/homura-labs/storefront/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "cartId")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "cartId", "gid://shopify/Cart/1"))
	value, err := store.Get(ctx, "cartId")
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Cart/1", value)

	require.NoError(t, store.Set(ctx, "cartId", "gid://shopify/Cart/2"))
	value, err = store.Get(ctx, "cartId")
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Cart/2", value)

	require.NoError(t, store.Delete(ctx, "cartId"))
	_, err = store.Get(ctx, "cartId")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, "never-set"))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory(time.Hour))
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemory(time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(context.Background(), "k", "v"))
	now = now.Add(2 * time.Minute)
	_, err := store.Get(context.Background(), "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorePurgeExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(time.Hour)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "session-a:cartId", "cart-a"))
	require.NoError(t, store.Set(ctx, "session-a:cartBackup", "{}"))
	now = now.Add(2 * time.Hour)
	require.NoError(t, store.Set(ctx, "session-b:cartId", "cart-b"))

	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)
	assert.Len(t, store.entries, 1)

	got, err := store.Get(ctx, "session-b:cartId")
	require.NoError(t, err)
	assert.Equal(t, "cart-b", got)
}

func TestMemoryStoreExpiredReadKeepsConcurrentWrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	armed := false
	store.now = func() time.Time {
		if armed {
			armed = false
			require.NoError(t, store.Set(ctx, "k", "fresh"))
		}
		return now
	}

	require.NoError(t, store.Set(ctx, "k", "old"))
	now = now.Add(2 * time.Minute)
	armed = true

	_, err := store.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}

func TestScopedIsolatesSessions(t *testing.T) {
	ctx := context.Background()
	shared := NewMemory(0)
	a := Scoped(shared, "session-a")
	b := Scoped(shared, "session-b")

	require.NoError(t, a.Set(ctx, "cartId", "cart-a"))
	_, err := b.Get(ctx, "cartId")
	require.ErrorIs(t, err, ErrNotFound)

	raw, err := shared.Get(ctx, "session-a:cartId")
	require.NoError(t, err)
	assert.Equal(t, "cart-a", raw)

	exerciseStore(t, b)
}

func newSQLiteStore(t *testing.T) (*SQL, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.SessionValue{}))
	return NewSQL(conn, time.Hour), conn
}

func TestSQLStore(t *testing.T) {
	store, _ := newSQLiteStore(t)
	exerciseStore(t, store)
	require.NoError(t, store.Ping(context.Background()))
}

func TestSQLStoreExpiryAndPurge(t *testing.T) {
	store, conn := newSQLiteStore(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "old", "1"))
	now = now.Add(2 * time.Hour)
	require.NoError(t, store.Set(ctx, "fresh", "2"))

	_, err := store.Get(ctx, "old")
	require.ErrorIs(t, err, ErrNotFound)

	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	var count int64
	require.NoError(t, conn.Model(&models.SessionValue{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

type fakeRedis struct {
	data    map[string]string
	ttls    map[string]time.Duration
	pingErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) Ping(context.Context) error { return f.pingErr }

func (f *fakeRedis) SessionKey(key string) string { return (&pkgredis.Client{}).SessionKey(key) }

func TestRedisStore(t *testing.T) {
	fake := newFakeRedis()
	store := NewRedis(fake, 30*time.Minute)
	exerciseStore(t, store)

	require.NoError(t, store.Set(context.Background(), "s1:cartId", "c"))
	assert.Equal(t, "c", fake.data["sf:session:s1:cartId"])
	assert.Equal(t, 30*time.Minute, fake.ttls["sf:session:s1:cartId"])
}

func TestRedisStorePropagatesErrors(t *testing.T) {
	fake := newFakeRedis()
	fake.pingErr = errors.New("down")
	store := NewRedis(fake, time.Minute)
	require.Error(t, store.Ping(context.Background()))
}
