package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/session"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

func sampleSession() session.Session {
	s := session.New(weather.UnitsImperial)
	s.AddSearch("Paris", 0)
	s.AddSearch("Tokyo", 0)
	q := weather.CityQuery("Tokyo")
	s.LastLocation = &q
	s.UseMock = true
	return s
}

// exerciseStore checks the behaviour every backend must share.
func exerciseStore(t *testing.T, st session.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := st.Load(ctx, "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)

	s := sampleSession()
	require.NoError(t, st.Save(ctx, s))

	got, err := st.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, weather.UnitsImperial, got.Units)
	assert.Equal(t, []string{"Tokyo", "Paris"}, got.SearchHistory)
	assert.True(t, got.UseMock)
	require.NotNil(t, got.LastLocation)
	assert.Equal(t, "Tokyo", got.LastLocation.City)

	s.Units = weather.UnitsMetric
	require.NoError(t, st.Save(ctx, s))
	got, err = st.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, weather.UnitsMetric, got.Units)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(time.Hour))
}

func TestMemoryStoreRetention(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore(time.Hour)

	old := sampleSession()
	old.UpdatedAt = time.Now().Add(-2 * time.Hour)
	st.data[old.ID] = old

	_, err := st.Load(ctx, old.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)

	fresh := sampleSession()
	require.NoError(t, st.Save(ctx, fresh))
	assert.NotContains(t, st.data, old.ID)
}

func TestMemoryStorePrune(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore(0)

	old := sampleSession()
	old.UpdatedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, st.Save(ctx, old))
	require.NoError(t, st.Save(ctx, sampleSession()))

	n, err := st.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, st.data, 1)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore(0)
	s := sampleSession()
	require.NoError(t, st.Save(ctx, s))

	got, err := st.Load(ctx, s.ID)
	require.NoError(t, err)
	got.SearchHistory[0] = "changed"

	again, err := st.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tokyo", again.SearchHistory[0])
}

func TestSQLiteStore(t *testing.T) {
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	defer st.Close()

	exerciseStore(t, st)

	ctx := context.Background()
	old := sampleSession()
	old.UpdatedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, st.Save(ctx, old))

	n, err := st.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = st.Load(ctx, old.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/15"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	st, err := NewRedisStore(ctx, url, time.Minute)
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	defer st.Close()

	exerciseStore(t, st)
}

func TestRedisStoreFromClientClampsTTL(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	st := NewRedisStoreFromClient(client, -time.Second)
	assert.Zero(t, st.ttl)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	st, err := Open(ctx, Options{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, st)

	st, err = Open(ctx, Options{Backend: BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "s.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, st)
	require.NoError(t, st.Close())

	_, err = Open(ctx, Options{Backend: "etcd"})
	assert.Error(t, err)
}
