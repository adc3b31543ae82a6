package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/investor-interview/backend/internal/config"
	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
)

func sampleSession() interview.Session {
	s := interview.NewSession("3b1f7c3e-0000-4000-8000-000000000001")
	s.CurrentQuestion = interview.Q3
	s.Answers = interview.AnswerSet{
		interview.FieldName: "Ana",
		interview.FieldAge:  44,
	}
	return s
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, "", ttl)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), ":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func storesUnderTest(t *testing.T) map[string]Store {
	memory, err := NewMemoryStore(8, 0)
	require.NoError(t, err)
	redisStore, _ := newRedisStore(t, 0)

	return map[string]Store{
		"memory": memory,
		"redis":  redisStore,
		"sqlite": newSQLiteStore(t),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Load(ctx, DefaultSlot)
			require.ErrorIs(t, err, ErrSessionNotFound)

			want := sampleSession()
			require.NoError(t, store.Save(ctx, DefaultSlot, want))

			got, err := store.Load(ctx, DefaultSlot)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			want.CurrentQuestion = interview.Q4
			want.Answers[interview.FieldFamilySituation] = "single"
			require.NoError(t, store.Save(ctx, DefaultSlot, want))

			got, err = store.Load(ctx, DefaultSlot)
			require.NoError(t, err)
			assert.Equal(t, interview.Q4, got.CurrentQuestion)
			assert.Equal(t, "single", got.Answers[interview.FieldFamilySituation])

			require.NoError(t, store.Clear(ctx, DefaultSlot))
			_, err = store.Load(ctx, DefaultSlot)
			require.ErrorIs(t, err, ErrSessionNotFound)

			// clearing twice is fine
			require.NoError(t, store.Clear(ctx, DefaultSlot))
		})
	}
}

func TestStoreRejectsBadSlot(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, slot := range []string{"", "has space", "a/b"} {
				assert.ErrorIs(t, store.Save(ctx, slot, sampleSession()), ErrInvalidSlot)
				_, err := store.Load(ctx, slot)
				assert.ErrorIs(t, err, ErrInvalidSlot)
				assert.ErrorIs(t, store.Clear(ctx, slot), ErrInvalidSlot)
			}
		})
	}
}

func TestStoreKeepsCompletedSession(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := sampleSession()
			s.Complete = true
			s.CurrentQuestion = interview.Q11
			s.FinalResult = &interview.FinalResult{Type: interview.TypeFinalResult, SelectedPortfolioID: "P1", Rationale: "r"}

			require.NoError(t, store.Save(ctx, "device-1", s))
			got, err := store.Load(ctx, "device-1")
			require.NoError(t, err)
			assert.True(t, got.Complete)
			require.NotNil(t, got.FinalResult)
			assert.Equal(t, "r", got.FinalResult.Rationale)
		})
	}
}

func TestMemoryStoreEvictsOldestSlot(t *testing.T) {
	store, err := NewMemoryStore(2, 0)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", sampleSession()))
	require.NoError(t, store.Save(ctx, "b", sampleSession()))
	require.NoError(t, store.Save(ctx, "c", sampleSession()))

	assert.Equal(t, 2, store.Len())
	_, err = store.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreExpiresEntries(t *testing.T) {
	store, err := NewMemoryStore(4, time.Hour)
	require.NoError(t, err)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, DefaultSlot, sampleSession()))

	now = now.Add(2 * time.Hour)
	_, err = store.Load(ctx, DefaultSlot)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestRedisStoreAppliesTTL(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, DefaultSlot, sampleSession()))
	assert.Equal(t, time.Hour, mr.TTL("interview:session:"+DefaultSlot))

	mr.FastForward(2 * time.Hour)
	_, err := store.Load(ctx, DefaultSlot)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStoreRejectsCorruptEnvelope(t *testing.T) {
	store, mr := newRedisStore(t, 0)
	require.NoError(t, mr.Set("interview:session:"+DefaultSlot, `{"sessionId":"","currentQuestionId":"Q1"}`))

	_, err := store.Load(context.Background(), DefaultSlot)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSessionNotFound))
}

func TestNewSelectsMemoryStore(t *testing.T) {
	store, err := New(context.Background(), config.StoreConfig{Backend: config.StoreMemory, CacheSize: 4})
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*MemoryStore)
	assert.True(t, ok)
}

func TestNewSelectsRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := New(context.Background(), config.StoreConfig{Backend: config.StoreRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*RedisStore)
	assert.True(t, ok)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), config.StoreConfig{Backend: "etcd"})
	require.Error(t, err)
}
