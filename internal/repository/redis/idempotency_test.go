package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyLifecycle(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewIdempotencyStore(db, 2*time.Hour)
	ctx := context.Background()

	key := KeyIdemPurchase(7, "client-key-1")

	// First request takes the lock.
	mock.ExpectSetNX(key, "LOCK", 30*time.Second).SetVal(true)
	ok, err := s.AcquireLock(ctx, key, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	// A concurrent retry sees the lock and no result yet.
	mock.ExpectGet(key).SetVal("LOCK")
	_, found, err := s.GetResult(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	mock.ExpectGet(key).SetVal("LOCK")
	locked, err := s.IsLocked(ctx, key)
	require.NoError(t, err)
	assert.True(t, locked)

	// The winner stores its response under the full TTL.
	mock.ExpectSet(key, `RES:{"success":true}`, 2*time.Hour).SetVal("OK")
	require.NoError(t, s.SaveResult(ctx, key, `{"success":true}`))

	// Later retries replay it.
	mock.ExpectGet(key).SetVal(`RES:{"success":true}`)
	payload, found, err := s.GetResult(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"success":true}`, payload)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyUnknownKey(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewIdempotencyStore(db, time.Hour)
	ctx := context.Background()

	key := KeyIdemPurchase(7, "never-seen")

	mock.ExpectGet(key).RedisNil()
	_, found, err := s.GetResult(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	mock.ExpectGet(key).RedisNil()
	locked, err := s.IsLocked(ctx, key)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestIdempotencyRelease(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewIdempotencyStore(db, time.Hour)

	key := KeyIdemPurchase(7, "failed-run")
	mock.ExpectDel(key).SetVal(1)
	require.NoError(t, s.Release(context.Background(), key))

	assert.NoError(t, mock.ExpectationsWereMet())
}
