package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedEvent struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

func TestGetStringMissAndHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db)
	ctx := context.Background()

	mock.ExpectGet("k").RedisNil()
	_, ok, err := c.GetString(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectGet("k").SetVal("v")
	v, ok, err := c.GetString(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrSetJSONLoadsOnMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db)
	ctx := context.Background()

	key := KeyEventSummary(7)
	want := cachedEvent{ID: 7, Title: "Gala Final"}

	// Outer miss, singleflight re-check miss, then the loader result is
	// written back.
	mock.ExpectGet(key).RedisNil()
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, `{"id":7,"title":"Gala Final"}`, time.Minute).SetVal("OK")

	loaderCalls := 0
	got, err := GetOrSetJSON(ctx, c, key, time.Minute, func(context.Context) (cachedEvent, error) {
		loaderCalls++
		return want, nil
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, loaderCalls)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrSetJSONServesCached(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db)
	ctx := context.Background()

	key := KeyEventSummary(7)
	mock.ExpectGet(key).SetVal(`{"id":7,"title":"Gala Final"}`)

	got, err := GetOrSetJSON(ctx, c, key, time.Minute, func(context.Context) (cachedEvent, error) {
		t.Fatal("loader must not run on a cache hit")
		return cachedEvent{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, cachedEvent{ID: 7, Title: "Gala Final"}, got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrSetJSONPropagatesLoaderError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db)
	ctx := context.Background()

	key := KeyEventList()
	mock.ExpectGet(key).RedisNil()
	mock.ExpectGet(key).RedisNil()

	wantErr := errors.New("db down")
	_, err := GetOrSetJSON(ctx, c, key, time.Minute, func(context.Context) ([]cachedEvent, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestInvalidateEvent(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db)

	mock.ExpectDel(KeyEventSummary(7), KeyEventList()).SetVal(2)
	require.NoError(t, c.InvalidateEvent(context.Background(), 7))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateSettings(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db)

	mock.ExpectDel(KeySettings()).SetVal(1)
	require.NoError(t, c.InvalidateSettings(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}
