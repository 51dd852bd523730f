package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheJSONRoundTrip(t *testing.T) {
	mock := withRedisMock(t)
	payload := []byte(`{"rank":1,"user_id":7}`)

	mock.ExpectSet("cache:rank:test", payload, time.Minute).SetVal("OK")
	mock.ExpectGet("cache:rank:test").SetVal(string(payload))

	CacheSetJSON("cache:rank:test", map[string]int{"rank": 1, "user_id": 7}, time.Minute)

	var out struct {
		Rank   int  `json:"rank"`
		UserID uint `json:"user_id"`
	}
	require.True(t, CacheGetJSON("cache:rank:test", &out))
	assert.Equal(t, 1, out.Rank)
	assert.EqualValues(t, 7, out.UserID)
}

func TestCacheMissAndErrorsFailOpen(t *testing.T) {
	mock := withRedisMock(t)

	mock.ExpectGet("cache:absent").RedisNil()
	mock.ExpectGet("cache:broken").SetErr(errors.New("connection refused"))

	_, ok := CacheGetBytes("cache:absent")
	assert.False(t, ok)
	_, ok = CacheGetBytes("cache:broken")
	assert.False(t, ok)
}

func TestCacheDefaultTTL(t *testing.T) {
	mock := withRedisMock(t)
	mock.ExpectSet("k", []byte("v"), defaultCacheTTL).SetVal("OK")

	CacheSetBytes("k", []byte("v"), 0)
}

func TestCacheDeleteAndInvalidate(t *testing.T) {
	mock := withRedisMock(t)

	mock.ExpectDel("cache:user:public:1", "cache:user:public:2").SetVal(2)
	mock.ExpectScan(0, "cache:course:user:1:*", 1000).SetVal([]string{"cache:course:user:1:list"}, 0)
	mock.ExpectDel("cache:course:user:1:list").SetVal(1)

	CacheDelete("cache:user:public:1", "cache:user:public:2")
	InvalidateByPrefix("cache:course:user:1:")
}

func TestCacheWithoutRedisIsNoop(t *testing.T) {
	SetRedis(nil)

	CacheSetJSON("k", 1, time.Minute)
	CacheDelete("k")
	InvalidateByPrefix("k")
	var v int
	assert.False(t, CacheGetJSON("k", &v))
}
