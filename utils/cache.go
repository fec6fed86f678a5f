package utils

import (
	"context"
	"encoding/json"
	"time"
)

const (
	defaultCacheTTL = time.Minute
)

// CacheGetBytes returns cached bytes for a key from Redis.
func CacheGetBytes(key string) ([]byte, bool) {
	rc := GetRedis()
	if rc == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := rc.Get(ctx, key).Bytes()
	if err != nil {
		Sugar.Debugf("cache get miss key=%s err=%v", key, err)
		return nil, false
	}
	return b, true
}

// CacheGetJSON unmarshals a cached JSON value into v.
func CacheGetJSON(key string, v interface{}) bool {
	b, ok := CacheGetBytes(key)
	if !ok {
		return false
	}
	return json.Unmarshal(b, v) == nil
}

// CacheSetBytes stores bytes with the given TTL, or the default when ttl <= 0.
func CacheSetBytes(key string, b []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	rc := GetRedis()
	if rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Set(ctx, key, b, ttl).Err(); err != nil {
		Sugar.Warnf("cache set failed key=%s err=%v", key, err)
	}
}

// CacheSetJSON marshals v and stores JSON bytes.
func CacheSetJSON(key string, v interface{}, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	CacheSetBytes(key, b, ttl)
}

// CacheDelete drops keys so the next read recomputes them.
func CacheDelete(keys ...string) {
	rc := GetRedis()
	if rc == nil || len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Del(ctx, keys...).Err(); err != nil {
		Sugar.Warnf("cache delete failed keys=%v err=%v", keys, err)
	}
}
