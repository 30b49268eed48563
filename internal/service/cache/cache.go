package cache

import "time"

// BytesCache is a minimal cache API storing raw bytes with TTL. Forecast
// responses are cached as serialized payloads keyed by granularity,
// horizon, and model version.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
