package kv

import (
	"github.com/cespare/xxhash/v2"
	"github.com/creachadair/cityhash"
)

type HashFunc func(key string) uint64

func XXHasher(key string) uint64 {
	return xxhash.Sum64String(key)
}

func CityHasher(key string) uint64 {
	return cityhash.Hash64([]byte(key))
}
