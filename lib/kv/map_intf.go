package kv

import "errors"

var (
	ErrKeyNotFound    = errors.New("[hashmap] key not found")
	ErrKeyExists      = errors.New("[hashmap] key already exists")
	ErrInvalidReserve = errors.New("[hashmap] invalid reserve size")
	ErrAllocFailed    = errors.New("[hashmap] allocation failed")
)

// HashMap is an insertion ordered, open-addressing hash map.
// It is not safe for concurrent use.
type HashMap[V any] interface {
	// Put never replaces, it returns ErrKeyExists instead.
	Put(key string, val V) error
	Get(key string) (V, error)
	// Pop removes the key and returns its value.
	Pop(key string) (V, error)
	Remove(key string) error
	Contains(key string) bool
	// Size is the number of live keys.
	Size() int
	// Capacity is the number of allocated slots.
	Capacity() int
	// Reserve rehashes into exactly n slots.
	Reserve(n int) error
	Clear()
	// Release drops the storage, the capacity becomes 0.
	Release()
	Foreach(action func(idx int, key string, val V) bool)
}
