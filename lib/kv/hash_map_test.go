package kv

import (
	randv2 "math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func constHasher(string) uint64 {
	return 42
}

// Keeps h2 equal and only moves h1, so different hashes
// land on the same slot index of a small table.
func sameIndexHasher(key string) uint64 {
	return uint64(len(key)) << 10
}

func TestHashMap_Ctor(t *testing.T) {
	m := NewHashMap[int]()
	require.NotNil(t, m)
	require.Equal(t, 0, m.Size())
	require.Equal(t, defaultCapacity, m.Capacity())

	m = NewHashMap[int](WithHashMapCapacity(3), WithHashMapHasher(nil), nil)
	require.Equal(t, 3, m.Capacity())
	require.NoError(t, m.Put("key", 1))

	m = NewHashMap[int](WithHashMapCapacity(-1))
	require.Equal(t, defaultCapacity, m.Capacity())
}

func TestHashMap_Put(t *testing.T) {
	t.Run("put one", func(tt *testing.T) {
		m := NewHashMap[int]()
		require.NoError(tt, m.Put("key", 1))
		require.Equal(tt, 1, m.Size())
	})
	t.Run("put more than could fit", func(tt *testing.T) {
		m := NewHashMap[int]()
		allocated := m.Capacity()
		for i := 0; i < allocated+1; i++ {
			require.NoError(tt, m.Put("key"+strconv.Itoa(i), i))
		}
		require.Equal(tt, allocated+1, m.Size())
		require.Greater(tt, m.Capacity(), allocated)
		for i := 0; i < allocated+1; i++ {
			v, err := m.Get("key" + strconv.Itoa(i))
			require.NoError(tt, err)
			require.Equal(tt, i, v)
		}
	})
	t.Run("put existed key", func(tt *testing.T) {
		m := NewHashMap[int]()
		require.NoError(tt, m.Put("key", 1))
		require.ErrorIs(tt, m.Put("key", 2), ErrKeyExists)
		v, err := m.Get("key")
		require.NoError(tt, err)
		require.Equal(tt, 1, v)
	})
	t.Run("put collision", func(tt *testing.T) {
		m := NewHashMap[int](WithHashMapHasher(constHasher))
		require.NoError(tt, m.Put("abc", 1))
		require.NoError(tt, m.Put("cba", 2))
		v, err := m.Get("cba")
		require.NoError(tt, err)
		require.Equal(tt, 2, v)
		v, err = m.Get("abc")
		require.NoError(tt, err)
		require.Equal(tt, 1, v)
	})
	t.Run("put same index", func(tt *testing.T) {
		m := NewHashMap[int](WithHashMapCapacity(4), WithHashMapHasher(sameIndexHasher))
		require.NoError(tt, m.Put("a", 1))
		require.NoError(tt, m.Put("bbbbb", 2))
		require.True(tt, m.Contains("a"))
		require.True(tt, m.Contains("bbbbb"))
		require.False(tt, m.Contains("ccccccccc"))
	})
}

func TestHashMap_Get(t *testing.T) {
	m := NewHashMap[int]()
	_, err := m.Get("key")
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, m.Put("key", 1))
	v, err := m.Get("key")
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestHashMap_Pop(t *testing.T) {
	testcases := []struct {
		name string
		keys []string
		pop  string
		want int
	}{
		{"existed first", []string{"key"}, "key", 1},
		{"existed last", []string{"key", "key2"}, "key2", 2},
		{"existed middle", []string{"key", "key2", "key3"}, "key2", 2},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			m := NewHashMap[int](WithHashMapHasher(constHasher))
			for i, k := range tc.keys {
				require.NoError(tt, m.Put(k, i+1))
			}
			v, err := m.Pop(tc.pop)
			require.NoError(tt, err)
			require.Equal(tt, tc.want, v)
			require.False(tt, m.Contains(tc.pop))
			require.Equal(tt, len(tc.keys)-1, m.Size())
			for _, k := range tc.keys {
				if k != tc.pop {
					require.True(tt, m.Contains(k), k)
				}
			}
		})
	}

	m := NewHashMap[int]()
	_, err := m.Pop("key")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestHashMap_RemoveContains(t *testing.T) {
	m := NewHashMap[int]()
	require.ErrorIs(t, m.Remove("key"), ErrKeyNotFound)
	require.False(t, m.Contains("key"))

	require.NoError(t, m.Put("key", 1))
	require.True(t, m.Contains("key"))
	require.NoError(t, m.Remove("key"))
	require.False(t, m.Contains("key"))
	require.ErrorIs(t, m.Remove("key"), ErrKeyNotFound)

	// A tombstone keeps the probe chain alive.
	m = NewHashMap[int](WithHashMapHasher(constHasher))
	for i := 0; i < 4; i++ {
		require.NoError(t, m.Put("k"+strconv.Itoa(i), i))
	}
	require.NoError(t, m.Remove("k1"))
	require.Equal(t, 1, m.(*hashMap[int]).dead)
	v, err := m.Get("k3")
	require.NoError(t, err)
	require.Equal(t, 3, v)

	// The tail of the chain becomes empty, not a tombstone.
	require.NoError(t, m.Remove("k3"))
	require.Equal(t, 1, m.(*hashMap[int]).dead)

	// Reuse the tombstone.
	require.NoError(t, m.Put("k4", 4))
	require.Equal(t, 0, m.(*hashMap[int]).dead)
	require.Equal(t, 3, m.Size())
}

func TestHashMap_SizeCapacity(t *testing.T) {
	m := NewHashMap[int]()
	require.Equal(t, 0, m.Size())
	require.Equal(t, m.(*hashMap[int]).used, m.Size())
	require.Equal(t, len(m.(*hashMap[int]).slots), m.Capacity())
}

func TestHashMap_Reserve(t *testing.T) {
	newMap := func() HashMap[int] {
		m := NewHashMap[int]()
		_ = m.Put("key", 1)
		_ = m.Put("key2", 2)
		return m
	}
	t.Run("reserve less than used", func(tt *testing.T) {
		m := newMap()
		require.ErrorIs(tt, m.Reserve(m.Size()-1), ErrInvalidReserve)
	})
	t.Run("reserve more than allocated", func(tt *testing.T) {
		m := newMap()
		n := m.Capacity() + 1
		require.NoError(tt, m.Reserve(n))
		require.Equal(tt, n, m.Capacity())
		require.True(tt, m.Contains("key"))
		require.True(tt, m.Contains("key2"))
	})
	t.Run("reserve same as allocated", func(tt *testing.T) {
		m := newMap()
		require.NoError(tt, m.Reserve(m.Capacity()))
		require.Equal(tt, defaultCapacity, m.Capacity())
	})
	t.Run("reserve exactly used", func(tt *testing.T) {
		m := newMap()
		require.NoError(tt, m.Reserve(2))
		require.Equal(tt, 2, m.Capacity())
		require.False(tt, m.Contains("absent"))
		require.NoError(tt, m.Put("key3", 3))
		require.Greater(tt, m.Capacity(), 2)
		require.Equal(tt, 3, m.Size())
	})
	t.Run("reserve too large", func(tt *testing.T) {
		m := newMap()
		require.ErrorIs(tt, m.Reserve(maxCapacity+1), ErrAllocFailed)
		require.Equal(tt, 2, m.Size())
	})
}

func TestHashMap_ClearRelease(t *testing.T) {
	m := NewHashMap[int]()
	for i := 0; i < 20; i++ {
		require.NoError(t, m.Put(strconv.Itoa(i), i))
	}
	capacity := m.Capacity()
	m.Clear()
	require.Equal(t, 0, m.Size())
	require.Equal(t, capacity, m.Capacity())
	require.False(t, m.Contains("1"))
	require.NoError(t, m.Put("1", 1))

	m.Release()
	require.Equal(t, 0, m.Capacity())
	require.Equal(t, 0, m.Size())
	require.False(t, m.Contains("1"))
	require.ErrorIs(t, m.Remove("1"), ErrKeyNotFound)
	require.NoError(t, m.Put("1", 1))
	require.Equal(t, defaultCapacity, m.Capacity())
}

func TestHashMap_ForeachInsertionOrder(t *testing.T) {
	m := NewHashMap[int](WithHashMapCapacity(2))
	keys := []string{"e", "d", "c", "b", "a", "f", "g"}
	for i, k := range keys {
		require.NoError(t, m.Put(k, i))
	}
	require.NoError(t, m.Remove("c"))

	visited := make([]string, 0, len(keys))
	m.Foreach(func(idx int, key string, val int) bool {
		require.Equal(t, len(visited), idx)
		visited = append(visited, key)
		return true
	})
	require.Equal(t, []string{"e", "d", "b", "a", "f", "g"}, visited)

	visited = visited[:0]
	m.Foreach(func(idx int, key string, val int) bool {
		visited = append(visited, key)
		return idx < 1
	})
	require.Equal(t, []string{"e", "d"}, visited)
}

func TestHashMap_TombstoneRehashKeepsCapacity(t *testing.T) {
	m := NewHashMap[int](WithHashMapCapacity(16), WithHashMapHasher(constHasher))
	for i := 0; i < 10; i++ {
		require.NoError(t, m.Put(strconv.Itoa(i), i))
	}
	for i := 0; i < 9; i++ {
		require.NoError(t, m.Remove(strconv.Itoa(i)))
	}
	require.Equal(t, 1, m.Size())
	// The first put rehashes the tombstones away in place.
	for i := 10; i < 19; i++ {
		require.NoError(t, m.Put(strconv.Itoa(i), i))
	}
	require.Equal(t, 16, m.Capacity())
	require.Equal(t, 10, m.Size())
	require.Equal(t, 0, m.(*hashMap[int]).dead)
	for i := 9; i < 19; i++ {
		require.True(t, m.Contains(strconv.Itoa(i)))
	}
}

func TestHashMap_RandomOps(t *testing.T) {
	hashers := []HashFunc{XXHasher, CityHasher, sameIndexHasher}
	for _, hasher := range hashers {
		m := NewHashMap[int](WithHashMapHasher(hasher))
		model := make(map[string]int, 256)
		rnd := randv2.New(randv2.NewPCG(1, 2))
		for i := 0; i < 5000; i++ {
			key := strconv.Itoa(rnd.IntN(300))
			switch rnd.IntN(4) {
			case 0:
				_, ok := model[key]
				err := m.Put(key, i)
				if ok {
					require.ErrorIs(t, err, ErrKeyExists)
				} else {
					require.NoError(t, err)
					model[key] = i
				}
			case 1:
				v, err := m.Pop(key)
				if want, ok := model[key]; ok {
					require.NoError(t, err)
					require.Equal(t, want, v)
					delete(model, key)
				} else {
					require.ErrorIs(t, err, ErrKeyNotFound)
				}
			case 2:
				err := m.Remove(key)
				if _, ok := model[key]; ok {
					require.NoError(t, err)
					delete(model, key)
				} else {
					require.ErrorIs(t, err, ErrKeyNotFound)
				}
			default:
				v, err := m.Get(key)
				if want, ok := model[key]; ok {
					require.NoError(t, err)
					require.Equal(t, want, v)
				} else {
					require.ErrorIs(t, err, ErrKeyNotFound)
				}
			}
			require.Equal(t, len(model), m.Size())
			require.LessOrEqual(t, m.Size(), m.Capacity())
		}
	}
}
