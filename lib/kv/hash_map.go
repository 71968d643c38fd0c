package kv

// References:
// https://www.dolthub.com/blog/2023-03-28-swiss-map/
// https://rcoh.me/posts/hash-map-analysis/

/*
 index |   0    |   1    |   2    |   3    |   4    | ... |  n-1   |
-------|--------|--------|--------|--------|--------|     |--------|
 slot  |  *e5   |        |  *e39  |        |        | ... |        |
-------|--------|--------|--------|--------|--------|     |--------|
 ctrl  |01010111|10000000|00110110|11111110|10000000| ... |10000000|

1. open-addressing
The slots array keeps the entry pointers directly, a collision walks
the slots linearly (wrap-around) until an empty slot.

2. ctrl byte
Full slot keeps the low 7 bits of the hash (h2), so most mismatched
keys are skipped without a string compare. Empty is 0x80 and a removed
slot is a tombstone 0xFE.

3. load factor
used + dead slots are capped by 2/3 of the capacity. Reaching the
limit rehashes into the same capacity if tombstones are at least half
of the live keys, otherwise doubles the capacity.

4. insertion order
Entries are linked (first/last) in insertion order, the iteration and
the rehash follow that list.
*/

const (
	h2Mask             uint64 = 0x0000_0000_0000_007f
	empty              int8   = -128 // 0b1000_0000
	deleted            int8   = -2   // 0b1111_1110
	defaultCapacity           = 8
	maxCapacity               = 1 << 30
	maxLoadNumerator          = 2
	maxLoadDenominator        = 3
)

type hashMapEntry[V any] struct {
	prev *hashMapEntry[V]
	next *hashMapEntry[V]
	key  string
	val  V
	hash uint64
}

type hashMap[V any] struct {
	ctrl   []int8
	slots  []*hashMapEntry[V]
	first  *hashMapEntry[V]
	last   *hashMapEntry[V]
	hasher HashFunc
	used   int // live entries
	dead   int // tombstones
}

func splitHash(hash uint64) (uint64, int8) {
	return hash >> 7, int8(hash & h2Mask)
}

func (m *hashMap[V]) limit() int {
	return len(m.slots) * maxLoadNumerator / maxLoadDenominator
}

// lookup returns the slot holding the key. If the key is absent, it
// returns the first insertable slot on the probe path, -1 if the
// table has no such slot.
// The probe is bounded by the capacity, a full table terminates too.
func (m *hashMap[V]) lookup(key string, hash uint64) (idx int, found bool) {
	n := len(m.slots)
	if n == 0 {
		return -1, false
	}
	h1, h2 := splitHash(hash)
	insertAt := -1
	i := int(h1 % uint64(n))
	for probes := 0; probes < n; probes++ {
		switch ctrl := m.ctrl[i]; ctrl {
		case empty:
			if insertAt < 0 {
				insertAt = i
			}
			return insertAt, false
		case deleted:
			if insertAt < 0 {
				insertAt = i
			}
		default:
			if /* hash collision */ ctrl == h2 && m.slots[i].key == key {
				return i, true
			}
		}
		i++
		if i >= n { // wrap-around
			i = 0
		}
	}
	return insertAt, false
}

func (m *hashMap[V]) Put(key string, val V) error {
	hash := m.hasher(key)
	if _, found := m.lookup(key, hash); found {
		return ErrKeyExists
	}

	for m.used+m.dead+1 > m.limit() {
		n, err := m.nextCap()
		if err != nil {
			return err
		}
		m.rehash(n)
	}

	idx, _ := m.lookup(key, hash)
	if idx < 0 {
		// impossible run to here
		panic( /* debug assertion */ "[hashmap] no slot to put after resize")
	}
	if m.ctrl[idx] == deleted {
		m.dead--
	}
	e := &hashMapEntry[V]{
		key:  key,
		val:  val,
		hash: hash,
		prev: m.last,
	}
	if m.last != nil {
		m.last.next = e
	} else {
		m.first = e
	}
	m.last = e
	_, h2 := splitHash(hash)
	m.slots[idx], m.ctrl[idx] = e, h2
	m.used++
	return nil
}

func (m *hashMap[V]) Get(key string) (val V, err error) {
	idx, found := m.lookup(key, m.hasher(key))
	if !found {
		return val, ErrKeyNotFound
	}
	return m.slots[idx].val, nil
}

func (m *hashMap[V]) Contains(key string) bool {
	_, found := m.lookup(key, m.hasher(key))
	return found
}

func (m *hashMap[V]) Pop(key string) (val V, err error) {
	idx, found := m.lookup(key, m.hasher(key))
	if !found {
		return val, ErrKeyNotFound
	}
	e := m.slots[idx]
	m.removeAt(idx)
	return e.val, nil
}

func (m *hashMap[V]) Remove(key string) error {
	idx, found := m.lookup(key, m.hasher(key))
	if !found {
		return ErrKeyNotFound
	}
	m.removeAt(idx)
	return nil
}

func (m *hashMap[V]) removeAt(idx int) {
	e := m.slots[idx]
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		m.first = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		m.last = e.prev
	}
	e.prev, e.next = nil, nil
	m.slots[idx] = nil
	m.used--

	// No probe path continues through an empty successor,
	// so the slot can be empty instead of a tombstone.
	if next := (idx + 1) % len(m.slots); m.ctrl[next] == empty {
		m.ctrl[idx] = empty
		return
	}
	m.ctrl[idx] = deleted
	m.dead++
}

func (m *hashMap[V]) Size() int {
	return m.used
}

func (m *hashMap[V]) Capacity() int {
	return len(m.slots)
}

func (m *hashMap[V]) Reserve(n int) error {
	if n < m.used {
		return ErrInvalidReserve
	}
	if n == len(m.slots) {
		return nil
	}
	if n > maxCapacity {
		return ErrAllocFailed
	}
	m.rehash(n)
	return nil
}

func (m *hashMap[V]) Clear() {
	for i := range m.ctrl {
		m.ctrl[i] = empty
	}
	clear(m.slots)
	for e := m.first; e != nil; {
		next := e.next
		e.prev, e.next = nil, nil
		e = next
	}
	m.first, m.last = nil, nil
	m.used, m.dead = 0, 0
}

func (m *hashMap[V]) Release() {
	m.Clear()
	m.ctrl, m.slots = nil, nil
}

func (m *hashMap[V]) Foreach(action func(idx int, key string, val V) bool) {
	idx := 0
	for e := m.first; e != nil; e = e.next {
		if !action(idx, e.key, e.val) {
			return
		}
		idx++
	}
}

func (m *hashMap[V]) nextCap() (int, error) {
	if len(m.slots) == 0 {
		return defaultCapacity, nil
	}
	if m.dead > 0 && m.dead >= (m.used>>1) {
		return len(m.slots), nil
	}
	newCap := len(m.slots) * 2
	if newCap > maxCapacity {
		return 0, ErrAllocFailed
	}
	return newCap, nil
}

func (m *hashMap[V]) rehash(n int) {
	m.ctrl = make([]int8, n)
	m.slots = make([]*hashMapEntry[V], n)
	for i := range m.ctrl {
		m.ctrl[i] = empty
	}
	m.dead = 0
	if n == 0 {
		return
	}
	for e := m.first; e != nil; e = e.next {
		h1, h2 := splitHash(e.hash)
		i := int(h1 % uint64(n))
		for m.ctrl[i] != empty {
			i++
			if i >= n {
				i = 0
			}
		}
		m.slots[i], m.ctrl[i] = e, h2
	}
}

type hashMapCfg struct {
	capacity int
	hasher   HashFunc
}

type HashMapOption func(cfg *hashMapCfg)

func WithHashMapCapacity(capacity int) HashMapOption {
	return func(cfg *hashMapCfg) {
		cfg.capacity = capacity
	}
}

// WithHashMapHasher replaces the default xxhash hasher.
func WithHashMapHasher(fn HashFunc) HashMapOption {
	return func(cfg *hashMapCfg) {
		cfg.hasher = fn
	}
}

func NewHashMap[V any](opts ...HashMapOption) HashMap[V] {
	cfg := &hashMapCfg{
		capacity: defaultCapacity,
		hasher:   XXHasher,
	}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}
	if cfg.capacity < 0 || cfg.capacity > maxCapacity {
		cfg.capacity = defaultCapacity
	}
	if cfg.hasher == nil {
		cfg.hasher = XXHasher
	}
	m := &hashMap[V]{
		hasher: cfg.hasher,
	}
	m.rehash(cfg.capacity)
	return m
}
