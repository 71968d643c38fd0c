package audit

import (
	"context"
	"errors"
	"fmt"
	randv2 "math/rand/v2"
	"strconv"
	"time"

	"github.com/benz9527/xds/lib/kv"
)

const opsPerKey = 8

type HashMapReport struct {
	Trial    int
	Hasher   string
	Ops      int
	Size     int
	Capacity int
	Elapsed  time.Duration
}

// RunHashMapAudit replays a random put, pop, remove and get workload
// per trial and compares every result with the builtin map. The trials
// alternate between the xxhash and the cityhash hasher.
func (a *Auditor) RunHashMapAudit(ctx context.Context) ([]HashMapReport, error) {
	return runTrials[HashMapReport](ctx, a, TrialKindHashMap, a.hashMapTrial)
}

func (a *Auditor) hashMapTrial(ctx context.Context, trial int, rnd *randv2.Rand) (HashMapReport, error) {
	start := time.Now()
	report := HashMapReport{Trial: trial, Hasher: "xxhash"}
	hasher := kv.XXHasher
	if trial%2 == 1 {
		report.Hasher, hasher = "cityhash", kv.CityHasher
	}
	m := kv.NewHashMap[int](kv.WithHashMapHasher(hasher))
	defer m.Release()
	model := make(map[string]int, a.opt.keys)

	ops := a.opt.keys * opsPerKey
	for i := 0; i < ops; i++ {
		if i&0x3ff == 0 {
			if err := ctx.Err(); err != nil {
				return report, err
			}
		}
		key := strconv.Itoa(rnd.IntN(a.opt.keys))
		want, exists := model[key]
		switch op := rnd.IntN(4); op {
		case 0:
			err := m.Put(key, i)
			if exists && !errors.Is(err, kv.ErrKeyExists) || !exists && err != nil {
				return report, fmt.Errorf("%w: put %q got %v", ErrOracleMismatch, key, err)
			}
			if !exists {
				model[key] = i
			}
		case 1:
			got, err := m.Pop(key)
			if exists && (err != nil || got != want) || !exists && !errors.Is(err, kv.ErrKeyNotFound) {
				return report, fmt.Errorf("%w: pop %q got %d, %v", ErrOracleMismatch, key, got, err)
			}
			delete(model, key)
		case 2:
			err := m.Remove(key)
			if exists && err != nil || !exists && !errors.Is(err, kv.ErrKeyNotFound) {
				return report, fmt.Errorf("%w: remove %q got %v", ErrOracleMismatch, key, err)
			}
			delete(model, key)
		default:
			got, err := m.Get(key)
			if exists && (err != nil || got != want) || !exists && !errors.Is(err, kv.ErrKeyNotFound) {
				return report, fmt.Errorf("%w: get %q got %d, %v", ErrOracleMismatch, key, got, err)
			}
		}
		if m.Size() != len(model) {
			return report, fmt.Errorf("%w: size %d, expected %d", ErrOracleMismatch, m.Size(), len(model))
		}
		report.Ops++
	}

	visited := 0
	m.Foreach(func(_ int, key string, val int) bool {
		if want, ok := model[key]; !ok || want != val {
			return false
		}
		visited++
		return true
	})
	if visited != len(model) {
		return report, fmt.Errorf("%w: foreach visited %d of %d", ErrOracleMismatch, visited, len(model))
	}
	report.Size, report.Capacity = m.Size(), m.Capacity()
	report.Elapsed = time.Since(start)
	return report, nil
}
