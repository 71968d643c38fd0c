package audit

import (
	"context"
	"fmt"
	randv2 "math/rand/v2"
	"time"

	"github.com/google/btree"

	"github.com/benz9527/xds/lib/tree"
)

const oracleDegree = 8

type TreeReport struct {
	Trial     int
	Inserted  int
	Deleted   int
	Remaining int64
	Leaves    int
	Elapsed   time.Duration
}

// RunTreeAudit inserts a shuffled permutation of [0, keys) per trial,
// deletes the even keys and checks the red-black tree rules and the
// content against a btree after each phase.
func (a *Auditor) RunTreeAudit(ctx context.Context) ([]TreeReport, error) {
	return runTrials[TreeReport](ctx, a, TrialKindTree, a.treeTrial)
}

func (a *Auditor) treeTrial(ctx context.Context, trial int, rnd *randv2.Rand) (TreeReport, error) {
	start := time.Now()
	report := TreeReport{Trial: trial}
	t := tree.NewRBTree[int]()
	defer t.Release()
	oracle := btree.New(oracleDegree)

	for _, key := range rnd.Perm(a.opt.keys) {
		if inserted, _ := t.InsertNode(key); !inserted {
			return report, fmt.Errorf("%w: insert %d is rejected", ErrOracleMismatch, key)
		}
		oracle.ReplaceOrInsert(btree.Int(key))
		report.Inserted++
	}
	if err := checkTree(t, oracle); err != nil {
		return report, fmt.Errorf("after insertion: %w", err)
	}
	report.Leaves = len(t.GetLeafNodes())
	if report.Leaves != a.opt.keys+1 {
		return report, fmt.Errorf("%w: %d leaves for %d keys", ErrOracleMismatch, report.Leaves, a.opt.keys)
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	for key := 0; key < a.opt.keys; key += 2 {
		if !t.DeleteNode(key) {
			return report, fmt.Errorf("%w: delete %d is rejected", ErrOracleMismatch, key)
		}
		oracle.Delete(btree.Int(key))
		report.Deleted++
	}
	if err := checkTree(t, oracle); err != nil {
		return report, fmt.Errorf("after deletion: %w", err)
	}
	for key := 0; key < a.opt.keys; key++ {
		if found, want := t.FindNode(key) != nil, oracle.Has(btree.Int(key)); found != want {
			return report, fmt.Errorf("%w: find %d got %v", ErrOracleMismatch, key, found)
		}
	}
	report.Remaining = t.Len()
	report.Elapsed = time.Since(start)
	return report, nil
}

func checkTree(t tree.RBTree[int], oracle *btree.BTree) error {
	if err := tree.Validate[int](t); err != nil {
		return err
	}
	if t.Len() != int64(oracle.Len()) {
		return fmt.Errorf("%w: len %d, expected %d", ErrOracleMismatch, t.Len(), oracle.Len())
	}
	expected := make([]int, 0, oracle.Len())
	oracle.Ascend(func(item btree.Item) bool {
		expected = append(expected, int(item.(btree.Int)))
		return true
	})
	var err error
	t.Foreach(func(idx int64, color tree.RBColor, key int) bool {
		if expected[idx] != key {
			err = fmt.Errorf("%w: key %d at %d, expected %d", ErrOracleMismatch, key, idx, expected[idx])
			return false
		}
		return true
	})
	return err
}
