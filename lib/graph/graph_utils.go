package graph

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var ErrColoringViolation = errors.New("[graph] coloring violation")

// ColoringValidate reports every uncolored node and every edge whose
// ends share a color.
func ColoringValidate(g Graph) (err error) {
	for _, node := range g.Nodes() {
		if node.Color <= 0 {
			err = multierr.Append(err, fmt.Errorf("%w: node %d is uncolored", ErrColoringViolation, node.ID))
		}
	}
	for _, e := range g.Edges() {
		a, b := g.GetNode(e.A), g.GetNode(e.B)
		if a.Color == b.Color {
			err = multierr.Append(err, fmt.Errorf("%w: edge (%d, %d) color %d", ErrColoringViolation, e.A, e.B, a.Color))
		}
	}
	return err
}

// ColorCount returns the number of distinct colors in use.
func ColorCount(g Graph) int {
	seen := make(map[int]struct{}, 8)
	for _, node := range g.Nodes() {
		seen[node.Color] = struct{}{}
	}
	return len(seen)
}
