package audit

import (
	"context"
	"fmt"
	randv2 "math/rand/v2"
	"time"

	"github.com/benz9527/xds/lib/graph"
)

const edgesPerNode = 2

type ColoringReport struct {
	Trial   int
	Nodes   int
	Edges   int
	Degree  int
	Colors  int
	Elapsed time.Duration
}

// RunColoringAudit builds a random graph per trial and checks the
// greedy coloring is proper and bounded by the max degree plus one.
func (a *Auditor) RunColoringAudit(ctx context.Context) ([]ColoringReport, error) {
	return runTrials[ColoringReport](ctx, a, TrialKindColoring, a.coloringTrial)
}

func (a *Auditor) coloringTrial(_ context.Context, trial int, rnd *randv2.Rand) (ColoringReport, error) {
	start := time.Now()
	report := ColoringReport{Trial: trial}
	g := graph.NewGraph()
	defer g.Clear()

	n := uint64(a.opt.keys)
	for id := uint64(1); id <= n; id++ {
		g.AddNode(id)
	}
	if n > 1 {
		for i := uint64(0); i < n*edgesPerNode; i++ {
			// Self loops and duplicates are rejected by the graph.
			g.AddEdge(graph.Edge{A: rnd.Uint64N(n) + 1, B: rnd.Uint64N(n) + 1})
		}
	}
	report.Nodes, report.Edges, report.Degree = g.NodeCount(), g.EdgeCount(), g.GraphDegree()

	g.Coloring()
	if err := graph.ColoringValidate(g); err != nil {
		return report, err
	}
	report.Colors = graph.ColorCount(g)
	if report.Colors > report.Degree+1 {
		return report, fmt.Errorf("%w: %d colors exceed degree %d plus one",
			ErrOracleMismatch, report.Colors, report.Degree)
	}
	report.Elapsed = time.Since(start)
	return report, nil
}
