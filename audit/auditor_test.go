package audit

import (
	"bytes"
	"context"
	"errors"
	randv2 "math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xds/xlog"
)

type syncBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

func newTestAuditor(t *testing.T, opts ...AuditorOption) (*Auditor, *syncBuffer) {
	out := &syncBuffer{}
	logger := xlog.NewXLogger(
		xlog.WithXLoggerEncoder(xlog.JSON),
		xlog.WithXLoggerWriteSyncer(zapcore.AddSync(out)),
		xlog.WithXLoggerLevel(xlog.LogLevelInfo),
		xlog.WithXLoggerContextFieldExtract("trial"),
	)
	opts = append([]AuditorOption{
		WithAuditLogger(logger),
		WithAuditWorkers(4),
	}, opts...)
	a, err := NewAuditor(opts...)
	require.NoError(t, err)
	t.Cleanup(a.Release)
	return a, out
}

func TestNewAuditor_Options(t *testing.T) {
	testcases := []struct {
		name string
		opts []AuditorOption
		ok   bool
	}{
		{"defaults", nil, true},
		{"nil option", []AuditorOption{nil}, true},
		{"zero trials", []AuditorOption{WithAuditTrials(0)}, false},
		{"negative keys", []AuditorOption{WithAuditKeys(-1)}, false},
		{"too many keys", []AuditorOption{WithAuditKeys(maxKeys + 1)}, false},
		{"zero workers falls back", []AuditorOption{WithAuditWorkers(0)}, true},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			a, err := NewAuditor(tc.opts...)
			if !tc.ok {
				require.ErrorIs(tt, err, ErrInvalidAuditOption)
				require.Nil(tt, a)
				return
			}
			require.NoError(tt, err)
			require.Equal(tt, defaultTrials, a.Trials())
			require.Equal(tt, defaultKeys, a.Keys())
			require.Equal(tt, uint64(defaultSeed), a.Seed())
			require.Greater(tt, a.opt.workers, 0)
			a.Release()
		})
	}

	var a *Auditor
	require.NotPanics(t, a.Release)
}

func TestAuditor_RunTreeAudit(t *testing.T) {
	a, out := newTestAuditor(t, WithAuditTrials(6), WithAuditKeys(300), WithAuditSeed(7))
	reports, err := a.RunTreeAudit(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 6)
	for i, r := range reports {
		require.Equal(t, i, r.Trial)
		require.Equal(t, 300, r.Inserted)
		require.Equal(t, 150, r.Deleted)
		require.Equal(t, int64(150), r.Remaining)
		require.Equal(t, 301, r.Leaves)
	}
	require.Contains(t, out.String(), "trial passed")
	require.Contains(t, out.String(), `"trial":5`)
}

func TestAuditor_RunTreeAudit_OddKeys(t *testing.T) {
	a, _ := newTestAuditor(t, WithAuditTrials(2), WithAuditKeys(1))
	reports, err := a.RunTreeAudit(context.Background())
	require.NoError(t, err)
	for _, r := range reports {
		require.Equal(t, 1, r.Deleted)
		require.Equal(t, int64(0), r.Remaining)
		require.Equal(t, 2, r.Leaves)
	}
}

func TestAuditor_RunColoringAudit(t *testing.T) {
	a, _ := newTestAuditor(t, WithAuditTrials(4), WithAuditKeys(200))
	reports, err := a.RunColoringAudit(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 4)
	for _, r := range reports {
		require.Equal(t, 200, r.Nodes)
		require.Greater(t, r.Edges, 0)
		require.Greater(t, r.Colors, 1)
		require.LessOrEqual(t, r.Colors, r.Degree+1)
	}

	// A single node never gets an edge.
	a, _ = newTestAuditor(t, WithAuditTrials(1), WithAuditKeys(1))
	reports, err = a.RunColoringAudit(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, reports[0].Edges)
	require.Equal(t, 1, reports[0].Colors)
}

func TestAuditor_RunHashMapAudit(t *testing.T) {
	a, _ := newTestAuditor(t, WithAuditTrials(4), WithAuditKeys(256))
	reports, err := a.RunHashMapAudit(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 4)
	for i, r := range reports {
		require.Equal(t, 256*opsPerKey, r.Ops)
		require.LessOrEqual(t, r.Size, r.Capacity)
		if i%2 == 0 {
			require.Equal(t, "xxhash", r.Hasher)
		} else {
			require.Equal(t, "cityhash", r.Hasher)
		}
	}
}

func TestAuditor_Deterministic(t *testing.T) {
	run := func() []HashMapReport {
		a, _ := newTestAuditor(t, WithAuditTrials(3), WithAuditKeys(64), WithAuditSeed(99))
		reports, err := a.RunHashMapAudit(context.Background())
		require.NoError(t, err)
		return reports
	}
	r1, r2 := run(), run()
	for i := range r1 {
		require.Equal(t, r1[i].Size, r2[i].Size)
		require.Equal(t, r1[i].Capacity, r2[i].Capacity)
	}
}

func TestAuditor_Cancelled(t *testing.T) {
	a, _ := newTestAuditor(t, WithAuditTrials(4), WithAuditKeys(16))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reports, err := a.RunTreeAudit(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, reports)
}

func TestRunTrials_CollectsFailures(t *testing.T) {
	a, out := newTestAuditor(t, WithAuditTrials(5))
	errBoom := errors.New("boom")
	reports, err := runTrials[int](context.Background(), a, "fake",
		func(_ context.Context, trial int, _ *randv2.Rand) (int, error) {
			switch trial {
			case 1:
				return trial, errBoom
			case 3:
				panic("debug assertion")
			}
			return trial * 10, nil
		},
	)
	require.Len(t, reports, 5)
	require.Equal(t, []int{0, 1, 20, 0, 40}, reports)
	require.ErrorIs(t, err, errBoom)
	require.ErrorIs(t, err, ErrTrialPanic)
	require.Len(t, multierr.Errors(err), 2)
	require.Contains(t, out.String(), "trial failed")
}

func TestAuditor_Stats(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() {
		require.NoError(t, mp.Shutdown(context.Background()))
	}()

	a, _ := newTestAuditor(t,
		WithAuditTrials(3),
		WithAuditKeys(32),
		WithAuditMeterProvider(mp),
	)
	_, err := a.RunTreeAudit(context.Background())
	require.NoError(t, err)
	_, err = a.RunColoringAudit(context.Background())
	require.NoError(t, err)

	rm := metricdata.ResourceMetrics{}
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := map[string]int64{}
	histograms := map[string]uint64{}
	for _, sm := range rm.ScopeMetrics {
		require.Equal(t, AuditStatsName, sm.Scope.Name)
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			case metricdata.Histogram[int64]:
				for _, dp := range data.DataPoints {
					histograms[m.Name] += dp.Count
				}
			}
		}
	}
	require.Equal(t, int64(6), sums["xds.audit.trials"])
	require.Zero(t, sums["xds.audit.violations"])
	require.Equal(t, uint64(6), histograms["xds.audit.trial.duration.ms"])
}
