package audit

import (
	"context"
	"errors"
	"fmt"
	randv2 "math/rand/v2"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xds/xlog"
)

var (
	ErrOracleMismatch = errors.New("[audit] result mismatches the reference model")
	ErrTrialPanic     = errors.New("[audit] trial panicked")
)

const (
	TrialKindTree     = "tree"
	TrialKindColoring = "coloring"
	TrialKindHashMap  = "hashmap"
)

// Auditor runs independent randomized trials against the data
// structures on an ants worker pool. Every trial owns its structure,
// nothing is shared between the workers except the reports slice,
// which is indexed by the trial number.
type Auditor struct {
	opt    *auditorOption
	pool   *ants.Pool
	logger xlog.XLogger
	stats  *auditStats
}

func NewAuditor(opts ...AuditorOption) (*Auditor, error) {
	opt := &auditorOption{
		trials: defaultTrials,
		keys:   defaultKeys,
		seed:   defaultSeed,
	}
	for _, o := range opts {
		if o != nil {
			o(opt)
		}
	}
	if err := opt.validate(); err != nil {
		return nil, err
	}
	if opt.logger == nil {
		opt.logger = xlog.NewXLogger(
			xlog.WithXLoggerLevel(xlog.LogLevelWarn),
			xlog.WithXLoggerWriter(xlog.StdErr),
		)
	}

	a := &Auditor{
		opt:    opt,
		logger: opt.logger.Named("audit"),
	}
	if opt.enableStats {
		a.stats = newAuditStats(opt.meterProvider)
	}
	p, err := ants.NewPool(
		opt.workers,
		ants.WithPreAlloc(true),
		ants.WithLogger(xlog.NewAntsXLogger(opt.logger)),
	)
	if err != nil {
		return nil, err
	}
	a.pool = p
	return a, nil
}

// Release closes the worker pool, the auditor is unusable afterward.
func (a *Auditor) Release() {
	if a == nil || a.pool == nil {
		return
	}
	a.pool.Release()
}

func (a *Auditor) Trials() int {
	return a.opt.trials
}

func (a *Auditor) Keys() int {
	return a.opt.keys
}

func (a *Auditor) Seed() uint64 {
	return a.opt.seed
}

// Each trial has its own random source, so the result of a trial
// depends on the seed and the trial number only, not on the scheduling.
func (a *Auditor) trialRand(trial int) *randv2.Rand {
	return randv2.New(randv2.NewPCG(a.opt.seed, uint64(trial)))
}

type trialFunc[R any] func(ctx context.Context, trial int, rnd *randv2.Rand) (R, error)

// runTrials submits every trial to the pool and waits for them.
// A cancelled context stops submitting, the submitted trials check it
// before they start.
func runTrials[R any](ctx context.Context, a *Auditor, kind string, fn trialFunc[R]) ([]R, error) {
	var (
		reports = make([]R, a.opt.trials)
		errs    = make([]error, a.opt.trials)
		wg      sync.WaitGroup
	)
	logger := a.logger.Named(kind)

	submitted := 0
	for ; submitted < a.opt.trials; submitted++ {
		if ctx.Err() != nil {
			break
		}
		trial := submitted
		wg.Add(1)
		if err := a.pool.Submit(func() {
			defer wg.Done()
			errs[trial] = runTrial(ctx, a, logger, kind, trial, fn, &reports[trial])
		}); err != nil {
			wg.Done()
			errs[trial] = fmt.Errorf("%s trial %d: %w", kind, trial, err)
		}
	}
	wg.Wait()

	err := multierr.Combine(errs...)
	if submitted < a.opt.trials {
		err = multierr.Append(err, fmt.Errorf("%s audit stopped at trial %d: %w", kind, submitted, ctx.Err()))
		reports = reports[:submitted]
	}
	return reports, err
}

func runTrial[R any](
	ctx context.Context,
	a *Auditor,
	logger xlog.XLogger,
	kind string,
	trial int,
	fn trialFunc[R],
	report *R,
) (err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s trial %d: %w", kind, trial, ctxErr)
	}
	ctx = xlog.ContextWithField(ctx, "trial", trial)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTrialPanic, r)
		}
		elapsed := time.Since(start)
		a.stats.RecordTrial(ctx, kind, elapsed.Milliseconds(), err != nil)
		if err != nil {
			err = fmt.Errorf("%s trial %d: %w", kind, trial, err)
			logger.ErrorContext(ctx, err, "trial failed",
				zap.Uint64("seed", a.opt.seed),
				zap.Duration("elapsed", elapsed),
			)
			return
		}
		logger.InfoContext(ctx, "trial passed",
			zap.Uint64("seed", a.opt.seed),
			zap.Duration("elapsed", elapsed),
		)
	}()
	*report, err = fn(ctx, trial, a.trialRand(trial))
	return err
}
