package audit

import (
	"errors"
	"fmt"
	"runtime"

	"go.opentelemetry.io/otel/metric"

	"github.com/benz9527/xds/xlog"
)

const (
	defaultTrials  = 8
	defaultKeys    = 1000
	defaultSeed    = 2023
	maxKeys        = 1 << 20
	maxWorkerCount = 1 << 12
)

var ErrInvalidAuditOption = errors.New("[audit] invalid option")

type auditorOption struct {
	trials        int
	keys          int
	workers       int
	seed          uint64
	logger        xlog.XLogger
	enableStats   bool
	meterProvider metric.MeterProvider
}

func (opt *auditorOption) validate() error {
	if opt.trials <= 0 {
		return fmt.Errorf("%w: trials %d", ErrInvalidAuditOption, opt.trials)
	}
	if opt.keys <= 0 || opt.keys > maxKeys {
		return fmt.Errorf("%w: keys %d", ErrInvalidAuditOption, opt.keys)
	}
	if opt.workers <= 0 {
		opt.workers = runtime.GOMAXPROCS(0)
	}
	if opt.workers > maxWorkerCount {
		opt.workers = maxWorkerCount
	}
	return nil
}

type AuditorOption func(opt *auditorOption)

func WithAuditTrials(trials int) AuditorOption {
	return func(opt *auditorOption) {
		opt.trials = trials
	}
}

// WithAuditKeys sets the keys per trial. The graph audit takes it as
// the node count.
func WithAuditKeys(keys int) AuditorOption {
	return func(opt *auditorOption) {
		opt.keys = keys
	}
}

// WithAuditWorkers sets the ants pool size, GOMAXPROCS if absent.
func WithAuditWorkers(workers int) AuditorOption {
	return func(opt *auditorOption) {
		opt.workers = workers
	}
}

func WithAuditSeed(seed uint64) AuditorOption {
	return func(opt *auditorOption) {
		opt.seed = seed
	}
}

func WithAuditLogger(logger xlog.XLogger) AuditorOption {
	return func(opt *auditorOption) {
		opt.logger = logger
	}
}

// WithAuditStats records the trials on the global meter provider.
func WithAuditStats() AuditorOption {
	return func(opt *auditorOption) {
		opt.enableStats = true
	}
}

func WithAuditMeterProvider(mp metric.MeterProvider) AuditorOption {
	return func(opt *auditorOption) {
		opt.enableStats = mp != nil
		opt.meterProvider = mp
	}
}
