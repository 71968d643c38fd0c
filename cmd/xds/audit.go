package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xds/audit"
	"github.com/benz9527/xds/observability"
	"github.com/benz9527/xds/xlog"
)

const (
	metricsInterval = 10 * time.Second
	metricsTimeout  = 5 * time.Second
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run randomized trials and validate every structural rule",
}

var auditTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Insert shuffled keys, delete the even ones, validate the red-black rules",
	Args:  cobra.NoArgs,
	RunE: auditRunE(func(ctx context.Context, a *audit.Auditor, out io.Writer) error {
		reports, err := a.RunTreeAudit(ctx)
		for _, r := range reports {
			fmt.Fprintf(out, "tree trial %d: inserted=%d deleted=%d remaining=%d leaves=%d elapsed=%s\n",
				r.Trial, r.Inserted, r.Deleted, r.Remaining, r.Leaves, r.Elapsed)
		}
		return err
	}),
}

var auditGraphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Color random graphs greedily and validate the coloring",
	Args:  cobra.NoArgs,
	RunE: auditRunE(func(ctx context.Context, a *audit.Auditor, out io.Writer) error {
		reports, err := a.RunColoringAudit(ctx)
		for _, r := range reports {
			fmt.Fprintf(out, "graph trial %d: nodes=%d edges=%d degree=%d colors=%d elapsed=%s\n",
				r.Trial, r.Nodes, r.Edges, r.Degree, r.Colors, r.Elapsed)
		}
		return err
	}),
}

var auditHashMapCmd = &cobra.Command{
	Use:   "hashmap",
	Short: "Replay a random workload on the hash map against the builtin map",
	Args:  cobra.NoArgs,
	RunE: auditRunE(func(ctx context.Context, a *audit.Auditor, out io.Writer) error {
		reports, err := a.RunHashMapAudit(ctx)
		for _, r := range reports {
			fmt.Fprintf(out, "hashmap trial %d: hasher=%s ops=%d size=%d capacity=%d elapsed=%s\n",
				r.Trial, r.Hasher, r.Ops, r.Size, r.Capacity, r.Elapsed)
		}
		return err
	}),
}

func auditRunE(run func(ctx context.Context, a *audit.Auditor, out io.Writer) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		lvlOpt := xlog.WithXLoggerLevel(xlog.ParseLogLevel(logLevel))
		if !cmd.Flags().Changed("log-level") && len(os.Getenv("XLOG_LVL")) > 0 {
			lvlOpt = nil
		}
		logger := xlog.NewXLogger(
			lvlOpt,
			xlog.WithXLoggerEncoder(xlog.PlainText),
			xlog.WithXLoggerWriter(xlog.StdErr),
			xlog.WithXLoggerContextFieldExtract("trial"),
		)
		defer func() {
			_ = logger.Sync()
		}()

		opts := []audit.AuditorOption{
			audit.WithAuditTrials(trials),
			audit.WithAuditKeys(keys),
			audit.WithAuditWorkers(workers),
			audit.WithAuditSeed(seed),
			audit.WithAuditLogger(logger),
		}
		if enableMetrics {
			var shutdown func(ctx context.Context) error
			shutdown, err = observability.NewConsoleMetricsExporter(
				metricsInterval,
				metricsTimeout,
				stdoutmetric.WithWriter(cmd.OutOrStdout()),
				stdoutmetric.WithPrettyPrint(),
			)
			if err != nil {
				return err
			}
			defer func() {
				// Shutdown flushes the pending metrics.
				err = multierr.Append(err, shutdown(context.Background()))
			}()
			observability.InitAppStats("cli")
			opts = append(opts, audit.WithAuditStats())
		}

		a, err := audit.NewAuditor(opts...)
		if err != nil {
			return err
		}
		defer a.Release()

		logger.Info("audit starts", zap.String("kind", cmd.Name()))
		return run(cmd.Context(), a, cmd.OutOrStdout())
	}
}

func init() {
	auditCmd.AddCommand(auditTreeCmd, auditGraphCmd, auditHashMapCmd)
	rootCmd.AddCommand(auditCmd)
}
