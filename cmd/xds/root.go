package main

import (
	"github.com/spf13/cobra"
)

var (
	trials        int
	keys          int
	workers       int
	seed          uint64
	logLevel      string
	enableMetrics bool
)

var rootCmd = &cobra.Command{
	Use:          "xds",
	Short:        "Randomized audits of the red-black tree, graph coloring and hash map",
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.IntVar(&trials, "trials", 8, "The number of independent trials")
	flags.IntVar(&keys, "keys", 1000, "The keys per trial (nodes for the graph audit)")
	flags.IntVar(&workers, "workers", 0, "The worker pool size, GOMAXPROCS if zero")
	flags.Uint64Var(&seed, "seed", 2023, "The random seed, each trial derives its own stream")
	flags.StringVar(&logLevel, "log-level", "warn", "One of debug, info, warn, error. Falls back to XLOG_LVL if unset")
	flags.BoolVar(&enableMetrics, "metrics", false, "Dump the audit metrics to stdout when finished")
}
