// vn-bench is a benchmark and stress test for the tree update engine. It
// builds a random tree and measures each kind of update against it.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/jgraley/inferno-cpp2v-sub002/internal/config"
	"github.com/jgraley/inferno-cpp2v-sub002/internal/observability"
	"github.com/jgraley/inferno-cpp2v-sub002/update"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type BenchResult struct {
	Name     string
	Duration time.Duration
	Ops      int
	Extra    string
}

func (r BenchResult) String() string {
	if r.Ops > 0 {
		opsPerSec := float64(r.Ops) / r.Duration.Seconds()
		if r.Extra != "" {
			return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec) %s", r.Name, r.Duration.Round(time.Microsecond), r.Ops, opsPerSec, r.Extra)
		}
		return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec)", r.Name, r.Duration.Round(time.Microsecond), r.Ops, opsPerSec)
	}
	if r.Extra != "" {
		return fmt.Sprintf("%-40s %12v  %s", r.Name, r.Duration.Round(time.Microsecond), r.Extra)
	}
	return fmt.Sprintf("%-40s %12v", r.Name, r.Duration.Round(time.Microsecond))
}

var (
	configPath string
	size       int
	rounds     int
	seed       int64

	rootCmd = &cobra.Command{
		Use:   "vn-bench",
		Short: "Benchmark and stress test for the tree update engine",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}
)

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "TOML configuration file")
	rootCmd.Flags().IntVar(&size, "size", 0, "statements in the generated tree (overrides config)")
	rootCmd.Flags().IntVar(&rounds, "rounds", 0, "updates per benchmark (overrides config)")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBench(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("size") {
		cfg.Bench.Size = size
	}
	if cmd.Flags().Changed("rounds") {
		cfg.Bench.Rounds = rounds
	}
	if cmd.Flags().Changed("seed") {
		cfg.Bench.Seed = seed
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	log := observability.NewLogger(os.Stderr, "vn-bench", cfg.Log.Level)

	fmt.Println("vn Benchmark and Stress Test")
	fmt.Println("============================")
	fmt.Printf("Statements: %d, rounds: %d, seed: %d\n", cfg.Bench.Size, cfg.Bench.Rounds, cfg.Bench.Seed)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Println()

	b := &bench{
		rng:    rand.New(rand.NewSource(cfg.Bench.Seed)),
		size:   cfg.Bench.Size,
		rounds: cfg.Bench.Rounds,
	}
	var results []BenchResult
	run := func(name string, fn func() BenchResult) {
		fmt.Printf("  %-40s ", name+"...")
		result := fn()
		fmt.Printf("%v\n", result.Duration.Round(time.Microsecond))
		results = append(results, result)
	}

	run("Build tree", b.build)
	opts := cfg.UpdateOptions()
	opts.Logger = &log
	opts.Recorder = observability.Recorder()
	b.updater = update.New(b.store, opts)

	fmt.Println("\nUpdates:")
	run("Swap statements", b.swaps)
	run("Wrap expressions", b.wraps)
	run("Unwrap expressions", b.unwraps)
	run("Copy statements", b.copies)
	run("Failed updates (rollback)", b.failures)

	fmt.Println("\nSnapshots:")
	run("CBOR round trip", b.snapshot)

	fmt.Println("\n" + "=")
	fmt.Println("SUMMARY")
	fmt.Println("=")
	for _, r := range results {
		fmt.Println(r)
	}
	printUpdateMetrics()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Println()
	fmt.Printf("Peak heap allocation: %d MB\n", m.HeapSys/(1024*1024))
	fmt.Printf("Total allocations: %d MB\n", m.TotalAlloc/(1024*1024))
	return nil
}

// printUpdateMetrics prints the update counters gathered during the run.
func printUpdateMetrics() {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		fmt.Printf("gather metrics: %v\n", err)
		return
	}
	fmt.Println()
	for _, mf := range families {
		if mf.GetName() != "vn_update_total" && mf.GetName() != "vn_update_steps_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			label := ""
			if len(m.GetLabel()) > 0 {
				label = m.GetLabel()[0].GetValue()
			}
			fmt.Printf("%-24s %-8s %8.0f\n", mf.GetName(), label, m.GetCounter().GetValue())
		}
	}
}
