package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"
	"k8s.io/klog/v2"

	"github.com/gozero/infercore/internal/batcher"
	"github.com/gozero/infercore/internal/profilers"
)

func init() {
	benchFlags.register(benchCmd.Flags())
	benchCmd.Flags().IntVar(&benchConcurrency, "concurrency", 8, "max number of simulated games in flight at once")
	benchCmd.Flags().IntVar(&benchTotalGames, "total-games", 256, "total number of simulated games to play")
	benchCmd.Flags().IntVar(&benchPlies, "plies", 60, "number of simulated moves per game")
	rootCmd.AddCommand(benchCmd)
}

var (
	benchFlags       stackFlags
	benchConcurrency int
	benchTotalGames  int
	benchPlies       int
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Load-test the batcher/cache stack with a fixed number of simulated games, reporting throughput",
	RunE:  runBench,
}

// runBench drives benchTotalGames simulated games through the stack, admitting at most
// benchConcurrency at a time via a weighted semaphore, and reports aggregate batcher
// throughput once every game has finished. It supports the same -prof/-cpu_profile flags as
// the rest of the binary (internal/profilers), since bench is the natural place to point a
// profiler at the hot dispatch/cache path.
func runBench(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	profilers.Setup(ctx)
	defer profilers.OnQuit()

	factory := benchFlags.buildBatcherFactory()
	// Hold one reference for the whole run so the "primary" batcher, and its counters, stay
	// in the registry after every game has released its own client.
	hold, err := factory.Client("primary")
	if err != nil {
		return err
	}
	defer factory.Release(hold)
	c, err := benchFlags.buildCache()
	if err != nil {
		return err
	}

	sem := semaphore.NewWeighted(int64(benchConcurrency))
	start := time.Now()

	errCh := make(chan error, benchTotalGames)
	for i := 0; i < benchTotalGames; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		go func(gameIdx int) {
			defer sem.Release(1)
			errCh <- runSimulatedGame(ctx, factory, c, gameIdx, benchPlies)
		}(i)
	}

	var failed int
	for i := 0; i < benchTotalGames; i++ {
		if err := <-errCh; err != nil {
			failed++
			klog.Errorf("bench: game failed: %v", err)
		}
	}
	elapsed := time.Since(start)

	stats, _ := factory.Stats("primary")
	fmt.Fprintf(cmd.OutOrStdout(), "games:             %d (%d failed)\n", benchTotalGames, failed)
	fmt.Fprintf(cmd.OutOrStdout(), "wall time:         %s\n", elapsed)
	fmt.Fprintf(cmd.OutOrStdout(), "batches served:    %d (%.1f/s)\n", stats.BatchesServed, float64(stats.BatchesServed)/elapsed.Seconds())
	fmt.Fprintf(cmd.OutOrStdout(), "requests served:   %d (%.1f/s)\n", stats.RequestsServed, float64(stats.RequestsServed)/elapsed.Seconds())
	fmt.Fprintf(cmd.OutOrStdout(), "mean batch size:   %.2f\n", meanBatchSize(stats))
	fmt.Fprintf(cmd.OutOrStdout(), "cache entries:     %d\n", c.Len())
	return nil
}

func meanBatchSize(stats batcher.Stats) float64 {
	if stats.BatchesServed == 0 {
		return 0
	}
	return float64(stats.RequestsServed) / float64(stats.BatchesServed)
}
