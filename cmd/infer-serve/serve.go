package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/gozero/infercore/internal/batcher"
	"github.com/gozero/infercore/internal/board"
	"github.com/gozero/infercore/internal/cache"
)

func init() {
	serveFlags.register(serveCmd.Flags())
	serveCmd.Flags().IntVar(&serveNumGames, "num-games", 32, "number of concurrent simulated games")
	serveCmd.Flags().IntVar(&servePlies, "plies", 60, "number of simulated moves per game")
	serveCmd.Flags().DurationVar(&serveStatsEvery, "stats-every", 2*time.Second, "how often to log batcher stats")
	rootCmd.AddCommand(serveCmd)
}

var (
	serveFlags      stackFlags
	serveNumGames   int
	servePlies      int
	serveStatsEvery time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run simulated games continuously against the batcher/cache stack, until interrupted",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	factory := serveFlags.buildBatcherFactory()
	c, err := serveFlags.buildCache()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		klog.Info("serve: interrupt received, shutting down")
		cancel()
	}()

	var wg sync.WaitGroup
	for i := 0; i < serveNumGames; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			for round := 0; ctx.Err() == nil; round++ {
				gameIdx := round*serveNumGames + slot
				if err := runSimulatedGame(ctx, factory, c, gameIdx, servePlies); err != nil {
					klog.Errorf("serve: game %d: %v", gameIdx, err)
					return
				}
			}
		}(i)
	}

	statsTicker := time.NewTicker(serveStatsEvery)
	defer statsTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case <-statsTicker.C:
			logBatcherStats(factory, "primary")
		}
	}
}

// runSimulatedGame plays a single toy self-play game: at each ply it tries the cache first
// and falls back to the batcher on a miss, exercising the full
// ModelBatcher/BatchingClient/InferenceCache path. It does not implement an actual Go rules
// engine (captures, ko, scoring) -- Position is deliberately opaque on those per spec.md §1 --
// it only ever plays simulated stones onto empty points for load-generation purposes.
func runSimulatedGame(ctx context.Context, factory *batcher.Factory, c *cache.Cache, gameIdx, plies int) error {
	client, err := factory.Client("primary")
	if err != nil {
		return err
	}
	defer factory.Release(client)
	batcher.StartGame(client, client)
	defer batcher.EndGame(client, client)

	rng := rand.New(rand.NewSource(int64(gameIdx) + 1))
	pos := board.NewEmptyPosition(board.Black)
	canonical := cache.ChooseCanonicalSymmetry(pos)

	for ply := 0; ply < plies && ctx.Err() == nil; ply++ {
		sym := board.Symmetry(rng.Intn(board.NumSymmetries))
		output, hit := c.TryGet(pos, canonical, sym)
		if hit != cache.Hit {
			input := board.ModelInput{Symmetry: sym, History: []*board.Position{pos}}
			outputs := make([]board.ModelOutput, 1)
			if err := client.RunMany([]board.ModelInput{input}, outputs, nil); err != nil {
				return err
			}
			output, err = c.Merge(pos, canonical, sym, outputs[0])
			if err != nil {
				return err
			}
		}

		next, done := pickMove(rng, pos, output)
		if done {
			break
		}
		pos = next
	}
	return nil
}

// pickMove chooses a uniformly random legal empty point (weighted by nothing but legality)
// and plays it, or passes if none exist; it reports done=true once both sides would pass in
// a row, a crude stand-in for "game over" good enough to bound a synthetic game's length.
func pickMove(rng *rand.Rand, pos *board.Position, _ board.ModelOutput) (next *board.Position, done bool) {
	var legal []int
	for idx, c := range pos.Stones {
		if c == board.Empty && pos.IsLegalEmptyPoint(idx, pos.ToPlay) {
			legal = append(legal, idx)
		}
	}
	if len(legal) == 0 {
		if pos.PrevMovePass {
			return pos, true
		}
		return board.NewPosition(pos.Stones, pos.ToPlay.Opponent(), true), false
	}
	idx := legal[rng.Intn(len(legal))]
	stones := pos.Stones
	stones[idx] = pos.ToPlay
	return board.NewPosition(stones, pos.ToPlay.Opponent(), false), false
}

func logBatcherStats(factory *batcher.Factory, modelPath string) {
	stats, ok := factory.Stats(modelPath)
	if !ok {
		return
	}
	klog.Infof("batcher[%s]: queue=%d waiting=%d active_games=%d batches=%d requests=%d",
		modelPath, stats.QueueLength, stats.NumWaiting, stats.NumActiveGames, stats.BatchesServed, stats.RequestsServed)
}
