package main

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	_ "github.com/gozero/infercore/internal/gomlxmodel" // registers the "gomlx" engine
	"github.com/gozero/infercore/internal/batcher"
	"github.com/gozero/infercore/internal/buffered"
	"github.com/gozero/infercore/internal/cache"
	"github.com/gozero/infercore/internal/model"
	"github.com/gozero/infercore/internal/modelfile"
	"github.com/gozero/infercore/internal/reloading"
)

// stackFlags are the flags shared by the serve and bench subcommands: everything needed to
// build a batcher.Factory and a cache.Cache from a model spec.
type stackFlags struct {
	engine        string
	device        string
	modelPath     string
	reloadPattern string
	bufferSize    int
	batchSize     int
	cacheShards   int
	cacheBudgetMB int64
}

func (f *stackFlags) register(flagSet interface {
	StringVar(*string, string, string, string)
	IntVar(*int, string, int, string)
	Int64Var(*int64, string, int64, string)
}) {
	flagSet.StringVar(&f.engine, "engine", "random", `backend engine id ("random", "fake", "gomlx", or a registered engine)`)
	flagSet.StringVar(&f.device, "device", "", "engine-specific device string (e.g. an accelerator id)")
	flagSet.StringVar(&f.modelPath, "model-path", "", "path to a model file (ignored for engine \"random\")")
	flagSet.StringVar(&f.reloadPattern, "reload-pattern", "", "directory+basename pattern with one %d placeholder; enables hot reload")
	flagSet.IntVar(&f.bufferSize, "buffer-size", 1, "number of identical backend workers in the buffered pool")
	flagSet.IntVar(&f.batchSize, "batch-size", 16, "target batch size for the ModelBatcher")
	flagSet.IntVar(&f.cacheShards, "cache-shards", 8, "number of cache shards")
	flagSet.Int64Var(&f.cacheBudgetMB, "cache-budget-mb", 256, "inference cache memory budget, in MiB")
}

// buildConstructor returns the single-instance backend constructor used by both the
// reloading factory (when reloadPattern is set) and the buffered pool.
func (f *stackFlags) buildConstructor() func(path string) (model.Model, error) {
	return func(path string) (model.Model, error) {
		if f.engine == "random" {
			spec := "random:0,0.5:0.3"
			if f.device != "" {
				spec = "random:" + f.device + ",0.5:0.3"
			}
			return modelfile.NewFromSpec(spec)
		}
		spec := f.engine
		if f.device != "" {
			spec += ":" + f.device
		}
		spec += "," + path
		return modelfile.NewFromSpec(spec)
	}
}

// buildBackend resolves this flag set into a single model.Model: directly from modelPath, or
// through a reloading.Factory when reloadPattern is set, optionally wrapped in a buffered
// pool of bufferSize identical workers.
func (f *stackFlags) buildBackend(name string) (model.Model, error) {
	construct := f.buildConstructor()

	newWorker := func() (model.Model, error) {
		if f.reloadPattern != "" {
			rf, err := reloading.NewFactory(f.reloadPattern, construct)
			if err != nil {
				return nil, errors.Wrap(err, "infer-serve: starting reloading factory")
			}
			return rf.New(name)
		}
		return construct(f.modelPath)
	}

	if f.bufferSize <= 1 {
		return newWorker()
	}

	workers := make([]model.Model, f.bufferSize)
	for i := range workers {
		w, err := newWorker()
		if err != nil {
			return nil, errors.Wrapf(err, "infer-serve: constructing buffered worker %d", i)
		}
		workers[i] = w
	}
	return buffered.New(name, workers)
}

// buildBatcherFactory builds a batcher.Factory whose backend constructor builds a fresh
// (buffered, possibly reloading) backend per distinct model path it's asked for.
func (f *stackFlags) buildBatcherFactory() *batcher.Factory {
	return batcher.NewFactory(f.batchSize, f.buildBackend)
}

// buildCache builds the sharded inference cache sized from the configured memory budget.
func (f *stackFlags) buildCache() (*cache.Cache, error) {
	capacity := cache.CapacityForBudget(f.cacheShards, f.cacheBudgetMB*1<<20)
	c, err := cache.New(f.cacheShards, capacity)
	if err != nil {
		return nil, errors.Wrap(err, "infer-serve: building cache")
	}
	klog.V(1).Infof("cache built with %d shards, %d entries total", f.cacheShards, capacity)
	return c, nil
}
