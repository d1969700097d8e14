// Package stress drives a cache with concurrent readers and writers and
// verifies the structure afterwards.
package stress

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	cmerrors "cachemgr/pkg/errors"
)

// Store is the subset of the cache API the workload exercises.
type Store interface {
	Put(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
	Len() int
	Cap() int
	Check() error
}

// Config sizes a run. Writers put random keys and delete the key just
// written every DeleteEvery operations; readers get random keys.
type Config struct {
	Writers      int
	Readers      int
	OpsPerWorker int
	KeySpace     int
	DeleteEvery  int
	Seed         int64
}

// Report summarizes a completed run.
type Report struct {
	Puts      int64         `json:"puts"`
	Deletes   int64         `json:"deletes"`
	NotFound  int64         `json:"not_found"`
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	FinalSize int           `json:"final_size"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

type counters struct {
	puts, deletes, notFound, hits, misses atomic.Int64
}

// Run starts all workers, waits for them and checks the store. It stops
// early when ctx is cancelled or a worker sees an unexpected error.
func Run(ctx context.Context, store Store, cfg Config, log *zap.Logger) (Report, error) {
	if store == nil || cfg.KeySpace < 1 {
		return Report{}, cmerrors.ErrInvalidArgument
	}
	if log == nil {
		log = zap.NewNop()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var cnt counters
	g, gctx := errgroup.WithContext(ctx)

	log.Info("stress run starting",
		zap.Int("writers", cfg.Writers),
		zap.Int("readers", cfg.Readers),
		zap.Int("ops_per_worker", cfg.OpsPerWorker),
		zap.Int("key_space", cfg.KeySpace),
		zap.Int64("seed", seed),
	)
	start := time.Now()

	for i := 0; i < cfg.Writers; i++ {
		id, rng := i, rand.New(rand.NewSource(seed+int64(i)))
		g.Go(func() error {
			if err := writer(gctx, store, cfg, id, rng, &cnt); err != nil {
				return fmt.Errorf("writer %d: %w", id, err)
			}
			return nil
		})
	}
	for i := 0; i < cfg.Readers; i++ {
		id, rng := i, rand.New(rand.NewSource(seed+int64(cfg.Writers+i)))
		g.Go(func() error {
			if err := reader(gctx, store, cfg, rng, &cnt); err != nil {
				return fmt.Errorf("reader %d: %w", id, err)
			}
			return nil
		})
	}
	runErr := g.Wait()

	report := Report{
		Puts:      cnt.puts.Load(),
		Deletes:   cnt.deletes.Load(),
		NotFound:  cnt.notFound.Load(),
		Hits:      cnt.hits.Load(),
		Misses:    cnt.misses.Load(),
		FinalSize: store.Len(),
		Elapsed:   time.Since(start),
	}

	if runErr != nil {
		return report, runErr
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	if report.FinalSize > store.Cap() {
		return report, fmt.Errorf("%w: size %d over capacity %d", cmerrors.ErrInconsistent, report.FinalSize, store.Cap())
	}
	if err := store.Check(); err != nil {
		return report, err
	}

	log.Info("stress run finished",
		zap.Int64("puts", report.Puts),
		zap.Int64("deletes", report.Deletes),
		zap.Int64("hits", report.Hits),
		zap.Int64("misses", report.Misses),
		zap.Int("final_size", report.FinalSize),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func writer(ctx context.Context, store Store, cfg Config, id int, rng *rand.Rand, cnt *counters) error {
	for i := 0; i < cfg.OpsPerWorker; i++ {
		if ctx.Err() != nil {
			return nil
		}
		key := fmt.Sprintf("key-%d", rng.Intn(cfg.KeySpace))
		if err := store.Put(key, fmt.Sprintf("val-%d-%d", id, i)); err != nil {
			return err
		}
		cnt.puts.Add(1)

		if cfg.DeleteEvery > 0 && i%cfg.DeleteEvery == 0 {
			err := store.Delete(key)
			switch {
			case err == nil:
				cnt.deletes.Add(1)
			case errors.Is(err, cmerrors.ErrNotFound):
				// another writer or an eviction got there first
				cnt.notFound.Add(1)
			default:
				return err
			}
		}
	}
	return nil
}

func reader(ctx context.Context, store Store, cfg Config, rng *rand.Rand, cnt *counters) error {
	for i := 0; i < cfg.OpsPerWorker; i++ {
		if ctx.Err() != nil {
			return nil
		}
		key := fmt.Sprintf("key-%d", rng.Intn(cfg.KeySpace))
		_, err := store.Get(key)
		switch {
		case err == nil:
			cnt.hits.Add(1)
		case errors.Is(err, cmerrors.ErrMiss):
			cnt.misses.Add(1)
		default:
			return err
		}
	}
	return nil
}
