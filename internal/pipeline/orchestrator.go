package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/cisaudit/internal/benchmark"
	"github.com/dgallion1/cisaudit/internal/config"
	"github.com/dgallion1/cisaudit/internal/parser"
)

// ErrQueueFull is returned by Submit when no queue slot is free.
var ErrQueueFull = errors.New("job queue is full")

// Orchestrator manages the benchmark ingest pipeline.
type Orchestrator struct {
	jobs      *JobStore
	queue     chan *Job
	repo      Repository
	log       *slog.Logger
	cfg       config.Config
	parseOpts parser.Options
	benchOpts benchmark.Options

	// Cleaners run on the cleanup ticker alongside the job store.
	cleaners []func()

	stopOnce sync.Once
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, repo Repository, log *slog.Logger, cleaners ...func()) *Orchestrator {
	return &Orchestrator{
		jobs:      NewJobStore(cfg.JobTTL),
		queue:     make(chan *Job, cfg.MaxQueueSize),
		repo:      repo,
		log:       log,
		cfg:       cfg,
		parseOpts: parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
		benchOpts: benchmark.Options{Marker: cfg.TOCMarker, StopMarker: cfg.TOCStopMarker},
		cleaners:  cleaners,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.repo, o.log, o.parseOpts, o.benchOpts)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
				for _, clean := range o.cleaners {
					clean()
				}
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline. Queued jobs that have not
// started are dropped.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		if o.cancel != nil {
			o.cancel()
		}
		o.wg.Wait()
	})
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
