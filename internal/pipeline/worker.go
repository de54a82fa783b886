package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/cisaudit/internal/benchmark"
	"github.com/dgallion1/cisaudit/internal/doctree"
	"github.com/dgallion1/cisaudit/internal/parser"
	"github.com/dgallion1/cisaudit/internal/store"
)

// Repository is the benchmark storage the pipeline writes to.
type Repository interface {
	GetBenchmark(ctx context.Context, id string) (store.Benchmark, error)
	SaveBenchmark(ctx context.Context, b store.Benchmark, t benchmark.Tables) error
}

// Worker processes a single benchmark job.
type Worker struct {
	repo      Repository
	log       *slog.Logger
	parseOpts parser.Options
	benchOpts benchmark.Options
	backoff   func(attempt int) time.Duration
}

func NewWorker(repo Repository, log *slog.Logger, parseOpts parser.Options, benchOpts benchmark.Options) *Worker {
	return &Worker{
		repo:      repo,
		log:       log,
		parseOpts: parseOpts,
		benchOpts: benchOpts,
		backoff:   Backoff,
	}
}

// ParseFile selects a parser by extension and reads the document pages.
func ParseFile(filename string, data []byte, opts parser.Options) (*doctree.Document, error) {
	p, err := parser.ForFile(filename, opts)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	return doc, nil
}

// ExtractFile parses one document and extracts its benchmark tables.
func ExtractFile(filename string, data []byte, parseOpts parser.Options, benchOpts benchmark.Options) (*doctree.Document, benchmark.Tables, error) {
	doc, err := ParseFile(filename, data, parseOpts)
	if err != nil {
		return nil, benchmark.Tables{}, err
	}
	return doc, benchmark.Extract(doc.Texts(), benchOpts), nil
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "benchmark_id", job.BenchmarkID)
	defer job.releaseFileData()

	// Phase 0: Dedup check
	if !job.Force {
		existing, err := w.repo.GetBenchmark(ctx, job.BenchmarkID)
		switch {
		case err == nil:
			log.Info("duplicate benchmark, skipping", "existing_filename", existing.Filename)
			job.SetTitle(existing.Title)
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		case !errors.Is(err, store.ErrNotFound):
			log.Warn("dedup check failed, proceeding", "error", err)
		}
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	doc, err := ParseFile(job.Filename, job.FileData(), w.parseOpts)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.SetPages(len(doc.Pages))
	job.SetTitle(doc.Title)
	log.Info("parsed document", "pages", len(doc.Pages))

	// Phase 2: Extract outline and chapter content
	job.SetStatus(StatusExtracting, "extracting")
	tables := benchmark.Extract(doc.Texts(), w.benchOpts)
	job.SetExtracted(len(tables.Chapters), len(tables.Audits), len(tables.Remediations))
	log.Info("extraction complete",
		"chapters", len(tables.Chapters),
		"audits", len(tables.Audits),
		"remediations", len(tables.Remediations),
	)
	if len(tables.Chapters) == 0 {
		log.Warn("no outline entries found", "marker", w.benchOpts.Marker)
	}

	// Phase 3: Store
	job.SetStatus(StatusStoring, "storing")
	meta := store.Benchmark{
		ID:          job.BenchmarkID,
		Filename:    job.Filename,
		Title:       doc.Title,
		ContentHash: job.ContentHash,
		CreatedAt:   job.CreatedAt,
	}
	if err := w.save(ctx, log, meta, tables); err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) save(ctx context.Context, log *slog.Logger, b store.Benchmark, t benchmark.Tables) error {
	var lastErr error
	for attempt := range MaxRetries {
		lastErr = w.repo.SaveBenchmark(ctx, b, t)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		log.Warn("retryable store error", "attempt", attempt, "error", lastErr)
		if attempt == MaxRetries-1 {
			break
		}
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
