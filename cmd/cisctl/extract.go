package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/cisaudit/internal/benchmark"
	"github.com/dgallion1/cisaudit/internal/parser"
	"github.com/dgallion1/cisaudit/internal/pipeline"
	"github.com/dgallion1/cisaudit/internal/store"
)

type extractResult struct {
	File        string           `json:"file" yaml:"file"`
	BenchmarkID string           `json:"benchmark_id" yaml:"benchmark_id"`
	Title       string           `json:"title" yaml:"title"`
	Pages       int              `json:"pages" yaml:"pages"`
	Saved       bool             `json:"saved" yaml:"saved"`
	Skipped     bool             `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Tables      benchmark.Tables `json:"tables" yaml:"tables"`
}

func newExtractCmd(a *app) *cobra.Command {
	var (
		save       bool
		force      bool
		jobs       int
		noFallback bool
		opts       = benchmark.DefaultOptions()
	)
	cmd := &cobra.Command{
		Use:   "extract FILE...",
		Short: "Extract chapters, audit and remediation tables from documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			parseOpts := parser.Options{PDFFallbackPdftotext: !noFallback}

			var st *store.Store
			if save {
				var err error
				if st, err = a.openStore(ctx); err != nil {
					return err
				}
				defer st.Close()
			}

			results := make([]extractResult, len(args))
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(max(jobs, 1))
			for i, path := range args {
				g.Go(func() error {
					data, err := os.ReadFile(path)
					if err != nil {
						return fmt.Errorf("read %s: %w", path, err)
					}
					filename := filepath.Base(path)
					doc, tables, err := pipeline.ExtractFile(filename, data, parseOpts, opts)
					if err != nil {
						return err
					}
					hash := pipeline.ContentHashHex(data)
					res := extractResult{
						File:        path,
						BenchmarkID: pipeline.BenchmarkID(hash),
						Title:       doc.Title,
						Pages:       len(doc.Pages),
						Tables:      tables,
					}
					a.log.Debug("extracted", "file", path, "pages", res.Pages, "chapters", len(tables.Chapters))

					if st != nil {
						_, err := st.FindByHash(gctx, hash)
						switch {
						case err == nil && !force:
							res.Skipped = true
							a.log.Info("benchmark already stored, skipping", "file", path, "benchmark_id", res.BenchmarkID)
						case err != nil && !errors.Is(err, store.ErrNotFound):
							return err
						default:
							meta := store.Benchmark{
								ID:          res.BenchmarkID,
								Filename:    filename,
								Title:       doc.Title,
								ContentHash: hash,
							}
							if err := st.SaveBenchmark(gctx, meta, tables); err != nil {
								return fmt.Errorf("save %s: %w", path, err)
							}
							res.Saved = true
							a.log.Info("benchmark saved", "file", path, "benchmark_id", res.BenchmarkID, "chapters", len(tables.Chapters))
						}
					}
					results[i] = res
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.format, results)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&save, "save", false, "store the extracted tables in the database")
	f.BoolVar(&force, "force", false, "with --save, replace a benchmark that is already stored")
	f.IntVarP(&jobs, "jobs", "j", 4, "files processed concurrently")
	f.BoolVar(&noFallback, "no-pdftotext", false, "do not fall back to pdftotext for unreadable PDFs")
	f.StringVar(&opts.Marker, "toc-marker", opts.Marker, "phrase that opens the table of contents")
	f.StringVar(&opts.StopMarker, "toc-stop", opts.StopMarker, "phrase that ends the table of contents")
	return cmd
}
