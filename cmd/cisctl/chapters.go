package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/cisaudit/internal/benchmark"
)

func newChaptersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chapters BENCHMARK_ID",
		Short: "Print the stored chapters of a benchmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			tables, err := st.LoadTables(ctx, args[0])
			if err != nil {
				return err
			}
			chapters := tables.Chapters
			if chapters == nil {
				chapters = []benchmark.Chapter{}
			}
			return render(cmd.OutOrStdout(), a.format, chapters)
		},
	}
}
