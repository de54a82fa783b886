package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/cisaudit/internal/assess"
	"github.com/dgallion1/cisaudit/internal/benchmark"
)

// answer is one line of an answers file. Chapter is a hierarchy code such as
// "1.1.2" or a numeric chapter id.
type answer struct {
	Chapter string         `yaml:"chapter"`
	Verdict assess.Verdict `yaml:"verdict"`
}

func newFindingsCmd(a *app) *cobra.Command {
	var answersPath string
	cmd := &cobra.Command{
		Use:   "findings BENCHMARK_ID",
		Short: "Apply an answers file to a stored benchmark and print the findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			answers, err := readAnswers(answersPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			tables, err := st.LoadTables(ctx, args[0])
			if err != nil {
				return err
			}

			assessment, err := applyAnswers(tables, answers)
			if err != nil {
				return err
			}
			answered, total := assessment.Progress()
			a.log.Info("answers applied", "benchmark_id", args[0], "answered", answered, "total", total)

			return render(cmd.OutOrStdout(), a.format, assess.Filter(tables, assessment))
		},
	}
	cmd.Flags().StringVar(&answersPath, "answers", "", `answers YAML file ("-" for stdin)`)
	cmd.MarkFlagRequired("answers")
	return cmd
}

func readAnswers(path string, stdin io.Reader) ([]answer, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}

	var answers []answer
	if err := yaml.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("parse answers: %w", err)
	}
	return answers, nil
}

// applyAnswers records the answers in file order.
func applyAnswers(t benchmark.Tables, answers []answer) (*assess.Assessment, error) {
	byCode := make(map[string]int, len(t.Chapters))
	for _, c := range t.Chapters {
		if c.Code != "" {
			if _, ok := byCode[c.Code]; !ok {
				byCode[c.Code] = c.ID
			}
		}
	}

	a := assess.New(benchmark.NewHierarchy(t.Chapters))
	for i, ans := range answers {
		id, ok := byCode[ans.Chapter]
		if !ok {
			n, err := strconv.Atoi(ans.Chapter)
			if err != nil {
				return nil, fmt.Errorf("answer %d: chapter %q: %w", i+1, ans.Chapter, assess.ErrUnknownChapter)
			}
			id = n
		}
		if _, err := a.Record(id, ans.Verdict); err != nil {
			return nil, fmt.Errorf("answer %d: %w", i+1, err)
		}
	}
	return a, nil
}
