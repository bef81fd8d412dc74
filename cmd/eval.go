package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/clearledger/regintel/internal/evaluation"
)

var (
	evalBenchmark     string
	evalTolerance     int
	evalErrorAnalysis bool
	evalSummaryOnly   bool
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score the classifier against a labeled benchmark",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		path := evalBenchmark
		if path == "" {
			path = cfg.Eval.BenchmarkPath
		}
		bench, err := evaluation.Load(path)
		if err != nil {
			return err
		}

		if evalSummaryOnly {
			fmt.Print(evaluation.RenderSummary(evaluation.Summarize(bench)))
			return nil
		}

		tolerance := evalTolerance
		if !cmd.Flags().Changed("tolerance") {
			tolerance = cfg.Eval.RelevanceTolerance
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		classifier, err := initClassifier()
		if err != nil {
			return err
		}

		runner := evaluation.NewRunner(st, classifier, cfg.Pipeline.Workers)
		report, skipped, err := runner.Run(ctx, bench, tolerance)
		if err != nil {
			return eris.Wrap(err, "run evaluation")
		}

		fmt.Print(evaluation.Render(report))

		if evalErrorAnalysis {
			fmt.Println()
			fmt.Print(evaluation.RenderErrorAnalysis(report))
		}

		if len(skipped) > 0 {
			fmt.Printf("\nSkipped %d cases:\n", len(skipped))
			for _, s := range skipped {
				fmt.Printf("  %s: %s\n", s.DocumentID, s.Reason)
			}
		}
		return nil
	},
}

func init() {
	evalCmd.Flags().StringVar(&evalBenchmark, "benchmark", "", "path to benchmark file (defaults to config)")
	evalCmd.Flags().IntVar(&evalTolerance, "tolerance", evaluation.DefaultTolerance, "relevance error treated as correct for calibration")
	evalCmd.Flags().BoolVar(&evalErrorAnalysis, "error-analysis", false, "print per-case error breakdown")
	evalCmd.Flags().BoolVar(&evalSummaryOnly, "summary", false, "print benchmark dataset statistics and exit")
	rootCmd.AddCommand(evalCmd)
}
