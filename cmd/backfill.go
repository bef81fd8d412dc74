package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var backfillLimit int

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Run gap analysis for gated classifications that never got one",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		orch, err := initOrchestrator(st)
		if err != nil {
			return err
		}

		result, err := orch.BackfillGapAnalyses(ctx, backfillLimit)
		if err != nil {
			return eris.Wrap(err, "backfill")
		}

		zap.L().Info("backfill complete",
			zap.Int("scanned", result.Scanned),
			zap.Int("completed", result.Completed),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed),
		)
		return nil
	},
}

func init() {
	backfillCmd.Flags().IntVar(&backfillLimit, "limit", 50, "max classifications to backfill")
	rootCmd.AddCommand(backfillCmd)
}
