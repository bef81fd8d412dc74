package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clearledger/regintel/internal/model"
	"github.com/clearledger/regintel/internal/store"
)

var (
	classifySource string
	classifyDocID  string
	classifyLimit  int
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify documents and run the gated gap-analysis pipeline",
	Long:  "Classifies a single document when --source and --document-id are given, otherwise classifies every stored document without a classification.",
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

		if classifyDocID != "" {
			if classifySource == "" {
				return eris.New("--source is required with --document-id")
			}
			doc, err := st.GetDocumentBySourceID(ctx, model.Source(classifySource), classifyDocID)
			if err != nil {
				return eris.Wrapf(err, "resolve %s/%s", classifySource, classifyDocID)
			}

			outcome, err := orch.ClassifyAndStore(ctx, doc)
			if err != nil {
				return eris.Wrap(err, "classify")
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(outcome)
		}

		docs, err := unclassifiedDocuments(cmd, st, classifyLimit)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			zap.L().Info("no unclassified documents")
			return nil
		}

		items := orch.ClassifyBatch(ctx, docs)

		classified, failed := 0, 0
		for _, item := range items {
			if item.Err != nil {
				failed++
				continue
			}
			classified++
		}
		zap.L().Info("classification batch complete",
			zap.Int("classified", classified),
			zap.Int("failed", failed),
		)
		if failed > 0 {
			return eris.Errorf("%d of %d documents failed", failed, len(items))
		}
		return nil
	},
}

func unclassifiedDocuments(cmd *cobra.Command, st store.Store, limit int) ([]*model.Document, error) {
	ctx := cmd.Context()
	all, err := st.ListDocuments(ctx, store.DocumentFilter{Source: model.Source(classifySource), Limit: limit})
	if err != nil {
		return nil, eris.Wrap(err, "list documents")
	}

	var pending []*model.Document
	for i := range all {
		exists, err := st.ClassificationExists(ctx, all[i].ID)
		if err != nil {
			return nil, eris.Wrapf(err, "check classification for %s", all[i].ID)
		}
		if !exists {
			pending = append(pending, &all[i])
		}
	}
	return pending, nil
}

func init() {
	classifyCmd.Flags().StringVar(&classifySource, "source", "", "document source (fincen, sec, ...)")
	classifyCmd.Flags().StringVar(&classifyDocID, "document-id", "", "source-native document identifier")
	classifyCmd.Flags().IntVar(&classifyLimit, "limit", 100, "max documents to scan in batch mode")
	rootCmd.AddCommand(classifyCmd)
}
