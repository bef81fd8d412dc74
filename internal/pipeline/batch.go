package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clearledger/regintel/internal/model"
)

// BatchItem pairs a document with its classification outcome. Exactly
// one of Outcome and Err is set.
type BatchItem struct {
	Document *model.Document
	Outcome  *ClassifyOutcome
	Err      error
}

// ClassifyBatch classifies documents over a bounded worker pool. Results
// occupy the slot matching their input index, so callers can pair them
// with expected records regardless of completion order. A failing item
// records its error in place and never cancels siblings.
func (o *Orchestrator) ClassifyBatch(ctx context.Context, docs []*model.Document) []BatchItem {
	results := make([]BatchItem, len(docs))

	g := new(errgroup.Group)
	g.SetLimit(o.workers)

	for i, doc := range docs {
		g.Go(func() error {
			outcome, err := o.ClassifyAndStore(ctx, doc)
			if err != nil {
				zap.L().Warn("pipeline: batch item failed",
					zap.String("document_id", doc.DocumentID),
					zap.Error(err),
				)
			}
			results[i] = BatchItem{Document: doc, Outcome: outcome, Err: err}
			return nil
		})
	}

	// Worker errors are recorded per item, never returned.
	_ = g.Wait()

	classified := 0
	for _, r := range results {
		if r.Err == nil {
			classified++
		}
	}
	zap.L().Info("pipeline: batch complete",
		zap.Int("total", len(docs)),
		zap.Int("succeeded", classified),
		zap.Int("failed", len(docs)-classified),
	)
	return results
}
