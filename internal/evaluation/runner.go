package evaluation

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clearledger/regintel/internal/agent"
	"github.com/clearledger/regintel/internal/model"
	"github.com/clearledger/regintel/internal/store"
)

// Skip records a benchmark case that could not be evaluated.
type Skip struct {
	DocumentID string
	Reason     string
}

// Runner resolves benchmark documents from the store, classifies them
// with a bounded worker pool, and scores the results. It never writes
// to the store.
type Runner struct {
	store      store.Store
	classifier agent.Classifier
	workers    int
}

// NewRunner builds a Runner. Workers below 1 are clamped to 1.
func NewRunner(st store.Store, classifier agent.Classifier, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{store: st, classifier: classifier, workers: workers}
}

// Run evaluates the benchmark. Cases whose document is missing from the
// store, and cases whose classification call fails, are skipped with a
// reason. The run fails only when no case at all could be evaluated.
func (r *Runner) Run(ctx context.Context, bench *Benchmark, tolerance int) (*Report, []Skip, error) {
	start := time.Now()

	var (
		resolved []TestCase
		docs     []*model.Document
		skipped  []Skip
	)
	for _, tc := range bench.Cases {
		doc, err := r.store.GetDocumentBySourceID(ctx, model.Source(tc.Source), tc.DocumentID)
		if err != nil {
			reason := "not found"
			if !errors.Is(err, store.ErrNotFound) {
				reason = err.Error()
			}
			zap.L().Warn("skipping benchmark case",
				zap.String("document_id", tc.DocumentID),
				zap.String("reason", reason))
			skipped = append(skipped, Skip{DocumentID: tc.DocumentID, Reason: reason})
			continue
		}
		resolved = append(resolved, tc)
		docs = append(docs, doc)
	}

	results := make([]*agent.ClassificationResult, len(docs))
	errs := make([]error, len(docs))

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, doc := range docs {
		g.Go(func() error {
			res, err := r.classifier.Classify(ctx, agent.DocumentInput{
				Title:         doc.Title,
				Source:        string(doc.Source),
				PublishedDate: publishedDate(doc),
				Content:       doc.Content,
			})
			results[i], errs[i] = res, err
			return nil
		})
	}
	_ = g.Wait()

	var (
		cases       []TestCase
		predictions []Prediction
	)
	for i, tc := range resolved {
		if errs[i] != nil {
			zap.L().Error("benchmark classification failed",
				zap.String("document_id", tc.DocumentID),
				zap.Error(errs[i]))
			skipped = append(skipped, Skip{DocumentID: tc.DocumentID, Reason: errs[i].Error()})
			continue
		}
		res := results[i]
		pillars := make([]string, len(res.Pillars))
		for j, p := range res.Pillars {
			pillars[j] = string(p)
		}
		cases = append(cases, tc)
		predictions = append(predictions, Prediction{
			RelevanceScore:      res.RelevanceScore,
			Confidence:          res.Confidence,
			Pillars:             pillars,
			Categories:          res.Categories,
			RequiresHumanReview: res.RequiresHumanReview,
		})
	}

	if len(cases) == 0 {
		return nil, skipped, eris.Errorf("evaluation: no benchmark case could be evaluated (%d skipped)", len(skipped))
	}

	report, err := Evaluate(cases, predictions, tolerance)
	if err != nil {
		return nil, skipped, err
	}

	zap.L().Info("evaluation complete",
		zap.Int("evaluated", len(cases)),
		zap.Int("skipped", len(skipped)),
		zap.Duration("elapsed", time.Since(start)))

	return report, skipped, nil
}

func publishedDate(doc *model.Document) string {
	if doc.PublishedDate == nil {
		return "unknown"
	}
	return doc.PublishedDate.Format("2006-01-02")
}
