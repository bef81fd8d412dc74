// Package pipeline orchestrates the regulatory intelligence flow:
// classify a document, gate it on relevance and confidence, run gap
// analysis against the control framework, and generate remediation
// tasks. Each stage is idempotent via store existence checks, and
// downstream failures never invalidate upstream artifacts.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/clearledger/regintel/internal/agent"
	"github.com/clearledger/regintel/internal/model"
	"github.com/clearledger/regintel/internal/store"
)

// Gate thresholds. A document proceeds to gap analysis only when its
// classification meets both, inclusive.
const (
	RelevanceThreshold  = 3
	ConfidenceThreshold = 0.7
)

// ClassifyStatus reports how ClassifyAndStore resolved a document.
type ClassifyStatus string

const (
	ClassifyStatusClassified        ClassifyStatus = "classified"
	ClassifyStatusAlreadyClassified ClassifyStatus = "already_classified"
)

// ClassifyOutcome is the result of classifying a single document.
type ClassifyOutcome struct {
	Status         ClassifyStatus        `json:"status"`
	Classification *model.Classification `json:"classification"`
	// GapAnalysis reports the downstream trigger when the gate passed;
	// nil means the gate was not met or the document was already
	// classified.
	GapAnalysis *TriggerResult `json:"gap_analysis,omitempty"`
}

// TriggerStatus reports how a downstream trigger resolved.
type TriggerStatus string

const (
	TriggerCompleted     TriggerStatus = "completed"
	TriggerSkippedExists TriggerStatus = "skipped_exists"
	TriggerFailed        TriggerStatus = "failed"
)

// TriggerResult is the contained outcome of a gap-analysis or
// task-generation trigger. Trigger failures are reported here rather
// than propagated, so an upstream classification stays valid.
type TriggerResult struct {
	Status     TriggerStatus  `json:"status"`
	Reason     string         `json:"reason,omitempty"`
	AnalysisID string         `json:"analysis_id,omitempty"`
	Tasks      *TriggerResult `json:"tasks,omitempty"`
	TaskCount  int            `json:"task_count,omitempty"`
}

// BackfillResult summarizes a backfill pass.
type BackfillResult struct {
	Scanned   int `json:"scanned"`
	Completed int `json:"completed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// IngestStatus reports how IngestDocument resolved.
type IngestStatus string

const (
	IngestStatusStored        IngestStatus = "stored"
	IngestStatusAlreadyExists IngestStatus = "already_exists"
)

// Orchestrator wires the classifier, analyzer and store together. All
// dependencies are injected; it holds no global state.
type Orchestrator struct {
	store      store.Store
	classifier agent.Classifier
	analyzer   agent.Analyzer
	workers    int
}

// NewOrchestrator creates an Orchestrator. workers bounds the batch
// classification pool; values below 1 are raised to 1.
func NewOrchestrator(st store.Store, classifier agent.Classifier, analyzer agent.Analyzer, workers int) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		store:      st,
		classifier: classifier,
		analyzer:   analyzer,
		workers:    workers,
	}
}

// IngestDocument stores a new document, skipping natural-key duplicates.
// The existence check is best-effort: two racing ingesters can both pass
// it, in which case the second insert fails on the unique constraint.
func (o *Orchestrator) IngestDocument(ctx context.Context, doc *model.Document) (IngestStatus, error) {
	if err := doc.Validate(); err != nil {
		return "", eris.Wrap(err, "pipeline: ingest validate")
	}

	exists, err := o.store.DocumentExists(ctx, doc.Source, doc.DocumentID)
	if err != nil {
		return "", eris.Wrap(err, "pipeline: ingest existence check")
	}
	if exists {
		zap.L().Debug("pipeline: document already ingested",
			zap.String("source", string(doc.Source)),
			zap.String("document_id", doc.DocumentID),
		)
		return IngestStatusAlreadyExists, nil
	}

	if err := o.store.CreateDocument(ctx, doc); err != nil {
		return "", eris.Wrap(err, "pipeline: ingest create")
	}
	return IngestStatusStored, nil
}

// ClassifyAndStore classifies a document and persists the result. If a
// classification already exists the call is an idempotent no-op that
// returns the stored record. When the new classification meets the gate,
// gap analysis is triggered inline; its outcome is reported on the
// ClassifyOutcome and never fails the classification itself.
func (o *Orchestrator) ClassifyAndStore(ctx context.Context, doc *model.Document) (*ClassifyOutcome, error) {
	log := zap.L().With(
		zap.String("source", string(doc.Source)),
		zap.String("document_id", doc.DocumentID),
	)

	exists, err := o.store.ClassificationExists(ctx, doc.ID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: classification existence check")
	}
	if exists {
		existing, err := o.store.GetClassificationByDocument(ctx, doc.ID)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: load existing classification")
		}
		log.Debug("pipeline: document already classified")
		return &ClassifyOutcome{
			Status:         ClassifyStatusAlreadyClassified,
			Classification: existing,
		}, nil
	}

	result, err := o.classifier.Classify(ctx, classifyInput(doc))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: classify")
	}

	cls := &model.Classification{
		DocumentID:          doc.ID,
		RelevanceScore:      result.RelevanceScore,
		Confidence:          result.Confidence,
		Pillars:             result.Pillars,
		Categories:          result.Categories,
		Reasoning:           result.Reasoning,
		RequiresHumanReview: result.RequiresHumanReview,
		ModelUsed:           result.ModelUsed,
	}
	if err := o.store.CreateClassification(ctx, cls); err != nil {
		return nil, eris.Wrap(err, "pipeline: store classification")
	}

	outcome := &ClassifyOutcome{
		Status:         ClassifyStatusClassified,
		Classification: cls,
	}

	if MeetsGate(cls.RelevanceScore, cls.Confidence) {
		outcome.GapAnalysis = o.TriggerGapAnalysis(ctx, doc, cls)
	} else {
		log.Info("pipeline: classification below gate",
			zap.Int("relevance", cls.RelevanceScore),
			zap.Float64("confidence", cls.Confidence),
		)
	}

	return outcome, nil
}

// MeetsGate reports whether a classification qualifies for gap analysis.
// Both thresholds are inclusive.
func MeetsGate(relevance int, confidence float64) bool {
	return relevance >= RelevanceThreshold && confidence >= ConfidenceThreshold
}

// TriggerGapAnalysis runs the gap analyzer for a classified document and
// persists the result, then triggers task generation. Every failure is
// contained in the returned TriggerResult.
func (o *Orchestrator) TriggerGapAnalysis(ctx context.Context, doc *model.Document, cls *model.Classification) *TriggerResult {
	log := zap.L().With(
		zap.String("source", string(doc.Source)),
		zap.String("document_id", doc.DocumentID),
	)

	exists, err := o.store.GapAnalysisExists(ctx, doc.ID)
	if err != nil {
		log.Error("pipeline: gap analysis existence check failed", zap.Error(err))
		return &TriggerResult{Status: TriggerFailed, Reason: err.Error()}
	}
	if exists {
		log.Debug("pipeline: gap analysis already exists")
		return &TriggerResult{Status: TriggerSkippedExists}
	}

	result, err := o.analyzer.Analyze(ctx, analyzeInput(doc, cls))
	if err != nil {
		log.Error("pipeline: gap analysis failed", zap.Error(err))
		return &TriggerResult{Status: TriggerFailed, Reason: err.Error()}
	}

	ga := &model.GapAnalysis{
		DocumentID:       doc.ID,
		Severity:         result.Severity,
		AffectedControls: result.AffectedControls,
		TotalEffortHours: result.TotalEffortHours,
		Summary:          result.Summary,
		Recommendations:  result.Reasoning,
		ModelUsed:        result.ModelUsed,
	}
	if err := o.store.CreateGapAnalysis(ctx, ga); err != nil {
		log.Error("pipeline: store gap analysis failed", zap.Error(err))
		return &TriggerResult{Status: TriggerFailed, Reason: err.Error()}
	}

	tr := &TriggerResult{
		Status:     TriggerCompleted,
		AnalysisID: ga.ID,
	}
	tr.Tasks = o.TriggerTaskGeneration(ctx, doc, ga)
	return tr
}

// TriggerTaskGeneration generates and persists remediation tasks for a
// gap analysis. Idempotent per analysis id; failures are contained.
func (o *Orchestrator) TriggerTaskGeneration(ctx context.Context, doc *model.Document, ga *model.GapAnalysis) *TriggerResult {
	log := zap.L().With(zap.String("analysis_id", ga.ID))

	exists, err := o.store.TasksExistForAnalysis(ctx, ga.ID)
	if err != nil {
		log.Error("pipeline: task existence check failed", zap.Error(err))
		return &TriggerResult{Status: TriggerFailed, Reason: err.Error()}
	}
	if exists {
		log.Debug("pipeline: tasks already generated")
		return &TriggerResult{Status: TriggerSkippedExists}
	}

	tasks := GenerateTasks(doc.ID, ga.ID, string(ga.Severity), ga.AffectedControls, doc.Title, time.Now().UTC())
	if len(tasks) == 0 {
		log.Info("pipeline: no resolvable control gaps, no tasks generated")
		return &TriggerResult{Status: TriggerCompleted, TaskCount: 0}
	}

	if err := o.store.CreateTasks(ctx, tasks); err != nil {
		log.Error("pipeline: store tasks failed", zap.Error(err))
		return &TriggerResult{Status: TriggerFailed, Reason: err.Error()}
	}

	log.Info("pipeline: tasks generated", zap.Int("count", len(tasks)))
	return &TriggerResult{Status: TriggerCompleted, TaskCount: len(tasks)}
}

// BackfillGapAnalyses finds gate-passing classifications that lack a gap
// analysis and runs the trigger for each. This is the operator path for
// documents classified before gap analysis existed or whose trigger
// failed; it reuses the same idempotent trigger.
func (o *Orchestrator) BackfillGapAnalyses(ctx context.Context, limit int) (*BackfillResult, error) {
	pending, err := o.store.ListClassifiedWithoutAnalysis(ctx, RelevanceThreshold, ConfidenceThreshold, limit)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: backfill query")
	}

	result := &BackfillResult{Scanned: len(pending)}
	for i := range pending {
		doc := pending[i].Document
		cls := pending[i].Classification

		tr := o.TriggerGapAnalysis(ctx, &doc, &cls)
		switch tr.Status {
		case TriggerCompleted:
			result.Completed++
		case TriggerSkippedExists:
			result.Skipped++
		case TriggerFailed:
			result.Failed++
		}
	}

	zap.L().Info("pipeline: backfill complete",
		zap.Int("scanned", result.Scanned),
		zap.Int("completed", result.Completed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func classifyInput(doc *model.Document) agent.DocumentInput {
	return agent.DocumentInput{
		Title:         doc.Title,
		Source:        string(doc.Source),
		PublishedDate: formatDate(doc.PublishedDate),
		Content:       doc.Content,
	}
}

func analyzeInput(doc *model.Document, cls *model.Classification) agent.GapAnalysisInput {
	pillars := make([]string, len(cls.Pillars))
	for i, p := range cls.Pillars {
		pillars[i] = string(p)
	}
	return agent.GapAnalysisInput{
		Title:                   doc.Title,
		Source:                  string(doc.Source),
		PublishedDate:           formatDate(doc.PublishedDate),
		Content:                 doc.Content,
		ClassificationReasoning: cls.Reasoning,
		RelevanceScore:          cls.RelevanceScore,
		Pillars:                 pillars,
		Categories:              cls.Categories,
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "unknown"
	}
	return t.Format("2006-01-02")
}
