// Package store persists the regulatory intelligence pipeline's state:
// ingested documents, their classifications, gap analyses, and the
// remediation tasks generated from them. Two drivers are provided,
// SQLite for local single-operator use and PostgreSQL for shared
// deployments.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/clearledger/regintel/internal/model"
)

// ErrNotFound is returned when a lookup matches no row. Callers that
// treat missing rows as skippable check for it with errors.Is.
var ErrNotFound = eris.New("store: not found")

// DocumentFilter specifies criteria for listing documents.
type DocumentFilter struct {
	Source model.Source `json:"source,omitempty"`
	Limit  int          `json:"limit,omitempty"`
	Offset int          `json:"offset,omitempty"`
}

// ClassifiedDocument pairs a document with its classification for
// queries that join the two.
type ClassifiedDocument struct {
	Document       model.Document       `json:"document"`
	Classification model.Classification `json:"classification"`
}

// PriorityDocument is a gate-passing document with its classification
// and, when gap analysis has run, the assessed severity and effort.
type PriorityDocument struct {
	Document       model.Document       `json:"document"`
	Classification model.Classification `json:"classification"`
	Severity       model.Severity       `json:"severity,omitempty"`
	EffortHours    int                  `json:"effort_hours,omitempty"`
}

// Analyzed reports whether a gap analysis exists for the document.
func (p *PriorityDocument) Analyzed() bool {
	return p.Severity != ""
}

// Store defines the persistence interface for the pipeline.
type Store interface {
	// Documents
	CreateDocument(ctx context.Context, doc *model.Document) error
	ImportDocuments(ctx context.Context, docs []model.Document) (int, error)
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	GetDocumentBySourceID(ctx context.Context, source model.Source, documentID string) (*model.Document, error)
	DocumentExists(ctx context.Context, source model.Source, documentID string) (bool, error)
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.Document, error)

	// Classifications
	CreateClassification(ctx context.Context, c *model.Classification) error
	GetClassificationByDocument(ctx context.Context, docID string) (*model.Classification, error)
	ClassificationExists(ctx context.Context, docID string) (bool, error)

	// Gap analyses
	CreateGapAnalysis(ctx context.Context, g *model.GapAnalysis) error
	GetGapAnalysisByDocument(ctx context.Context, docID string) (*model.GapAnalysis, error)
	GapAnalysisExists(ctx context.Context, docID string) (bool, error)
	ListClassifiedWithoutAnalysis(ctx context.Context, minRelevance int, minConfidence float64, limit int) ([]ClassifiedDocument, error)
	ListPriority(ctx context.Context, minRelevance int, minConfidence float64, limit int) ([]PriorityDocument, error)

	// Tasks
	CreateTasks(ctx context.Context, tasks []model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	ListTasksByAnalysis(ctx context.Context, analysisID string) ([]model.Task, error)
	TasksExistForAnalysis(ctx context.Context, analysisID string) (bool, error)
	UpdateTaskStatus(ctx context.Context, taskID string, status model.TaskStatus) error
	ListOpenTasks(ctx context.Context, limit int) ([]model.Task, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
