package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/clearledger/regintel/internal/agent"
	"github.com/clearledger/regintel/internal/model"
	"github.com/clearledger/regintel/internal/store"
)

// --- Classifier mock ---

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, in agent.DocumentInput) (*agent.ClassificationResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agent.ClassificationResult), args.Error(1)
}

// --- Analyzer mock ---

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) Analyze(ctx context.Context, in agent.GapAnalysisInput) (*agent.GapAnalysisResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agent.GapAnalysisResult), args.Error(1)
}

// --- Store mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *mockStore) ImportDocuments(ctx context.Context, docs []model.Document) (int, error) {
	args := m.Called(ctx, docs)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *mockStore) GetDocumentBySourceID(ctx context.Context, source model.Source, documentID string) (*model.Document, error) {
	args := m.Called(ctx, source, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *mockStore) DocumentExists(ctx context.Context, source model.Source, documentID string) (bool, error) {
	args := m.Called(ctx, source, documentID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) ListDocuments(ctx context.Context, filter store.DocumentFilter) ([]model.Document, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *mockStore) CreateClassification(ctx context.Context, c *model.Classification) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockStore) GetClassificationByDocument(ctx context.Context, docID string) (*model.Classification, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Classification), args.Error(1)
}

func (m *mockStore) ClassificationExists(ctx context.Context, docID string) (bool, error) {
	args := m.Called(ctx, docID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) CreateGapAnalysis(ctx context.Context, g *model.GapAnalysis) error {
	return m.Called(ctx, g).Error(0)
}

func (m *mockStore) GetGapAnalysisByDocument(ctx context.Context, docID string) (*model.GapAnalysis, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GapAnalysis), args.Error(1)
}

func (m *mockStore) GapAnalysisExists(ctx context.Context, docID string) (bool, error) {
	args := m.Called(ctx, docID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) ListClassifiedWithoutAnalysis(ctx context.Context, minRelevance int, minConfidence float64, limit int) ([]store.ClassifiedDocument, error) {
	args := m.Called(ctx, minRelevance, minConfidence, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.ClassifiedDocument), args.Error(1)
}

func (m *mockStore) ListPriority(ctx context.Context, minRelevance int, minConfidence float64, limit int) ([]store.PriorityDocument, error) {
	args := m.Called(ctx, minRelevance, minConfidence, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.PriorityDocument), args.Error(1)
}

func (m *mockStore) CreateTasks(ctx context.Context, tasks []model.Task) error {
	return m.Called(ctx, tasks).Error(0)
}

func (m *mockStore) GetTask(ctx context.Context, id string) (*model.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *mockStore) ListTasksByAnalysis(ctx context.Context, analysisID string) ([]model.Task, error) {
	args := m.Called(ctx, analysisID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *mockStore) TasksExistForAnalysis(ctx context.Context, analysisID string) (bool, error) {
	args := m.Called(ctx, analysisID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) UpdateTaskStatus(ctx context.Context, taskID string, status model.TaskStatus) error {
	return m.Called(ctx, taskID, status).Error(0)
}

func (m *mockStore) ListOpenTasks(ctx context.Context, limit int) ([]model.Task, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}
