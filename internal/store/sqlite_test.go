package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearledger/regintel/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testDocument(source model.Source, docID string) *model.Document {
	published := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	return &model.Document{
		Source:        source,
		DocumentID:    docID,
		Title:         "FinCEN Guidance on CVC Transaction Monitoring",
		URL:           "https://www.fincen.gov/resources/" + docID,
		Content:       "Covered institutions must monitor convertible virtual currency transactions.",
		PublishedDate: &published,
		Metadata:      map[string]any{"docket": "FINCEN-2026-0007"},
	}
}

func createTestDocument(t *testing.T, st *SQLiteStore, source model.Source, docID string) *model.Document {
	t.Helper()
	doc := testDocument(source, docID)
	require.NoError(t, st.CreateDocument(context.Background(), doc))
	return doc
}

func createTestClassification(t *testing.T, st *SQLiteStore, docID string, relevance int, confidence float64) *model.Classification {
	t.Helper()
	c := &model.Classification{
		DocumentID:     docID,
		RelevanceScore: relevance,
		Confidence:     confidence,
		Pillars:        []model.Pillar{model.PillarInternalControls},
		Categories:     []string{"aml", "crypto_specific"},
		Reasoning:      "Directly addresses CVC monitoring.",
		ModelUsed:      "claude-haiku-4-5-20251001",
	}
	require.NoError(t, st.CreateClassification(context.Background(), c))
	return c
}

func createTestGapAnalysis(t *testing.T, st *SQLiteStore, docID string) *model.GapAnalysis {
	t.Helper()
	g := &model.GapAnalysis{
		DocumentID: docID,
		Severity:   model.SeverityHigh,
		AffectedControls: []model.ControlGap{
			{ControlID: "IC-01", GapDescription: "Missing typology coverage", RemediationAction: "Add detection scenarios", EffortLevel: model.EffortMedium},
		},
		TotalEffortHours: 60,
		Summary:          "Monitoring scenarios need expansion.",
	}
	require.NoError(t, st.CreateGapAnalysis(context.Background(), g))
	return g
}

// --- Documents ---

func TestSQLite_Document_CreateAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	doc := createTestDocument(t, st, model.SourceFinCEN, "2026-12345")
	assert.NotEmpty(t, doc.ID)
	assert.False(t, doc.IngestedAt.IsZero())

	got, err := st.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, model.SourceFinCEN, got.Source)
	require.NotNil(t, got.PublishedDate)
	assert.Equal(t, doc.PublishedDate.Unix(), got.PublishedDate.Unix())
	assert.Equal(t, "FINCEN-2026-0007", got.Metadata["docket"])
}

func TestSQLite_Document_GetBySourceID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	doc := createTestDocument(t, st, model.SourceSEC, "34-99999")

	got, err := st.GetDocumentBySourceID(ctx, model.SourceSEC, "34-99999")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
}

func TestSQLite_Document_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetDocument(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_Document_Exists(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	exists, err := st.DocumentExists(ctx, model.SourceFinCEN, "2026-12345")
	require.NoError(t, err)
	assert.False(t, exists)

	createTestDocument(t, st, model.SourceFinCEN, "2026-12345")

	exists, err = st.DocumentExists(ctx, model.SourceFinCEN, "2026-12345")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSQLite_Document_DuplicateRejected(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	createTestDocument(t, st, model.SourceFinCEN, "2026-12345")

	err := st.CreateDocument(ctx, testDocument(model.SourceFinCEN, "2026-12345"))
	require.Error(t, err)
}

func TestSQLite_Document_ListFiltersBySource(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	createTestDocument(t, st, model.SourceFinCEN, "a")
	createTestDocument(t, st, model.SourceFinCEN, "b")
	createTestDocument(t, st, model.SourceOFAC, "c")

	docs, err := st.ListDocuments(ctx, DocumentFilter{Source: model.SourceFinCEN})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = st.ListDocuments(ctx, DocumentFilter{})
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestSQLite_ImportDocuments_Upsert(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := st.ImportDocuments(ctx, []model.Document{
		*testDocument(model.SourceFinCEN, "x"),
		*testDocument(model.SourceFinCEN, "y"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Re-importing the same feed must not duplicate documents.
	updated := testDocument(model.SourceFinCEN, "x")
	updated.Title = "Updated title"
	_, err = st.ImportDocuments(ctx, []model.Document{*updated})
	require.NoError(t, err)

	docs, err := st.ListDocuments(ctx, DocumentFilter{Source: model.SourceFinCEN})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	got, err := st.GetDocumentBySourceID(ctx, model.SourceFinCEN, "x")
	require.NoError(t, err)
	assert.Equal(t, "Updated title", got.Title)
}

// --- Classifications ---

func TestSQLite_Classification_CreateAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	doc := createTestDocument(t, st, model.SourceFinCEN, "2026-12345")
	c := createTestClassification(t, st, doc.ID, 4, 0.85)

	got, err := st.GetClassificationByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, 4, got.RelevanceScore)
	assert.Equal(t, 0.85, got.Confidence)
	assert.Equal(t, []model.Pillar{model.PillarInternalControls}, got.Pillars)
	assert.Equal(t, []string{"aml", "crypto_specific"}, got.Categories)
}

func TestSQLite_Classification_ExistsAndUnique(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	doc := createTestDocument(t, st, model.SourceFinCEN, "2026-12345")

	exists, err := st.ClassificationExists(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	createTestClassification(t, st, doc.ID, 4, 0.85)

	exists, err = st.ClassificationExists(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	// One classification per document.
	err = st.CreateClassification(ctx, &model.Classification{
		DocumentID: doc.ID, RelevanceScore: 2, Confidence: 0.5,
		Pillars: []model.Pillar{}, Categories: []string{},
	})
	require.Error(t, err)
}

// --- Gap analyses ---

func TestSQLite_GapAnalysis_CreateAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	doc := createTestDocument(t, st, model.SourceFinCEN, "2026-12345")
	g := createTestGapAnalysis(t, st, doc.ID)

	got, err := st.GetGapAnalysisByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
	assert.Equal(t, model.SeverityHigh, got.Severity)
	require.Len(t, got.AffectedControls, 1)
	assert.Equal(t, "IC-01", got.AffectedControls[0].ControlID)
	assert.Equal(t, 60, got.TotalEffortHours)
}

func TestSQLite_ListClassifiedWithoutAnalysis(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	// Gated and unanalyzed: returned.
	gated := createTestDocument(t, st, model.SourceFinCEN, "gated")
	createTestClassification(t, st, gated.ID, 4, 0.9)

	// Below relevance threshold: excluded.
	low := createTestDocument(t, st, model.SourceFinCEN, "low-relevance")
	createTestClassification(t, st, low.ID, 2, 0.9)

	// Below confidence threshold: excluded.
	unsure := createTestDocument(t, st, model.SourceFinCEN, "low-confidence")
	createTestClassification(t, st, unsure.ID, 5, 0.5)

	// Already analyzed: excluded.
	done := createTestDocument(t, st, model.SourceFinCEN, "analyzed")
	createTestClassification(t, st, done.ID, 5, 0.95)
	createTestGapAnalysis(t, st, done.ID)

	got, err := st.ListClassifiedWithoutAnalysis(ctx, 3, 0.7, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, gated.ID, got[0].Document.ID)
	assert.Equal(t, 4, got[0].Classification.RelevanceScore)
}

func TestSQLite_ListClassifiedWithoutAnalysis_ThresholdsInclusive(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	boundary := createTestDocument(t, st, model.SourceFinCEN, "boundary")
	createTestClassification(t, st, boundary.ID, 3, 0.7)

	got, err := st.ListClassifiedWithoutAnalysis(ctx, 3, 0.7, 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLite_ListPriority_Ordering(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a := createTestDocument(t, st, model.SourceFinCEN, "a")
	createTestClassification(t, st, a.ID, 3, 0.9)
	b := createTestDocument(t, st, model.SourceFinCEN, "b")
	createTestClassification(t, st, b.ID, 5, 0.8)
	c := createTestDocument(t, st, model.SourceFinCEN, "c")
	createTestClassification(t, st, c.ID, 5, 0.95)

	got, err := st.ListPriority(ctx, 3, 0.7, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, c.ID, got[0].Document.ID)
	assert.Equal(t, b.ID, got[1].Document.ID)
	assert.Equal(t, a.ID, got[2].Document.ID)
}

func TestSQLite_ListPriority_ExcludesBelowGate(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	gated := createTestDocument(t, st, model.SourceFinCEN, "gated")
	createTestClassification(t, st, gated.ID, 4, 0.9)

	// Irrelevant and unsure: must never surface in the priority view.
	noise := createTestDocument(t, st, model.SourceFinCEN, "noise")
	createTestClassification(t, st, noise.ID, 1, 0.2)

	unsure := createTestDocument(t, st, model.SourceFinCEN, "low-confidence")
	createTestClassification(t, st, unsure.ID, 5, 0.5)

	got, err := st.ListPriority(ctx, 3, 0.7, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, gated.ID, got[0].Document.ID)
}

func TestSQLite_ListPriority_JoinsGapSeverity(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	analyzed := createTestDocument(t, st, model.SourceFinCEN, "analyzed")
	createTestClassification(t, st, analyzed.ID, 5, 0.95)
	createTestGapAnalysis(t, st, analyzed.ID)

	pending := createTestDocument(t, st, model.SourceFinCEN, "pending")
	createTestClassification(t, st, pending.ID, 4, 0.8)

	got, err := st.ListPriority(ctx, 3, 0.7, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, analyzed.ID, got[0].Document.ID)
	assert.True(t, got[0].Analyzed())
	assert.Equal(t, model.SeverityHigh, got[0].Severity)
	assert.Equal(t, 60, got[0].EffortHours)

	assert.Equal(t, pending.ID, got[1].Document.ID)
	assert.False(t, got[1].Analyzed())
	assert.Empty(t, got[1].Severity)
	assert.Zero(t, got[1].EffortHours)
}

// --- Tasks ---

func seedTasks(t *testing.T, st *SQLiteStore) (*model.GapAnalysis, []model.Task) {
	t.Helper()
	ctx := context.Background()

	doc := createTestDocument(t, st, model.SourceFinCEN, "2026-12345")
	g := createTestGapAnalysis(t, st, doc.ID)

	now := time.Now().UTC()
	tasks := []model.Task{
		{
			DocumentID: doc.ID, GapAnalysisID: g.ID, ControlID: "IC-01",
			Title: "[HIGH] Address transaction monitoring gap",
			AssignedTeam: model.TeamAMLOperations, Priority: model.PriorityHigh,
			Status: model.TaskStatusPending, DueDate: now.Add(14 * 24 * time.Hour),
			CreatedAt: now, UpdatedAt: now,
		},
		{
			DocumentID: doc.ID, GapAnalysisID: g.ID, ControlID: "TR-02",
			Title: "[HIGH] Address role-based training gap",
			AssignedTeam: model.TeamComplianceTraining, Priority: model.PriorityHigh,
			Status: model.TaskStatusPending, DueDate: now.Add(14 * 24 * time.Hour),
			CreatedAt: now, UpdatedAt: now,
		},
	}
	require.NoError(t, st.CreateTasks(ctx, tasks))
	return g, tasks
}

func TestSQLite_Tasks_CreateAndList(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	g, _ := seedTasks(t, st)

	got, err := st.ListTasksByAnalysis(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "IC-01", got[0].ControlID)
	assert.Equal(t, model.TeamAMLOperations, got[0].AssignedTeam)
	assert.Equal(t, model.PriorityHigh, got[0].Priority)

	exists, err := st.TasksExistForAnalysis(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSQLite_Tasks_Get(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	g, _ := seedTasks(t, st)
	tasks, err := st.ListTasksByAnalysis(ctx, g.ID)
	require.NoError(t, err)
	require.NotEmpty(t, tasks)

	got, err := st.GetTask(ctx, tasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, tasks[0].ControlID, got.ControlID)
	assert.Equal(t, model.TaskStatusPending, got.Status)

	_, err = st.GetTask(ctx, "nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_Tasks_UpdateStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	g, _ := seedTasks(t, st)
	tasks, err := st.ListTasksByAnalysis(ctx, g.ID)
	require.NoError(t, err)

	require.NoError(t, st.UpdateTaskStatus(ctx, tasks[0].ID, model.TaskStatusCompleted))

	open, err := st.ListOpenTasks(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestSQLite_Tasks_UpdateStatusNotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateTaskStatus(context.Background(), "nonexistent", model.TaskStatusCompleted)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}
