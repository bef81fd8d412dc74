package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/clearledger/regintel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id             TEXT PRIMARY KEY,
	source         TEXT NOT NULL,
	document_id    TEXT NOT NULL,
	title          TEXT NOT NULL,
	url            TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL DEFAULT '',
	published_date DATETIME,
	ingested_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	content_hash   TEXT NOT NULL DEFAULT '',
	metadata       TEXT,
	UNIQUE (source, document_id)
);

CREATE TABLE IF NOT EXISTS classifications (
	id                    TEXT PRIMARY KEY,
	document_id           TEXT NOT NULL UNIQUE REFERENCES documents(id),
	relevance_score       INTEGER NOT NULL,
	confidence            REAL NOT NULL,
	pillars               TEXT NOT NULL,
	categories            TEXT NOT NULL,
	reasoning             TEXT NOT NULL DEFAULT '',
	requires_human_review INTEGER NOT NULL DEFAULT 0,
	model_used            TEXT NOT NULL DEFAULT '',
	created_at            DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS gap_analyses (
	id                 TEXT PRIMARY KEY,
	document_id        TEXT NOT NULL UNIQUE REFERENCES documents(id),
	severity           TEXT NOT NULL,
	affected_controls  TEXT NOT NULL,
	total_effort_hours INTEGER NOT NULL DEFAULT 0,
	summary            TEXT NOT NULL DEFAULT '',
	recommendations    TEXT NOT NULL DEFAULT '',
	model_used         TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS tasks (
	id              TEXT PRIMARY KEY,
	document_id     TEXT NOT NULL REFERENCES documents(id),
	gap_analysis_id TEXT NOT NULL REFERENCES gap_analyses(id),
	control_id      TEXT NOT NULL,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	assigned_team   TEXT NOT NULL,
	priority        TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'pending',
	due_date        DATETIME NOT NULL,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source);
CREATE INDEX IF NOT EXISTS idx_classifications_relevance ON classifications(relevance_score);
CREATE INDEX IF NOT EXISTS idx_tasks_analysis ON tasks(gap_analysis_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Documents

func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.IngestedAt.IsZero() {
		doc.IngestedAt = time.Now().UTC()
	}

	metadataJSON, err := marshalMetadata(doc.Metadata)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal metadata")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, source, document_id, title, url, content, published_date, ingested_at, content_hash, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, string(doc.Source), doc.DocumentID, doc.Title, doc.URL, doc.Content,
		nullTime(doc.PublishedDate), doc.IngestedAt, doc.ContentHash, metadataJSON,
	)
	return eris.Wrapf(err, "sqlite: insert document %s/%s", doc.Source, doc.DocumentID)
}

func (s *SQLiteStore) ImportDocuments(ctx context.Context, docs []model.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin import")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (id, source, document_id, title, url, content, published_date, ingested_at, content_hash, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (source, document_id) DO UPDATE SET
		   title = excluded.title, url = excluded.url, content = excluded.content,
		   published_date = excluded.published_date, content_hash = excluded.content_hash,
		   metadata = excluded.metadata`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare import")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range docs {
		doc := &docs[i]
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
		if doc.IngestedAt.IsZero() {
			doc.IngestedAt = now
		}
		metadataJSON, err := marshalMetadata(doc.Metadata)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal metadata")
		}
		if _, err := stmt.ExecContext(ctx,
			doc.ID, string(doc.Source), doc.DocumentID, doc.Title, doc.URL, doc.Content,
			nullTime(doc.PublishedDate), doc.IngestedAt, doc.ContentHash, metadataJSON,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: import document %s/%s", doc.Source, doc.DocumentID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit import")
	}
	return len(docs), nil
}

const documentColumns = `id, source, document_id, title, url, content, published_date, ingested_at, content_hash, metadata`

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id,
	)
	return scanDocument(row, id)
}

func (s *SQLiteStore) GetDocumentBySourceID(ctx context.Context, source model.Source, documentID string) (*model.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE source = ? AND document_id = ?`,
		string(source), documentID,
	)
	return scanDocument(row, documentID)
}

func (s *SQLiteStore) DocumentExists(ctx context.Context, source model.Source, documentID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM documents WHERE source = ? AND document_id = ?`,
		string(source), documentID,
	).Scan(&n)
	return n > 0, eris.Wrap(err, "sqlite: document exists")
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE 1=1`
	var args []any

	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, string(filter.Source))
	}
	query += ` ORDER BY ingested_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		d, err := scanDocument(rows, "")
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: list documents iterate")
}

// Classifications

func (s *SQLiteStore) CreateClassification(ctx context.Context, c *model.Classification) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	pillarsJSON, err := json.Marshal(c.Pillars)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal pillars")
	}
	categoriesJSON, err := json.Marshal(c.Categories)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal categories")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO classifications (id, document_id, relevance_score, confidence, pillars, categories, reasoning, requires_human_review, model_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.DocumentID, c.RelevanceScore, c.Confidence, string(pillarsJSON), string(categoriesJSON),
		c.Reasoning, c.RequiresHumanReview, c.ModelUsed, c.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert classification for document %s", c.DocumentID)
}

const classificationColumns = `id, document_id, relevance_score, confidence, pillars, categories, reasoning, requires_human_review, model_used, created_at`

func (s *SQLiteStore) GetClassificationByDocument(ctx context.Context, docID string) (*model.Classification, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+classificationColumns+` FROM classifications WHERE document_id = ?`, docID,
	)
	return scanClassification(row, docID)
}

func (s *SQLiteStore) ClassificationExists(ctx context.Context, docID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM classifications WHERE document_id = ?`, docID,
	).Scan(&n)
	return n > 0, eris.Wrap(err, "sqlite: classification exists")
}

// Gap analyses

func (s *SQLiteStore) CreateGapAnalysis(ctx context.Context, g *model.GapAnalysis) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}

	controlsJSON, err := json.Marshal(g.AffectedControls)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal affected controls")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO gap_analyses (id, document_id, severity, affected_controls, total_effort_hours, summary, recommendations, model_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.DocumentID, string(g.Severity), string(controlsJSON), g.TotalEffortHours,
		g.Summary, g.Recommendations, g.ModelUsed, g.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert gap analysis for document %s", g.DocumentID)
}

const gapAnalysisColumns = `id, document_id, severity, affected_controls, total_effort_hours, summary, recommendations, model_used, created_at`

func (s *SQLiteStore) GetGapAnalysisByDocument(ctx context.Context, docID string) (*model.GapAnalysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+gapAnalysisColumns+` FROM gap_analyses WHERE document_id = ?`, docID,
	)
	return scanGapAnalysis(row, docID)
}

func (s *SQLiteStore) GapAnalysisExists(ctx context.Context, docID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM gap_analyses WHERE document_id = ?`, docID,
	).Scan(&n)
	return n > 0, eris.Wrap(err, "sqlite: gap analysis exists")
}

func (s *SQLiteStore) ListClassifiedWithoutAnalysis(ctx context.Context, minRelevance int, minConfidence float64, limit int) ([]ClassifiedDocument, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.id, d.source, d.document_id, d.title, d.url, d.content, d.published_date, d.ingested_at, d.content_hash, d.metadata,
		        c.id, c.document_id, c.relevance_score, c.confidence, c.pillars, c.categories, c.reasoning, c.requires_human_review, c.model_used, c.created_at
		 FROM documents d
		 JOIN classifications c ON c.document_id = d.id
		 LEFT JOIN gap_analyses g ON g.document_id = d.id
		 WHERE g.id IS NULL AND c.relevance_score >= ? AND c.confidence >= ?
		 ORDER BY c.relevance_score DESC, c.confidence DESC
		 LIMIT ?`,
		minRelevance, minConfidence, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list classified without analysis")
	}
	defer rows.Close()
	return scanClassifiedDocuments(rows)
}

func (s *SQLiteStore) ListPriority(ctx context.Context, minRelevance int, minConfidence float64, limit int) ([]PriorityDocument, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.id, d.source, d.document_id, d.title, d.url, d.content, d.published_date, d.ingested_at, d.content_hash, d.metadata,
		        c.id, c.document_id, c.relevance_score, c.confidence, c.pillars, c.categories, c.reasoning, c.requires_human_review, c.model_used, c.created_at,
		        g.severity, g.total_effort_hours
		 FROM documents d
		 JOIN classifications c ON c.document_id = d.id
		 LEFT JOIN gap_analyses g ON g.document_id = d.id
		 WHERE c.relevance_score >= ? AND c.confidence >= ?
		 ORDER BY c.relevance_score DESC, c.confidence DESC
		 LIMIT ?`,
		minRelevance, minConfidence, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list priority")
	}
	defer rows.Close()

	var out []PriorityDocument
	for rows.Next() {
		var pd PriorityDocument
		var source, pillarsJSON, categoriesJSON string
		var published sql.NullTime
		var metadataJSON, severity sql.NullString
		var effort sql.NullInt64

		err := rows.Scan(
			&pd.Document.ID, &source, &pd.Document.DocumentID, &pd.Document.Title,
			&pd.Document.URL, &pd.Document.Content, &published, &pd.Document.IngestedAt,
			&pd.Document.ContentHash, &metadataJSON,
			&pd.Classification.ID, &pd.Classification.DocumentID,
			&pd.Classification.RelevanceScore, &pd.Classification.Confidence,
			&pillarsJSON, &categoriesJSON, &pd.Classification.Reasoning,
			&pd.Classification.RequiresHumanReview, &pd.Classification.ModelUsed,
			&pd.Classification.CreatedAt,
			&severity, &effort,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan priority document")
		}

		pd.Document.Source = model.Source(source)
		if published.Valid {
			t := published.Time
			pd.Document.PublishedDate = &t
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &pd.Document.Metadata); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal metadata")
			}
		}
		if err := json.Unmarshal([]byte(pillarsJSON), &pd.Classification.Pillars); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal pillars")
		}
		if err := json.Unmarshal([]byte(categoriesJSON), &pd.Classification.Categories); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal categories")
		}
		if severity.Valid {
			pd.Severity = model.Severity(severity.String)
		}
		if effort.Valid {
			pd.EffortHours = int(effort.Int64)
		}
		out = append(out, pd)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: priority documents iterate")
}

// Tasks

func (s *SQLiteStore) CreateTasks(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin create tasks")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tasks (id, document_id, gap_analysis_id, control_id, title, description, assigned_team, priority, status, due_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare create tasks")
	}
	defer stmt.Close()

	for i := range tasks {
		t := &tasks[i]
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		if _, err := stmt.ExecContext(ctx,
			t.ID, t.DocumentID, t.GapAnalysisID, t.ControlID, t.Title, t.Description,
			string(t.AssignedTeam), string(t.Priority), string(t.Status),
			t.DueDate, t.CreatedAt, t.UpdatedAt,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert task %s", t.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit create tasks")
}

const taskColumns = `id, document_id, gap_analysis_id, control_id, title, description, assigned_team, priority, status, due_date, created_at, updated_at`

func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id,
	)

	var t model.Task
	var team, priority, status string
	err := row.Scan(&t.ID, &t.DocumentID, &t.GapAnalysisID, &t.ControlID,
		&t.Title, &t.Description, &team, &priority, &status,
		&t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "task %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get task %s", id)
	}

	t.AssignedTeam = model.Team(team)
	t.Priority = model.Priority(priority)
	t.Status = model.TaskStatus(status)
	return &t, nil
}

func (s *SQLiteStore) ListTasksByAnalysis(ctx context.Context, analysisID string) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE gap_analysis_id = ? ORDER BY created_at, control_id`,
		analysisID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tasks by analysis")
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (s *SQLiteStore) TasksExistForAnalysis(ctx context.Context, analysisID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM tasks WHERE gap_analysis_id = ?`, analysisID,
	).Scan(&n)
	return n > 0, eris.Wrap(err, "sqlite: tasks exist for analysis")
}

func (s *SQLiteStore) UpdateTaskStatus(ctx context.Context, taskID string, status model.TaskStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update task status %s", taskID)
	}
	return checkRowsAffected(res, "task", taskID)
}

func (s *SQLiteStore) ListOpenTasks(ctx context.Context, limit int) ([]model.Task, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE status != 'completed'
		 ORDER BY due_date ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list open tasks")
	}
	defer rows.Close()
	return scanTasks(rows)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

func marshalMetadata(m map[string]any) (any, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDocument(row scannable, id string) (*model.Document, error) {
	var d model.Document
	var source string
	var published sql.NullTime
	var metadataJSON sql.NullString

	err := row.Scan(&d.ID, &source, &d.DocumentID, &d.Title, &d.URL, &d.Content,
		&published, &d.IngestedAt, &d.ContentHash, &metadataJSON)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "document %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan document")
	}

	d.Source = model.Source(source)
	if published.Valid {
		t := published.Time
		d.PublishedDate = &t
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &d.Metadata); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal metadata")
		}
	}
	return &d, nil
}

func scanClassification(row scannable, docID string) (*model.Classification, error) {
	var c model.Classification
	var pillarsJSON, categoriesJSON string

	err := row.Scan(&c.ID, &c.DocumentID, &c.RelevanceScore, &c.Confidence,
		&pillarsJSON, &categoriesJSON, &c.Reasoning, &c.RequiresHumanReview,
		&c.ModelUsed, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "classification for document %s", docID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan classification")
	}

	if err := json.Unmarshal([]byte(pillarsJSON), &c.Pillars); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal pillars")
	}
	if err := json.Unmarshal([]byte(categoriesJSON), &c.Categories); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal categories")
	}
	return &c, nil
}

func scanGapAnalysis(row scannable, docID string) (*model.GapAnalysis, error) {
	var g model.GapAnalysis
	var severity, controlsJSON string

	err := row.Scan(&g.ID, &g.DocumentID, &severity, &controlsJSON, &g.TotalEffortHours,
		&g.Summary, &g.Recommendations, &g.ModelUsed, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "gap analysis for document %s", docID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan gap analysis")
	}

	g.Severity = model.Severity(severity)
	if err := json.Unmarshal([]byte(controlsJSON), &g.AffectedControls); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal affected controls")
	}
	return &g, nil
}

func scanClassifiedDocuments(rows *sql.Rows) ([]ClassifiedDocument, error) {
	var out []ClassifiedDocument
	for rows.Next() {
		var cd ClassifiedDocument
		var source, pillarsJSON, categoriesJSON string
		var published sql.NullTime
		var metadataJSON sql.NullString

		err := rows.Scan(
			&cd.Document.ID, &source, &cd.Document.DocumentID, &cd.Document.Title,
			&cd.Document.URL, &cd.Document.Content, &published, &cd.Document.IngestedAt,
			&cd.Document.ContentHash, &metadataJSON,
			&cd.Classification.ID, &cd.Classification.DocumentID,
			&cd.Classification.RelevanceScore, &cd.Classification.Confidence,
			&pillarsJSON, &categoriesJSON, &cd.Classification.Reasoning,
			&cd.Classification.RequiresHumanReview, &cd.Classification.ModelUsed,
			&cd.Classification.CreatedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan classified document")
		}

		cd.Document.Source = model.Source(source)
		if published.Valid {
			t := published.Time
			cd.Document.PublishedDate = &t
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &cd.Document.Metadata); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal metadata")
			}
		}
		if err := json.Unmarshal([]byte(pillarsJSON), &cd.Classification.Pillars); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal pillars")
		}
		if err := json.Unmarshal([]byte(categoriesJSON), &cd.Classification.Categories); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal categories")
		}
		out = append(out, cd)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: classified documents iterate")
}

func scanTasks(rows *sql.Rows) ([]model.Task, error) {
	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		var team, priority, status string

		err := rows.Scan(&t.ID, &t.DocumentID, &t.GapAnalysisID, &t.ControlID,
			&t.Title, &t.Description, &team, &priority, &status,
			&t.DueDate, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan task")
		}

		t.AssignedTeam = model.Team(team)
		t.Priority = model.Priority(priority)
		t.Status = model.TaskStatus(status)
		tasks = append(tasks, t)
	}
	return tasks, eris.Wrap(rows.Err(), "sqlite: tasks iterate")
}
