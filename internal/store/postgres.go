package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/clearledger/regintel/internal/db"
	"github.com/clearledger/regintel/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hottest store operations.
var preparedStatements = map[string]string{
	"document_exists":       `SELECT COUNT(1) FROM documents WHERE source = $1 AND document_id = $2`,
	"classification_exists": `SELECT COUNT(1) FROM classifications WHERE document_id = $1`,
	"gap_analysis_exists":   `SELECT COUNT(1) FROM gap_analyses WHERE document_id = $1`,
	"tasks_exist":           `SELECT COUNT(1) FROM tasks WHERE gap_analysis_id = $1`,
	"get_document":          `SELECT id, source, document_id, title, url, content, published_date, ingested_at, content_hash, metadata FROM documents WHERE id = $1`,
	"insert_classification": `INSERT INTO classifications (id, document_id, relevance_score, confidence, pillars, categories, reasoning, requires_human_review, model_used, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
	"insert_gap_analysis":   `INSERT INTO gap_analyses (id, document_id, severity, affected_controls, total_effort_hours, summary, recommendations, model_used, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source         TEXT NOT NULL,
	document_id    TEXT NOT NULL,
	title          TEXT NOT NULL,
	url            TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL DEFAULT '',
	published_date TIMESTAMPTZ,
	ingested_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	content_hash   TEXT NOT NULL DEFAULT '',
	metadata       JSONB,
	UNIQUE (source, document_id)
);

CREATE TABLE IF NOT EXISTS classifications (
	id                    TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	document_id           TEXT NOT NULL UNIQUE REFERENCES documents(id),
	relevance_score       INTEGER NOT NULL,
	confidence            DOUBLE PRECISION NOT NULL,
	pillars               JSONB NOT NULL,
	categories            JSONB NOT NULL,
	reasoning             TEXT NOT NULL DEFAULT '',
	requires_human_review BOOLEAN NOT NULL DEFAULT false,
	model_used            TEXT NOT NULL DEFAULT '',
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS gap_analyses (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	document_id        TEXT NOT NULL UNIQUE REFERENCES documents(id),
	severity           TEXT NOT NULL,
	affected_controls  JSONB NOT NULL,
	total_effort_hours INTEGER NOT NULL DEFAULT 0,
	summary            TEXT NOT NULL DEFAULT '',
	recommendations    TEXT NOT NULL DEFAULT '',
	model_used         TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tasks (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	document_id     TEXT NOT NULL REFERENCES documents(id),
	gap_analysis_id TEXT NOT NULL REFERENCES gap_analyses(id),
	control_id      TEXT NOT NULL,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	assigned_team   TEXT NOT NULL,
	priority        TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'pending',
	due_date        TIMESTAMPTZ NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source);
CREATE INDEX IF NOT EXISTS idx_documents_source_docid ON documents(source, document_id);
CREATE INDEX IF NOT EXISTS idx_classifications_relevance ON classifications(relevance_score DESC, confidence DESC);
CREATE INDEX IF NOT EXISTS idx_tasks_analysis ON tasks(gap_analysis_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(due_date);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

// Documents

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.IngestedAt.IsZero() {
		doc.IngestedAt = time.Now().UTC()
	}

	metadataJSON, err := marshalMetadataBytes(doc.Metadata)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal metadata")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (id, source, document_id, title, url, content, published_date, ingested_at, content_hash, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		doc.ID, string(doc.Source), doc.DocumentID, doc.Title, doc.URL, doc.Content,
		doc.PublishedDate, doc.IngestedAt, doc.ContentHash, metadataJSON,
	)
	return eris.Wrapf(err, "postgres: insert document %s/%s", doc.Source, doc.DocumentID)
}

// ImportDocuments bulk-upserts a feed batch keyed on (source, document_id).
func (s *PostgresStore) ImportDocuments(ctx context.Context, docs []model.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(docs))
	for i := range docs {
		doc := &docs[i]
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
		if doc.IngestedAt.IsZero() {
			doc.IngestedAt = now
		}
		metadataJSON, err := marshalMetadataBytes(doc.Metadata)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal metadata")
		}
		rows = append(rows, []any{
			doc.ID, string(doc.Source), doc.DocumentID, doc.Title, doc.URL, doc.Content,
			doc.PublishedDate, doc.IngestedAt, doc.ContentHash, metadataJSON,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "documents",
		Columns:      []string{"id", "source", "document_id", "title", "url", "content", "published_date", "ingested_at", "content_hash", "metadata"},
		ConflictKeys: []string{"source", "document_id"},
		UpdateCols:   []string{"title", "url", "content", "published_date", "content_hash", "metadata"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: import documents")
	}
	return int(n), nil
}

const pgDocumentColumns = `id, source, document_id, title, url, content, published_date, ingested_at, content_hash, metadata`

func (s *PostgresStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgDocumentColumns+` FROM documents WHERE id = $1`, id,
	)
	return scanPgDocument(row, id)
}

func (s *PostgresStore) GetDocumentBySourceID(ctx context.Context, source model.Source, documentID string) (*model.Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgDocumentColumns+` FROM documents WHERE source = $1 AND document_id = $2`,
		string(source), documentID,
	)
	return scanPgDocument(row, documentID)
}

func (s *PostgresStore) DocumentExists(ctx context.Context, source model.Source, documentID string) (bool, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(1) FROM documents WHERE source = $1 AND document_id = $2`,
		string(source), documentID,
	).Scan(&n)
	return n > 0, eris.Wrap(err, "postgres: document exists")
}

func (s *PostgresStore) ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.Document, error) {
	query := `SELECT ` + pgDocumentColumns + ` FROM documents WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, argIdx)
		args = append(args, string(filter.Source))
		argIdx++
	}
	query += ` ORDER BY ingested_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		d, err := scanPgDocument(rows, "")
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: list documents iterate")
}

// Classifications

func (s *PostgresStore) CreateClassification(ctx context.Context, c *model.Classification) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	pillarsJSON, err := json.Marshal(c.Pillars)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal pillars")
	}
	categoriesJSON, err := json.Marshal(c.Categories)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal categories")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO classifications (id, document_id, relevance_score, confidence, pillars, categories, reasoning, requires_human_review, model_used, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.DocumentID, c.RelevanceScore, c.Confidence, pillarsJSON, categoriesJSON,
		c.Reasoning, c.RequiresHumanReview, c.ModelUsed, c.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert classification for document %s", c.DocumentID)
}

const pgClassificationColumns = `id, document_id, relevance_score, confidence, pillars, categories, reasoning, requires_human_review, model_used, created_at`

func (s *PostgresStore) GetClassificationByDocument(ctx context.Context, docID string) (*model.Classification, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgClassificationColumns+` FROM classifications WHERE document_id = $1`, docID,
	)
	return scanPgClassification(row, docID)
}

func (s *PostgresStore) ClassificationExists(ctx context.Context, docID string) (bool, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(1) FROM classifications WHERE document_id = $1`, docID,
	).Scan(&n)
	return n > 0, eris.Wrap(err, "postgres: classification exists")
}

// Gap analyses

func (s *PostgresStore) CreateGapAnalysis(ctx context.Context, g *model.GapAnalysis) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}

	controlsJSON, err := json.Marshal(g.AffectedControls)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal affected controls")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO gap_analyses (id, document_id, severity, affected_controls, total_effort_hours, summary, recommendations, model_used, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		g.ID, g.DocumentID, string(g.Severity), controlsJSON, g.TotalEffortHours,
		g.Summary, g.Recommendations, g.ModelUsed, g.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert gap analysis for document %s", g.DocumentID)
}

const pgGapAnalysisColumns = `id, document_id, severity, affected_controls, total_effort_hours, summary, recommendations, model_used, created_at`

func (s *PostgresStore) GetGapAnalysisByDocument(ctx context.Context, docID string) (*model.GapAnalysis, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgGapAnalysisColumns+` FROM gap_analyses WHERE document_id = $1`, docID,
	)
	return scanPgGapAnalysis(row, docID)
}

func (s *PostgresStore) GapAnalysisExists(ctx context.Context, docID string) (bool, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(1) FROM gap_analyses WHERE document_id = $1`, docID,
	).Scan(&n)
	return n > 0, eris.Wrap(err, "postgres: gap analysis exists")
}

const pgClassifiedJoinColumns = `d.id, d.source, d.document_id, d.title, d.url, d.content, d.published_date, d.ingested_at, d.content_hash, d.metadata,
	c.id, c.document_id, c.relevance_score, c.confidence, c.pillars, c.categories, c.reasoning, c.requires_human_review, c.model_used, c.created_at`

func (s *PostgresStore) ListClassifiedWithoutAnalysis(ctx context.Context, minRelevance int, minConfidence float64, limit int) ([]ClassifiedDocument, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgClassifiedJoinColumns+`
		 FROM documents d
		 JOIN classifications c ON c.document_id = d.id
		 LEFT JOIN gap_analyses g ON g.document_id = d.id
		 WHERE g.id IS NULL AND c.relevance_score >= $1 AND c.confidence >= $2
		 ORDER BY c.relevance_score DESC, c.confidence DESC
		 LIMIT $3`,
		minRelevance, minConfidence, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list classified without analysis")
	}
	defer rows.Close()
	return scanPgClassifiedDocuments(rows)
}

func (s *PostgresStore) ListPriority(ctx context.Context, minRelevance int, minConfidence float64, limit int) ([]PriorityDocument, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgClassifiedJoinColumns+`,
	g.severity, g.total_effort_hours
		 FROM documents d
		 JOIN classifications c ON c.document_id = d.id
		 LEFT JOIN gap_analyses g ON g.document_id = d.id
		 WHERE c.relevance_score >= $1 AND c.confidence >= $2
		 ORDER BY c.relevance_score DESC, c.confidence DESC
		 LIMIT $3`,
		minRelevance, minConfidence, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list priority")
	}
	defer rows.Close()

	var out []PriorityDocument
	for rows.Next() {
		var pd PriorityDocument
		var source string
		var published *time.Time
		var metadataJSON, pillarsJSON, categoriesJSON []byte
		var severity *string
		var effort *int

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
			return nil, eris.Wrap(err, "postgres: scan priority document")
		}

		pd.Document.Source = model.Source(source)
		pd.Document.PublishedDate = published
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &pd.Document.Metadata); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal metadata")
			}
		}
		if err := json.Unmarshal(pillarsJSON, &pd.Classification.Pillars); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal pillars")
		}
		if err := json.Unmarshal(categoriesJSON, &pd.Classification.Categories); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal categories")
		}
		if severity != nil {
			pd.Severity = model.Severity(*severity)
		}
		if effort != nil {
			pd.EffortHours = *effort
		}
		out = append(out, pd)
	}
	return out, eris.Wrap(rows.Err(), "postgres: priority documents iterate")
}

// Tasks

// CreateTasks bulk-inserts a task batch with COPY. Every row is new, so
// no conflict handling is needed.
func (s *PostgresStore) CreateTasks(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		rows = append(rows, []any{
			t.ID, t.DocumentID, t.GapAnalysisID, t.ControlID, t.Title, t.Description,
			string(t.AssignedTeam), string(t.Priority), string(t.Status),
			t.DueDate, t.CreatedAt, t.UpdatedAt,
		})
	}

	_, err := db.CopyInto(ctx, s.pool, "tasks",
		[]string{"id", "document_id", "gap_analysis_id", "control_id", "title", "description", "assigned_team", "priority", "status", "due_date", "created_at", "updated_at"},
		rows,
	)
	return eris.Wrap(err, "postgres: create tasks")
}

const pgTaskColumns = `id, document_id, gap_analysis_id, control_id, title, description, assigned_team, priority, status, due_date, created_at, updated_at`

func (s *PostgresStore) GetTask(ctx context.Context, id string) (*model.Task, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgTaskColumns+` FROM tasks WHERE id = $1`, id,
	)

	var t model.Task
	var team, priority, status string
	err := row.Scan(&t.ID, &t.DocumentID, &t.GapAnalysisID, &t.ControlID,
		&t.Title, &t.Description, &team, &priority, &status,
		&t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "task %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get task %s", id)
	}

	t.AssignedTeam = model.Team(team)
	t.Priority = model.Priority(priority)
	t.Status = model.TaskStatus(status)
	return &t, nil
}

func (s *PostgresStore) ListTasksByAnalysis(ctx context.Context, analysisID string) ([]model.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgTaskColumns+` FROM tasks WHERE gap_analysis_id = $1 ORDER BY created_at, control_id`,
		analysisID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tasks by analysis")
	}
	defer rows.Close()
	return scanPgTasks(rows)
}

func (s *PostgresStore) TasksExistForAnalysis(ctx context.Context, analysisID string) (bool, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(1) FROM tasks WHERE gap_analysis_id = $1`, analysisID,
	).Scan(&n)
	return n > 0, eris.Wrap(err, "postgres: tasks exist for analysis")
}

func (s *PostgresStore) UpdateTaskStatus(ctx context.Context, taskID string, status model.TaskStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update task status %s", taskID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "task %s", taskID)
	}
	return nil
}

func (s *PostgresStore) ListOpenTasks(ctx context.Context, limit int) ([]model.Task, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgTaskColumns+` FROM tasks WHERE status != 'completed'
		 ORDER BY due_date ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list open tasks")
	}
	defer rows.Close()
	return scanPgTasks(rows)
}

// helpers

func marshalMetadataBytes(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func scanPgDocument(row pgx.Row, id string) (*model.Document, error) {
	var d model.Document
	var source string
	var published *time.Time
	var metadataJSON []byte

	err := row.Scan(&d.ID, &source, &d.DocumentID, &d.Title, &d.URL, &d.Content,
		&published, &d.IngestedAt, &d.ContentHash, &metadataJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "document %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan document")
	}

	d.Source = model.Source(source)
	d.PublishedDate = published
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &d.Metadata); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal metadata")
		}
	}
	return &d, nil
}

func scanPgClassification(row pgx.Row, docID string) (*model.Classification, error) {
	var c model.Classification
	var pillarsJSON, categoriesJSON []byte

	err := row.Scan(&c.ID, &c.DocumentID, &c.RelevanceScore, &c.Confidence,
		&pillarsJSON, &categoriesJSON, &c.Reasoning, &c.RequiresHumanReview,
		&c.ModelUsed, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "classification for document %s", docID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan classification")
	}

	if err := json.Unmarshal(pillarsJSON, &c.Pillars); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal pillars")
	}
	if err := json.Unmarshal(categoriesJSON, &c.Categories); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal categories")
	}
	return &c, nil
}

func scanPgGapAnalysis(row pgx.Row, docID string) (*model.GapAnalysis, error) {
	var g model.GapAnalysis
	var severity string
	var controlsJSON []byte

	err := row.Scan(&g.ID, &g.DocumentID, &severity, &controlsJSON, &g.TotalEffortHours,
		&g.Summary, &g.Recommendations, &g.ModelUsed, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "gap analysis for document %s", docID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan gap analysis")
	}

	g.Severity = model.Severity(severity)
	if err := json.Unmarshal(controlsJSON, &g.AffectedControls); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal affected controls")
	}
	return &g, nil
}

func scanPgClassifiedDocuments(rows pgx.Rows) ([]ClassifiedDocument, error) {
	var out []ClassifiedDocument
	for rows.Next() {
		var cd ClassifiedDocument
		var source string
		var published *time.Time
		var metadataJSON, pillarsJSON, categoriesJSON []byte

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
			return nil, eris.Wrap(err, "postgres: scan classified document")
		}

		cd.Document.Source = model.Source(source)
		cd.Document.PublishedDate = published
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &cd.Document.Metadata); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal metadata")
			}
		}
		if err := json.Unmarshal(pillarsJSON, &cd.Classification.Pillars); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal pillars")
		}
		if err := json.Unmarshal(categoriesJSON, &cd.Classification.Categories); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal categories")
		}
		out = append(out, cd)
	}
	return out, eris.Wrap(rows.Err(), "postgres: classified documents iterate")
}

func scanPgTasks(rows pgx.Rows) ([]model.Task, error) {
	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		var team, priority, status string

		err := rows.Scan(&t.ID, &t.DocumentID, &t.GapAnalysisID, &t.ControlID,
			&t.Title, &t.Description, &team, &priority, &status,
			&t.DueDate, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan task")
		}

		t.AssignedTeam = model.Team(team)
		t.Priority = model.Priority(priority)
		t.Status = model.TaskStatus(status)
		tasks = append(tasks, t)
	}
	return tasks, eris.Wrap(rows.Err(), "postgres: tasks iterate")
}
