package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/contract-review/internal/db"
	"github.com/sells-group/contract-review/internal/model"
	"github.com/sells-group/contract-review/internal/resilience"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool     db.Pool
	retryCfg resilience.RetryConfig
	closeFn  func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
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

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{
		pool:     pool,
		retryCfg: resilience.DefaultRetryConfig(),
		closeFn:  pool.Close,
	}, nil
}

// NewPostgresWithPool wires an existing pool, used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, retryCfg: resilience.RetryConfig{MaxAttempts: 1}}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name        TEXT NOT NULL,
	template_id TEXT,
	status      TEXT NOT NULL DEFAULT 'CREATED',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	filename     TEXT NOT NULL,
	content_text TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'UPLOADED',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS chunks (
	document_id   TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	idx           INTEGER NOT NULL,
	text          TEXT NOT NULL,
	page_number   INTEGER NOT NULL,
	section_title TEXT NOT NULL,
	word_count    INTEGER NOT NULL,
	PRIMARY KEY (document_id, idx)
);

CREATE TABLE IF NOT EXISTS templates (
	id      TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name    TEXT NOT NULL UNIQUE,
	version INTEGER NOT NULL DEFAULT 1,
	fields  JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS extractions (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	document_id      TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	field_name       TEXT NOT NULL,
	field_type       TEXT NOT NULL,
	extracted_value  TEXT,
	raw_text         TEXT,
	normalized_value TEXT,
	confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	status           TEXT NOT NULL DEFAULT 'PENDING',
	metadata         JSONB,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS citations (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	extraction_id   TEXT NOT NULL REFERENCES extractions(id) ON DELETE CASCADE,
	citation_text   TEXT NOT NULL,
	page_number     INTEGER NOT NULL,
	section_title   TEXT NOT NULL,
	relevance_score DOUBLE PRECISION NOT NULL,
	chunk_index     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS annotations (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	extraction_id TEXT NOT NULL REFERENCES extractions(id) ON DELETE CASCADE,
	comment_text  TEXT NOT NULL,
	annotated_by  TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS evaluations (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	document_id      TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	field_name       TEXT NOT NULL,
	model_value      TEXT,
	human_value      TEXT,
	match_score      DOUBLE PRECISION NOT NULL DEFAULT 0,
	normalized_match BOOLEAN NOT NULL DEFAULT false,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_documents_project_id ON documents(project_id);
CREATE INDEX IF NOT EXISTS idx_extractions_project_id ON extractions(project_id);
CREATE INDEX IF NOT EXISTS idx_extractions_document_id ON extractions(document_id);
CREATE INDEX IF NOT EXISTS idx_citations_extraction_id ON citations(extraction_id);
CREATE INDEX IF NOT EXISTS idx_annotations_extraction_id ON annotations(extraction_id);
CREATE INDEX IF NOT EXISTS idx_evaluations_project_id ON evaluations(project_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
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

func (s *PostgresStore) CreateProject(ctx context.Context, name, templateID string) (*model.Project, error) {
	p := &model.Project{
		ID:         uuid.New().String(),
		Name:       name,
		TemplateID: templateID,
		Status:     model.ProjectStatusCreated,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	err := resilience.Do(ctx, s.retryCfg, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO projects (id, name, template_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, p.Name, nullable(p.TemplateID), string(p.Status), p.CreatedAt, p.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert project")
	}
	return p, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, COALESCE(template_id, ''), status, created_at, updated_at FROM projects WHERE id = $1`,
		projectID,
	)
	var p model.Project
	err := row.Scan(&p.ID, &p.Name, &p.TemplateID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, eris.New("project not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan project")
	}
	return &p, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, COALESCE(template_id, ''), status, created_at, updated_at FROM projects ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.TemplateID, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan project")
		}
		projects = append(projects, p)
	}
	return projects, eris.Wrap(rows.Err(), "postgres: list projects iterate")
}

func (s *PostgresStore) UpdateProjectStatus(ctx context.Context, projectID string, status model.ProjectStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), projectID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update project status %s", projectID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("project not found: %s", projectID)
	}
	return nil
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Status == "" {
		doc.Status = model.DocumentStatusUploaded
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	err := resilience.Do(ctx, s.retryCfg, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO documents (id, project_id, filename, content_text, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			doc.ID, doc.ProjectID, doc.Filename, doc.Text, string(doc.Status), doc.CreatedAt, doc.UpdatedAt,
		)
		return err
	})
	return eris.Wrapf(err, "postgres: insert document %s", doc.Filename)
}

func (s *PostgresStore) GetDocument(ctx context.Context, documentID string) (*model.Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, project_id, filename, content_text, status, created_at, updated_at
		 FROM documents WHERE id = $1`,
		documentID,
	)
	var d model.Document
	err := row.Scan(&d.ID, &d.ProjectID, &d.Filename, &d.Text, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, eris.New("document not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan document")
	}
	return &d, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, projectID string) ([]model.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, filename, content_text, status, created_at, updated_at
		 FROM documents WHERE project_id = $1 ORDER BY created_at, filename`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Filename, &d.Text, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: list documents iterate")
}

func (s *PostgresStore) UpdateDocumentStatus(ctx context.Context, documentID string, status model.DocumentStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), documentID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update document status %s", documentID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("document not found: %s", documentID)
	}
	return nil
}

// SaveChunks replaces a document's chunks using the COPY protocol for the
// bulk insert.
func (s *PostgresStore) SaveChunks(ctx context.Context, documentID string, chunks []model.TextChunk) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return eris.Wrap(err, "postgres: clear chunks")
	}

	rows := make([][]any, len(chunks))
	for i, c := range chunks {
		rows[i] = []any{documentID, c.Index, c.Text, c.PageNumber, c.SectionTitle, c.WordCount}
	}
	_, err := db.CopyFrom(ctx, s.pool, "chunks",
		[]string{"document_id", "idx", "text", "page_number", "section_title", "word_count"}, rows)
	return err
}

func (s *PostgresStore) GetChunks(ctx context.Context, documentID string) ([]model.TextChunk, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT idx, text, page_number, section_title, word_count
		 FROM chunks WHERE document_id = $1 ORDER BY idx`,
		documentID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get chunks")
	}
	defer rows.Close()

	var chunks []model.TextChunk
	for rows.Next() {
		var c model.TextChunk
		if err := rows.Scan(&c.Index, &c.Text, &c.PageNumber, &c.SectionTitle, &c.WordCount); err != nil {
			return nil, eris.Wrap(err, "postgres: scan chunk")
		}
		chunks = append(chunks, c)
	}
	return chunks, eris.Wrap(rows.Err(), "postgres: get chunks iterate")
}

func (s *PostgresStore) SaveTemplate(ctx context.Context, tpl *model.FieldTemplate) error {
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	if tpl.Version <= 0 {
		tpl.Version = 1
	}
	fieldsJSON, err := json.Marshal(tpl.Fields)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal template fields")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO templates (id, name, version, fields) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO UPDATE SET version = templates.version + 1, fields = EXCLUDED.fields`,
		tpl.ID, tpl.Name, tpl.Version, fieldsJSON,
	)
	return eris.Wrapf(err, "postgres: save template %s", tpl.Name)
}

func (s *PostgresStore) GetTemplate(ctx context.Context, templateID string) (*model.FieldTemplate, error) {
	return s.scanTemplateRow(s.pool.QueryRow(ctx,
		`SELECT id, name, version, fields FROM templates WHERE id = $1`, templateID))
}

func (s *PostgresStore) GetTemplateByName(ctx context.Context, name string) (*model.FieldTemplate, error) {
	return s.scanTemplateRow(s.pool.QueryRow(ctx,
		`SELECT id, name, version, fields FROM templates WHERE name = $1`, name))
}

func (s *PostgresStore) scanTemplateRow(row pgx.Row) (*model.FieldTemplate, error) {
	var t model.FieldTemplate
	var fieldsJSON []byte
	err := row.Scan(&t.ID, &t.Name, &t.Version, &fieldsJSON)
	if err == pgx.ErrNoRows {
		return nil, eris.New("template not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan template")
	}
	if err := json.Unmarshal(fieldsJSON, &t.Fields); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal template fields")
	}
	return &t, nil
}

func (s *PostgresStore) ListTemplates(ctx context.Context) ([]model.FieldTemplate, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, version, fields FROM templates ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list templates")
	}
	defer rows.Close()

	var tpls []model.FieldTemplate
	for rows.Next() {
		var t model.FieldTemplate
		var fieldsJSON []byte
		if err := rows.Scan(&t.ID, &t.Name, &t.Version, &fieldsJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan template")
		}
		if err := json.Unmarshal(fieldsJSON, &t.Fields); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal template fields")
		}
		tpls = append(tpls, t)
	}
	return tpls, eris.Wrap(rows.Err(), "postgres: list templates iterate")
}

// SaveExtractions replaces prior results for each covered document inside a
// transaction; citations are bulk-inserted afterwards via COPY.
func (s *PostgresStore) SaveExtractions(ctx context.Context, results []*model.ExtractionResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin save extractions")
	}
	defer tx.Rollback(ctx)

	docs := make(map[string]bool)
	for _, r := range results {
		docs[r.DocumentID] = true
	}
	for docID := range docs {
		if _, err := tx.Exec(ctx, `DELETE FROM extractions WHERE document_id = $1`, docID); err != nil {
			return eris.Wrapf(err, "postgres: clear extractions for document %s", docID)
		}
	}

	var citationRows [][]any
	for _, r := range results {
		metaJSON, err := json.Marshal(r.Metadata)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal extraction metadata")
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO extractions (id, project_id, document_id, field_name, field_type,
			   extracted_value, raw_text, normalized_value, confidence_score, status, metadata, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			r.ID, r.ProjectID, r.DocumentID, r.FieldName, string(r.FieldType),
			r.ExtractedValue, r.RawText, r.NormalizedValue, r.ConfidenceScore,
			string(r.Status), metaJSON, r.CreatedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert extraction %s/%s", r.DocumentID, r.FieldName)
		}
		for _, c := range r.Citations {
			citationRows = append(citationRows, []any{
				uuid.New().String(), r.ID, c.CitationText, c.PageNumber, c.SectionTitle, c.RelevanceScore, c.ChunkIndex,
			})
		}
	}

	if len(citationRows) > 0 {
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"citations"},
			[]string{"id", "extraction_id", "citation_text", "page_number", "section_title", "relevance_score", "chunk_index"},
			pgx.CopyFromRows(citationRows),
		)
		if err != nil {
			return eris.Wrap(err, "postgres: copy citations")
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit save extractions")
}

func (s *PostgresStore) ListExtractions(ctx context.Context, projectID string) ([]*model.ExtractionResult, error) {
	return s.listExtractionsWhere(ctx, "project_id", projectID)
}

func (s *PostgresStore) ListDocumentExtractions(ctx context.Context, documentID string) ([]*model.ExtractionResult, error) {
	return s.listExtractionsWhere(ctx, "document_id", documentID)
}

func (s *PostgresStore) listExtractionsWhere(ctx context.Context, column, id string) ([]*model.ExtractionResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, document_id, field_name, field_type,
		   COALESCE(extracted_value, ''), COALESCE(raw_text, ''), COALESCE(normalized_value, ''),
		   confidence_score, status, metadata, created_at
		 FROM extractions WHERE `+column+` = $1 ORDER BY document_id, field_name`,
		id,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list extractions")
	}
	defer rows.Close()

	var results []*model.ExtractionResult
	for rows.Next() {
		var r model.ExtractionResult
		var metaJSON []byte
		err := rows.Scan(&r.ID, &r.ProjectID, &r.DocumentID, &r.FieldName, &r.FieldType,
			&r.ExtractedValue, &r.RawText, &r.NormalizedValue, &r.ConfidenceScore, &r.Status, &metaJSON, &r.CreatedAt)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan extraction")
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &r.Metadata); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal extraction metadata")
			}
		}
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list extractions iterate")
	}

	for _, r := range results {
		if err := s.loadCitations(ctx, r); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (s *PostgresStore) loadCitations(ctx context.Context, r *model.ExtractionResult) error {
	rows, err := s.pool.Query(ctx,
		`SELECT citation_text, page_number, section_title, relevance_score, chunk_index
		 FROM citations WHERE extraction_id = $1 ORDER BY relevance_score DESC`,
		r.ID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: load citations")
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Citation
		if err := rows.Scan(&c.CitationText, &c.PageNumber, &c.SectionTitle, &c.RelevanceScore, &c.ChunkIndex); err != nil {
			return eris.Wrap(err, "postgres: scan citation")
		}
		r.Citations = append(r.Citations, c)
	}
	return eris.Wrap(rows.Err(), "postgres: load citations iterate")
}

// UpdateExtractionReview applies a human review decision. A manual value is
// only written for MANUAL_UPDATED; the pre-review value is kept in the
// metadata so evaluations can still score the original extraction.
func (s *PostgresStore) UpdateExtractionReview(ctx context.Context, extractionID string, status model.ExtractionStatus, value string) error {
	if status != model.ExtractionStatusManualUpdated {
		tag, err := s.pool.Exec(ctx,
			`UPDATE extractions SET status = $1 WHERE id = $2`,
			string(status), extractionID,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: update extraction review %s", extractionID)
		}
		if tag.RowsAffected() == 0 {
			return eris.Errorf("extraction not found: %s", extractionID)
		}
		return nil
	}

	var extracted, normalized string
	var metaJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(extracted_value, ''), COALESCE(normalized_value, ''), metadata
		 FROM extractions WHERE id = $1`,
		extractionID,
	).Scan(&extracted, &normalized, &metaJSON)
	if err == pgx.ErrNoRows {
		return eris.Errorf("extraction not found: %s", extractionID)
	}
	if err != nil {
		return eris.Wrapf(err, "postgres: read extraction %s", extractionID)
	}

	updated, err := reviewedMetadata(string(metaJSON), normalized, extracted)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE extractions SET status = $1, extracted_value = $2, normalized_value = $3, metadata = $4 WHERE id = $5`,
		string(status), value, value, []byte(updated), extractionID,
	)
	return eris.Wrapf(err, "postgres: update extraction review %s", extractionID)
}

func (s *PostgresStore) CreateAnnotation(ctx context.Context, a *model.Annotation) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	err := resilience.Do(ctx, s.retryCfg, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO annotations (id, extraction_id, comment_text, annotated_by, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			a.ID, a.ExtractionID, a.Comment, a.AnnotatedBy, a.CreatedAt, a.UpdatedAt,
		)
		return err
	})
	return eris.Wrapf(err, "postgres: insert annotation for %s", a.ExtractionID)
}

func (s *PostgresStore) ListExtractionAnnotations(ctx context.Context, extractionID string) ([]model.Annotation, error) {
	return s.listAnnotations(ctx,
		`SELECT id, extraction_id, comment_text, annotated_by, created_at, updated_at
		 FROM annotations WHERE extraction_id = $1 ORDER BY created_at`,
		extractionID,
	)
}

func (s *PostgresStore) ListProjectAnnotations(ctx context.Context, projectID string) ([]model.Annotation, error) {
	return s.listAnnotations(ctx,
		`SELECT a.id, a.extraction_id, a.comment_text, a.annotated_by, a.created_at, a.updated_at
		 FROM annotations a JOIN extractions e ON a.extraction_id = e.id
		 WHERE e.project_id = $1 ORDER BY a.created_at`,
		projectID,
	)
}

func (s *PostgresStore) listAnnotations(ctx context.Context, query, id string) ([]model.Annotation, error) {
	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list annotations")
	}
	defer rows.Close()

	var annotations []model.Annotation
	for rows.Next() {
		var a model.Annotation
		if err := rows.Scan(&a.ID, &a.ExtractionID, &a.Comment, &a.AnnotatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan annotation")
		}
		annotations = append(annotations, a)
	}
	return annotations, eris.Wrap(rows.Err(), "postgres: list annotations iterate")
}

func (s *PostgresStore) UpdateAnnotation(ctx context.Context, annotationID, comment string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE annotations SET comment_text = $1, updated_at = $2 WHERE id = $3`,
		comment, time.Now().UTC(), annotationID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update annotation %s", annotationID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("annotation not found: %s", annotationID)
	}
	return nil
}

func (s *PostgresStore) DeleteAnnotation(ctx context.Context, annotationID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM annotations WHERE id = $1`, annotationID)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete annotation %s", annotationID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("annotation not found: %s", annotationID)
	}
	return nil
}

func (s *PostgresStore) SaveEvaluation(ctx context.Context, e *model.Evaluation) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.CreatedAt = time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin save evaluation")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`DELETE FROM evaluations WHERE document_id = $1 AND field_name = $2`,
		e.DocumentID, e.FieldName,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: clear evaluation")
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO evaluations (id, project_id, document_id, field_name, model_value, human_value, match_score, normalized_match, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.ProjectID, e.DocumentID, e.FieldName, e.ModelValue, e.HumanValue, e.MatchScore, e.NormalizedMatch, e.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert evaluation %s/%s", e.DocumentID, e.FieldName)
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit save evaluation")
}

func (s *PostgresStore) ListEvaluations(ctx context.Context, projectID string) ([]model.Evaluation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, document_id, field_name, COALESCE(model_value, ''), COALESCE(human_value, ''),
		   match_score, normalized_match, created_at
		 FROM evaluations WHERE project_id = $1 ORDER BY field_name, document_id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list evaluations")
	}
	defer rows.Close()

	var evals []model.Evaluation
	for rows.Next() {
		var e model.Evaluation
		err := rows.Scan(&e.ID, &e.ProjectID, &e.DocumentID, &e.FieldName,
			&e.ModelValue, &e.HumanValue, &e.MatchScore, &e.NormalizedMatch, &e.CreatedAt)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan evaluation")
		}
		evals = append(evals, e)
	}
	return evals, eris.Wrap(rows.Err(), "postgres: list evaluations iterate")
}
