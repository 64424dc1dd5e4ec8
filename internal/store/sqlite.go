package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/contract-review/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode with foreign keys on.
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
CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	template_id TEXT,
	status      TEXT NOT NULL DEFAULT 'CREATED',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	filename     TEXT NOT NULL,
	content_text TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'UPLOADED',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
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
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL UNIQUE,
	version INTEGER NOT NULL DEFAULT 1,
	fields  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS extractions (
	id               TEXT PRIMARY KEY,
	project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	document_id      TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	field_name       TEXT NOT NULL,
	field_type       TEXT NOT NULL,
	extracted_value  TEXT,
	raw_text         TEXT,
	normalized_value TEXT,
	confidence_score REAL NOT NULL DEFAULT 0,
	status           TEXT NOT NULL DEFAULT 'PENDING',
	metadata         TEXT,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS citations (
	id              TEXT PRIMARY KEY,
	extraction_id   TEXT NOT NULL REFERENCES extractions(id) ON DELETE CASCADE,
	citation_text   TEXT NOT NULL,
	page_number     INTEGER NOT NULL,
	section_title   TEXT NOT NULL,
	relevance_score REAL NOT NULL,
	chunk_index     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS annotations (
	id            TEXT PRIMARY KEY,
	extraction_id TEXT NOT NULL REFERENCES extractions(id) ON DELETE CASCADE,
	comment_text  TEXT NOT NULL,
	annotated_by  TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS evaluations (
	id               TEXT PRIMARY KEY,
	project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	document_id      TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	field_name       TEXT NOT NULL,
	model_value      TEXT,
	human_value      TEXT,
	match_score      REAL NOT NULL DEFAULT 0,
	normalized_match INTEGER NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_documents_project_id ON documents(project_id);
CREATE INDEX IF NOT EXISTS idx_extractions_project_id ON extractions(project_id);
CREATE INDEX IF NOT EXISTS idx_extractions_document_id ON extractions(document_id);
CREATE INDEX IF NOT EXISTS idx_citations_extraction_id ON citations(extraction_id);
CREATE INDEX IF NOT EXISTS idx_annotations_extraction_id ON annotations(extraction_id);
CREATE INDEX IF NOT EXISTS idx_evaluations_project_id ON evaluations(project_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateProject(ctx context.Context, name, templateID string) (*model.Project, error) {
	p := &model.Project{
		ID:         uuid.New().String(),
		Name:       name,
		TemplateID: templateID,
		Status:     model.ProjectStatusCreated,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, template_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, nullable(p.TemplateID), string(p.Status), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert project")
	}
	return p, nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, template_id, status, created_at, updated_at FROM projects WHERE id = ?`,
		projectID,
	)
	return scanProject(row)
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, template_id, status, created_at, updated_at FROM projects ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, eris.Wrap(rows.Err(), "sqlite: list projects iterate")
}

func (s *SQLiteStore) UpdateProjectStatus(ctx context.Context, projectID string, status model.ProjectStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), projectID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update project status %s", projectID)
	}
	return checkRowsAffected(res, "project", projectID)
}

func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Status == "" {
		doc.Status = model.DocumentStatusUploaded
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, project_id, filename, content_text, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.ProjectID, doc.Filename, doc.Text, string(doc.Status), doc.CreatedAt, doc.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert document %s", doc.Filename)
}

func (s *SQLiteStore) GetDocument(ctx context.Context, documentID string) (*model.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, filename, content_text, status, created_at, updated_at
		 FROM documents WHERE id = ?`,
		documentID,
	)
	return scanDocument(row)
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, projectID string) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, filename, content_text, status, created_at, updated_at
		 FROM documents WHERE project_id = ? ORDER BY created_at, filename`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: list documents iterate")
}

func (s *SQLiteStore) UpdateDocumentStatus(ctx context.Context, documentID string, status model.DocumentStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), documentID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update document status %s", documentID)
	}
	return checkRowsAffected(res, "document", documentID)
}

func (s *SQLiteStore) SaveChunks(ctx context.Context, documentID string, chunks []model.TextChunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save chunks")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID); err != nil {
		return eris.Wrap(err, "sqlite: clear chunks")
	}
	for _, c := range chunks {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (document_id, idx, text, page_number, section_title, word_count)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			documentID, c.Index, c.Text, c.PageNumber, c.SectionTitle, c.WordCount,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert chunk %d", c.Index)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit save chunks")
}

func (s *SQLiteStore) GetChunks(ctx context.Context, documentID string) ([]model.TextChunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, text, page_number, section_title, word_count
		 FROM chunks WHERE document_id = ? ORDER BY idx`,
		documentID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get chunks")
	}
	defer rows.Close()

	var chunks []model.TextChunk
	for rows.Next() {
		var c model.TextChunk
		if err := rows.Scan(&c.Index, &c.Text, &c.PageNumber, &c.SectionTitle, &c.WordCount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan chunk")
		}
		chunks = append(chunks, c)
	}
	return chunks, eris.Wrap(rows.Err(), "sqlite: get chunks iterate")
}

func (s *SQLiteStore) SaveTemplate(ctx context.Context, tpl *model.FieldTemplate) error {
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	if tpl.Version <= 0 {
		tpl.Version = 1
	}
	fieldsJSON, err := json.Marshal(tpl.Fields)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal template fields")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO templates (id, name, version, fields) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET version = version + 1, fields = excluded.fields`,
		tpl.ID, tpl.Name, tpl.Version, string(fieldsJSON),
	)
	return eris.Wrapf(err, "sqlite: save template %s", tpl.Name)
}

func (s *SQLiteStore) GetTemplate(ctx context.Context, templateID string) (*model.FieldTemplate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, version, fields FROM templates WHERE id = ?`, templateID,
	)
	return scanTemplate(row)
}

func (s *SQLiteStore) GetTemplateByName(ctx context.Context, name string) (*model.FieldTemplate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, version, fields FROM templates WHERE name = ?`, name,
	)
	return scanTemplate(row)
}

func (s *SQLiteStore) ListTemplates(ctx context.Context) ([]model.FieldTemplate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, version, fields FROM templates ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list templates")
	}
	defer rows.Close()

	var tpls []model.FieldTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		tpls = append(tpls, *t)
	}
	return tpls, eris.Wrap(rows.Err(), "sqlite: list templates iterate")
}

// SaveExtractions replaces prior results for each document covered by the
// batch, then inserts the new results and their citations in one
// transaction.
func (s *SQLiteStore) SaveExtractions(ctx context.Context, results []*model.ExtractionResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save extractions")
	}
	defer tx.Rollback()

	docs := make(map[string]bool)
	for _, r := range results {
		docs[r.DocumentID] = true
	}
	for docID := range docs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM extractions WHERE document_id = ?`, docID); err != nil {
			return eris.Wrapf(err, "sqlite: clear extractions for document %s", docID)
		}
	}

	for _, r := range results {
		metaJSON, err := json.Marshal(r.Metadata)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal extraction metadata")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO extractions (id, project_id, document_id, field_name, field_type,
			   extracted_value, raw_text, normalized_value, confidence_score, status, metadata, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.ProjectID, r.DocumentID, r.FieldName, string(r.FieldType),
			r.ExtractedValue, r.RawText, r.NormalizedValue, r.ConfidenceScore,
			string(r.Status), string(metaJSON), r.CreatedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert extraction %s/%s", r.DocumentID, r.FieldName)
		}
		for _, c := range r.Citations {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO citations (id, extraction_id, citation_text, page_number, section_title, relevance_score, chunk_index)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				uuid.New().String(), r.ID, c.CitationText, c.PageNumber, c.SectionTitle, c.RelevanceScore, c.ChunkIndex,
			)
			if err != nil {
				return eris.Wrap(err, "sqlite: insert citation")
			}
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit save extractions")
}

func (s *SQLiteStore) ListExtractions(ctx context.Context, projectID string) ([]*model.ExtractionResult, error) {
	return s.listExtractionsWhere(ctx, "project_id", projectID)
}

func (s *SQLiteStore) ListDocumentExtractions(ctx context.Context, documentID string) ([]*model.ExtractionResult, error) {
	return s.listExtractionsWhere(ctx, "document_id", documentID)
}

func (s *SQLiteStore) listExtractionsWhere(ctx context.Context, column, id string) ([]*model.ExtractionResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, document_id, field_name, field_type, extracted_value,
		   raw_text, normalized_value, confidence_score, status, metadata, created_at
		 FROM extractions WHERE `+column+` = ? ORDER BY document_id, field_name`,
		id,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list extractions")
	}
	defer rows.Close()

	var results []*model.ExtractionResult
	for rows.Next() {
		r, err := scanExtraction(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list extractions iterate")
	}

	for _, r := range results {
		if err := s.loadCitations(ctx, r); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (s *SQLiteStore) loadCitations(ctx context.Context, r *model.ExtractionResult) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT citation_text, page_number, section_title, relevance_score, chunk_index
		 FROM citations WHERE extraction_id = ? ORDER BY relevance_score DESC`,
		r.ID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: load citations")
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Citation
		if err := rows.Scan(&c.CitationText, &c.PageNumber, &c.SectionTitle, &c.RelevanceScore, &c.ChunkIndex); err != nil {
			return eris.Wrap(err, "sqlite: scan citation")
		}
		r.Citations = append(r.Citations, c)
	}
	return eris.Wrap(rows.Err(), "sqlite: load citations iterate")
}

// UpdateExtractionReview applies a human review decision. A manual value is
// only written for MANUAL_UPDATED; the pre-review value is kept in the
// metadata so evaluations can still score the original extraction.
func (s *SQLiteStore) UpdateExtractionReview(ctx context.Context, extractionID string, status model.ExtractionStatus, value string) error {
	if status != model.ExtractionStatusManualUpdated {
		res, err := s.db.ExecContext(ctx,
			`UPDATE extractions SET status = ? WHERE id = ?`,
			string(status), extractionID,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: update extraction review %s", extractionID)
		}
		return checkRowsAffected(res, "extraction", extractionID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin review update")
	}
	defer tx.Rollback()

	var extracted, normalized, meta sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT extracted_value, normalized_value, metadata FROM extractions WHERE id = ?`,
		extractionID,
	).Scan(&extracted, &normalized, &meta)
	if err == sql.ErrNoRows {
		return eris.Errorf("extraction not found: %s", extractionID)
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: read extraction %s", extractionID)
	}

	metaJSON, err := reviewedMetadata(meta.String, normalized.String, extracted.String)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE extractions SET status = ?, extracted_value = ?, normalized_value = ?, metadata = ? WHERE id = ?`,
		string(status), value, value, metaJSON, extractionID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update extraction review %s", extractionID)
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit review update")
}

// reviewedMetadata records the pre-review value in the metadata blob. The
// first override wins so repeated manual updates keep the original value.
func reviewedMetadata(metaJSON, normalized, extracted string) (string, error) {
	var meta model.ExtractionMetadata
	if metaJSON != "" {
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return "", eris.Wrap(err, "unmarshal extraction metadata")
		}
	}
	if meta.PreviousValue == "" {
		if normalized != "" {
			meta.PreviousValue = normalized
		} else {
			meta.PreviousValue = extracted
		}
	}
	out, err := json.Marshal(meta)
	if err != nil {
		return "", eris.Wrap(err, "marshal extraction metadata")
	}
	return string(out), nil
}

func (s *SQLiteStore) CreateAnnotation(ctx context.Context, a *model.Annotation) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO annotations (id, extraction_id, comment_text, annotated_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.ExtractionID, a.Comment, a.AnnotatedBy, a.CreatedAt, a.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert annotation for %s", a.ExtractionID)
}

func (s *SQLiteStore) ListExtractionAnnotations(ctx context.Context, extractionID string) ([]model.Annotation, error) {
	return s.listAnnotations(ctx,
		`SELECT id, extraction_id, comment_text, annotated_by, created_at, updated_at
		 FROM annotations WHERE extraction_id = ? ORDER BY created_at`,
		extractionID,
	)
}

func (s *SQLiteStore) ListProjectAnnotations(ctx context.Context, projectID string) ([]model.Annotation, error) {
	return s.listAnnotations(ctx,
		`SELECT a.id, a.extraction_id, a.comment_text, a.annotated_by, a.created_at, a.updated_at
		 FROM annotations a JOIN extractions e ON a.extraction_id = e.id
		 WHERE e.project_id = ? ORDER BY a.created_at`,
		projectID,
	)
}

func (s *SQLiteStore) listAnnotations(ctx context.Context, query, id string) ([]model.Annotation, error) {
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list annotations")
	}
	defer rows.Close()

	var annotations []model.Annotation
	for rows.Next() {
		var a model.Annotation
		if err := rows.Scan(&a.ID, &a.ExtractionID, &a.Comment, &a.AnnotatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan annotation")
		}
		annotations = append(annotations, a)
	}
	return annotations, eris.Wrap(rows.Err(), "sqlite: list annotations iterate")
}

func (s *SQLiteStore) UpdateAnnotation(ctx context.Context, annotationID, comment string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE annotations SET comment_text = ?, updated_at = ? WHERE id = ?`,
		comment, time.Now().UTC(), annotationID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update annotation %s", annotationID)
	}
	return checkRowsAffected(res, "annotation", annotationID)
}

func (s *SQLiteStore) DeleteAnnotation(ctx context.Context, annotationID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM annotations WHERE id = ?`, annotationID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete annotation %s", annotationID)
	}
	return checkRowsAffected(res, "annotation", annotationID)
}

func (s *SQLiteStore) SaveEvaluation(ctx context.Context, e *model.Evaluation) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save evaluation")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM evaluations WHERE document_id = ? AND field_name = ?`,
		e.DocumentID, e.FieldName,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: clear evaluation")
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO evaluations (id, project_id, document_id, field_name, model_value, human_value, match_score, normalized_match, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ProjectID, e.DocumentID, e.FieldName, e.ModelValue, e.HumanValue, e.MatchScore, e.NormalizedMatch, e.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert evaluation %s/%s", e.DocumentID, e.FieldName)
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit save evaluation")
}

func (s *SQLiteStore) ListEvaluations(ctx context.Context, projectID string) ([]model.Evaluation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, document_id, field_name, model_value, human_value, match_score, normalized_match, created_at
		 FROM evaluations WHERE project_id = ? ORDER BY field_name, document_id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list evaluations")
	}
	defer rows.Close()

	var evals []model.Evaluation
	for rows.Next() {
		var e model.Evaluation
		err := rows.Scan(&e.ID, &e.ProjectID, &e.DocumentID, &e.FieldName,
			&e.ModelValue, &e.HumanValue, &e.MatchScore, &e.NormalizedMatch, &e.CreatedAt)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan evaluation")
		}
		evals = append(evals, e)
	}
	return evals, eris.Wrap(rows.Err(), "sqlite: list evaluations iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type scannable interface {
	Scan(dest ...any) error
}

func scanProject(row scannable) (*model.Project, error) {
	var p model.Project
	var templateID sql.NullString
	err := row.Scan(&p.ID, &p.Name, &templateID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("project not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan project")
	}
	p.TemplateID = templateID.String
	return &p, nil
}

func scanDocument(row scannable) (*model.Document, error) {
	var d model.Document
	err := row.Scan(&d.ID, &d.ProjectID, &d.Filename, &d.Text, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("document not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan document")
	}
	return &d, nil
}

func scanTemplate(row scannable) (*model.FieldTemplate, error) {
	var t model.FieldTemplate
	var fieldsJSON string
	err := row.Scan(&t.ID, &t.Name, &t.Version, &fieldsJSON)
	if err == sql.ErrNoRows {
		return nil, eris.New("template not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan template")
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &t.Fields); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal template fields")
	}
	return &t, nil
}

func scanExtraction(row scannable) (*model.ExtractionResult, error) {
	var r model.ExtractionResult
	var extracted, raw, normalized, meta sql.NullString
	err := row.Scan(&r.ID, &r.ProjectID, &r.DocumentID, &r.FieldName, &r.FieldType,
		&extracted, &raw, &normalized, &r.ConfidenceScore, &r.Status, &meta, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("extraction not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan extraction")
	}
	r.ExtractedValue = extracted.String
	r.RawText = raw.String
	r.NormalizedValue = normalized.String
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &r.Metadata); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal extraction metadata")
		}
	}
	return &r, nil
}
