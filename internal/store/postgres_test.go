package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contract-review/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgres_CreateProject(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO projects").
		WithArgs(pgxmock.AnyArg(), "lease review", nil, "CREATED", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	p, err := s.CreateProject(context.Background(), "lease review", "")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, model.ProjectStatusCreated, p.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetProject(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, name, COALESCE").
		WithArgs("proj-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "coalesce", "status", "created_at", "updated_at"}).
			AddRow("proj-1", "lease review", "tpl-1", "READY", now, now))

	p, err := s.GetProject(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "tpl-1", p.TemplateID)
	assert.Equal(t, model.ProjectStatusReady, p.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateProjectStatus_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE projects SET status").
		WithArgs("COMPLETED", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateProjectStatus(context.Background(), "missing", model.ProjectStatusCompleted)
	assert.ErrorContains(t, err, "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveChunks_UsesCopy(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM chunks").
		WithArgs("doc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCopyFrom(pgx.Identifier{"chunks"},
		[]string{"document_id", "idx", "text", "page_number", "section_title", "word_count"}).
		WillReturnResult(2)

	chunks := []model.TextChunk{
		{Index: 0, Text: "a", PageNumber: 1, SectionTitle: "Main", WordCount: 1},
		{Index: 1, Text: "b", PageNumber: 1, SectionTitle: "Main", WordCount: 1},
	}
	require.NoError(t, s.SaveChunks(context.Background(), "doc-1", chunks))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveExtractions(t *testing.T) {
	s, mock := newMockStore(t)

	res := &model.ExtractionResult{
		ID: "ext-1", ProjectID: "proj-1", DocumentID: "doc-1",
		FieldName: "governing_law", FieldType: model.FieldTypeText,
		ExtractedValue: "Delaware", ConfidenceScore: 0.9,
		Status:    model.ExtractionStatusExtracted,
		Citations: []model.Citation{{CitationText: "laws of Delaware", PageNumber: 1, SectionTitle: "Main", RelevanceScore: 0.8}},
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM extractions").
		WithArgs("doc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("INSERT INTO extractions").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"citations"},
		[]string{"id", "extraction_id", "citation_text", "page_number", "section_title", "relevance_score", "chunk_index"}).
		WillReturnResult(1)
	mock.ExpectCommit()

	require.NoError(t, s.SaveExtractions(context.Background(), []*model.ExtractionResult{res}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateExtractionReview_ManualValue(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT COALESCE\\(extracted_value").
		WithArgs("ext-1").
		WillReturnRows(pgxmock.NewRows([]string{"extracted_value", "normalized_value", "metadata"}).
			AddRow("$5,000", "USD 5000", []byte(`{"method":"tiered_llm"}`)))
	mock.ExpectExec("UPDATE extractions SET status").
		WithArgs("MANUAL_UPDATED", "USD 6000", "USD 6000", []byte(`{"method":"tiered_llm","extracted_at":"0001-01-01T00:00:00Z","previous_value":"USD 5000"}`), "ext-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateExtractionReview(context.Background(), "ext-1", model.ExtractionStatusManualUpdated, "USD 6000")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateAnnotation(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO annotations").
		WithArgs(pgxmock.AnyArg(), "ext-1", "needs a second look", "pat", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	a := &model.Annotation{ExtractionID: "ext-1", Comment: "needs a second look", AnnotatedBy: "pat"}
	require.NoError(t, s.CreateAnnotation(context.Background(), a))
	assert.NotEmpty(t, a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveEvaluation_ReplacesPrior(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM evaluations").
		WithArgs("doc-1", "governing_law").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("INSERT INTO evaluations").
		WithArgs(pgxmock.AnyArg(), "proj-1", "doc-1", "governing_law",
			"The State of Delaware", "Delaware", 0.75, false, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.SaveEvaluation(context.Background(), &model.Evaluation{
		ProjectID: "proj-1", DocumentID: "doc-1", FieldName: "governing_law",
		ModelValue: "The State of Delaware", HumanValue: "Delaware",
		MatchScore: 0.75, NormalizedMatch: false,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
