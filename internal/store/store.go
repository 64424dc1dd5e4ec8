package store

import (
	"context"

	"github.com/sells-group/contract-review/internal/model"
)

// Store defines the persistence interface for review projects, their
// documents and chunks, field templates, and extraction results.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, name, templateID string) (*model.Project, error)
	GetProject(ctx context.Context, projectID string) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	UpdateProjectStatus(ctx context.Context, projectID string, status model.ProjectStatus) error

	// Documents
	CreateDocument(ctx context.Context, doc *model.Document) error
	GetDocument(ctx context.Context, documentID string) (*model.Document, error)
	ListDocuments(ctx context.Context, projectID string) ([]model.Document, error)
	UpdateDocumentStatus(ctx context.Context, documentID string, status model.DocumentStatus) error

	// Chunks, written once at ingestion
	SaveChunks(ctx context.Context, documentID string, chunks []model.TextChunk) error
	GetChunks(ctx context.Context, documentID string) ([]model.TextChunk, error)

	// Field templates
	SaveTemplate(ctx context.Context, tpl *model.FieldTemplate) error
	GetTemplate(ctx context.Context, templateID string) (*model.FieldTemplate, error)
	GetTemplateByName(ctx context.Context, name string) (*model.FieldTemplate, error)
	ListTemplates(ctx context.Context) ([]model.FieldTemplate, error)

	// Extractions. SaveExtractions replaces any prior results for the
	// document so re-extraction is idempotent; citations follow their
	// extraction.
	SaveExtractions(ctx context.Context, results []*model.ExtractionResult) error
	ListExtractions(ctx context.Context, projectID string) ([]*model.ExtractionResult, error)
	ListDocumentExtractions(ctx context.Context, documentID string) ([]*model.ExtractionResult, error)
	UpdateExtractionReview(ctx context.Context, extractionID string, status model.ExtractionStatus, value string) error

	// Annotations, attached to extractions and removed with them.
	CreateAnnotation(ctx context.Context, a *model.Annotation) error
	ListExtractionAnnotations(ctx context.Context, extractionID string) ([]model.Annotation, error)
	ListProjectAnnotations(ctx context.Context, projectID string) ([]model.Annotation, error)
	UpdateAnnotation(ctx context.Context, annotationID, comment string) error
	DeleteAnnotation(ctx context.Context, annotationID string) error

	// Evaluations. SaveEvaluation replaces any prior evaluation of the
	// same (document, field) pair so re-evaluation is idempotent.
	SaveEvaluation(ctx context.Context, e *model.Evaluation) error
	ListEvaluations(ctx context.Context, projectID string) ([]model.Evaluation, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
