// Package review orchestrates the document review workflow: ingestion and
// chunking, per-document extraction, cross-document diffing, and export.
package review

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contract-review/internal/chunker"
	"github.com/sells-group/contract-review/internal/diffengine"
	"github.com/sells-group/contract-review/internal/export"
	"github.com/sells-group/contract-review/internal/extractor"
	"github.com/sells-group/contract-review/internal/model"
	"github.com/sells-group/contract-review/internal/store"
)

// Service wires the store, chunker, and extractor into the operations the
// CLI and HTTP API expose.
type Service struct {
	store     store.Store
	chunker   *chunker.Chunker
	extractor *extractor.Extractor
}

// NewService builds the review service.
func NewService(st store.Store, ch *chunker.Chunker, ex *extractor.Extractor) *Service {
	return &Service{store: st, chunker: ch, extractor: ex}
}

// IngestDocument stores a document and its chunks. The chunks are written
// once here and never recomputed.
func (s *Service) IngestDocument(ctx context.Context, projectID, filename, text string) (*model.Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, eris.Errorf("review: document %s is empty", filename)
	}

	doc := &model.Document{
		ProjectID: projectID,
		Filename:  filename,
		Text:      text,
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	chunks := s.chunker.Chunk(text)
	if err := s.store.SaveChunks(ctx, doc.ID, chunks); err != nil {
		return nil, err
	}
	if err := s.store.UpdateDocumentStatus(ctx, doc.ID, model.DocumentStatusIndexed); err != nil {
		return nil, err
	}
	doc.Status = model.DocumentStatusIndexed

	zap.L().Info("document ingested",
		zap.String("project_id", projectID),
		zap.String("document_id", doc.ID),
		zap.String("filename", filename),
		zap.Int("chunks", len(chunks)),
	)
	return doc, nil
}

// ExtractProject runs the cascade over every document in the project using
// the project's field template. Results replace any prior extraction.
func (s *Service) ExtractProject(ctx context.Context, projectID string) ([]*model.ExtractionResult, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	fields, err := s.projectFields(ctx, project)
	if err != nil {
		return nil, err
	}
	docs, err := s.store.ListDocuments(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, eris.Errorf("review: project %s has no documents", projectID)
	}

	if err := s.store.UpdateProjectStatus(ctx, projectID, model.ProjectStatusExtracting); err != nil {
		return nil, err
	}

	var all []*model.ExtractionResult
	for i := range docs {
		results, err := s.extractDocument(ctx, &docs[i], fields)
		if err != nil {
			if stErr := s.store.UpdateProjectStatus(ctx, projectID, model.ProjectStatusError); stErr != nil {
				zap.L().Warn("mark project errored", zap.Error(stErr))
			}
			return nil, err
		}
		all = append(all, results...)
	}

	if err := s.store.UpdateProjectStatus(ctx, projectID, model.ProjectStatusCompleted); err != nil {
		return nil, err
	}
	return all, nil
}

// ExtractDocument runs the cascade over a single document.
func (s *Service) ExtractDocument(ctx context.Context, documentID string) ([]*model.ExtractionResult, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	project, err := s.store.GetProject(ctx, doc.ProjectID)
	if err != nil {
		return nil, err
	}
	fields, err := s.projectFields(ctx, project)
	if err != nil {
		return nil, err
	}
	return s.extractDocument(ctx, doc, fields)
}

func (s *Service) extractDocument(ctx context.Context, doc *model.Document, fields []model.FieldDefinition) ([]*model.ExtractionResult, error) {
	chunks, err := s.store.GetChunks(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	results, err := s.extractor.ExtractDocument(ctx, doc, fields, chunks)
	if err != nil {
		if stErr := s.store.UpdateDocumentStatus(ctx, doc.ID, model.DocumentStatusError); stErr != nil {
			zap.L().Warn("mark document errored", zap.Error(stErr))
		}
		return nil, err
	}

	if err := s.store.SaveExtractions(ctx, results); err != nil {
		return nil, err
	}
	if err := s.store.UpdateDocumentStatus(ctx, doc.ID, model.DocumentStatusExtracted); err != nil {
		return nil, err
	}

	extracted := 0
	for _, r := range results {
		if r.Status == model.ExtractionStatusExtracted {
			extracted++
		}
	}
	zap.L().Info("document extracted",
		zap.String("document_id", doc.ID),
		zap.String("filename", doc.Filename),
		zap.Int("fields", len(results)),
		zap.Int("with_values", extracted),
	)
	return results, nil
}

// Diff builds the cross-document reconciliation report for a project.
func (s *Service) Diff(ctx context.Context, projectID string) (*model.DiffReport, error) {
	docs, err := s.store.ListDocuments(ctx, projectID)
	if err != nil {
		return nil, err
	}
	results, err := s.store.ListExtractions(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, eris.Errorf("review: project %s has no extractions", projectID)
	}
	return diffengine.Build(projectID, docs, results), nil
}

// ExportDiff writes the diff report for a project to an XLSX workbook.
func (s *Service) ExportDiff(ctx context.Context, projectID, path string) error {
	docs, err := s.store.ListDocuments(ctx, projectID)
	if err != nil {
		return err
	}
	report, err := s.Diff(ctx, projectID)
	if err != nil {
		return err
	}
	return export.WriteDiffXLSX(path, report, docs)
}

// projectFields resolves the project's template into its field list.
func (s *Service) projectFields(ctx context.Context, project *model.Project) ([]model.FieldDefinition, error) {
	if project.TemplateID == "" {
		return nil, eris.Errorf("review: project %s has no field template", project.ID)
	}
	tpl, err := s.store.GetTemplate(ctx, project.TemplateID)
	if err != nil {
		return nil, err
	}
	registry := model.NewFieldRegistry(tpl.Fields)
	return registry.Fields, nil
}
