package model

import "time"

// Annotation is a reviewer comment attached to one extraction. Annotations
// follow their extraction: when a document is re-extracted, its annotations
// are removed with the replaced results.
type Annotation struct {
	ID           string    `json:"id"`
	ExtractionID string    `json:"extraction_id"`
	Comment      string    `json:"comment_text"`
	AnnotatedBy  string    `json:"annotated_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Evaluation compares one extracted value against a human reference value
// for the same (document, field) pair.
type Evaluation struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	DocumentID      string    `json:"document_id"`
	FieldName       string    `json:"field_name"`
	ModelValue      string    `json:"model_value"`
	HumanValue      string    `json:"human_value"`
	MatchScore      float64   `json:"match_score"`
	NormalizedMatch bool      `json:"normalized_match"`
	CreatedAt       time.Time `json:"created_at"`
}

// EvaluationMetrics aggregates match scores across a project's
// evaluations.
type EvaluationMetrics struct {
	TotalFields       int     `json:"total_fields"`
	MatchedFields     int     `json:"matched_fields"`
	FieldAccuracy     float64 `json:"field_accuracy"`
	AverageMatchScore float64 `json:"average_match_score"`
}

// FieldAccuracy is the per-field breakdown inside an evaluation report.
type FieldAccuracy struct {
	FieldName string  `json:"field_name"`
	Total     int     `json:"total"`
	Matched   int     `json:"matched"`
	Accuracy  float64 `json:"accuracy"`
}

// EvaluationReport summarizes model-vs-human agreement for a project.
type EvaluationReport struct {
	ProjectID    string            `json:"project_id"`
	Metrics      EvaluationMetrics `json:"metrics"`
	FieldResults []FieldAccuracy   `json:"field_results"`
	GeneratedAt  time.Time         `json:"generated_at"`
}
