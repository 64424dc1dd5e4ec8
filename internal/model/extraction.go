package model

import "time"

// ExtractionStatus tracks the review lifecycle of one extracted field.
type ExtractionStatus string

const (
	ExtractionStatusPending       ExtractionStatus = "PENDING"
	ExtractionStatusExtracted     ExtractionStatus = "EXTRACTED"
	ExtractionStatusConfirmed     ExtractionStatus = "CONFIRMED"
	ExtractionStatusRejected      ExtractionStatus = "REJECTED"
	ExtractionStatusManualUpdated ExtractionStatus = "MANUAL_UPDATED"
	ExtractionStatusMissingData   ExtractionStatus = "MISSING_DATA"
)

// Candidate is a transient extraction produced by one tier of the cascade.
// Multiple candidates may be generated per field; only the winner becomes a
// persisted ExtractionResult.
type Candidate struct {
	Value      string  `json:"value"`
	RawText    string  `json:"raw_text,omitempty"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
}

// Empty reports whether the candidate carries no value.
func (c Candidate) Empty() bool {
	return c.Value == ""
}

// Attempt records the outcome of a single cascade tier, for explainability.
type Attempt struct {
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
	Failed     bool    `json:"failed,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

// Citation is a ranked excerpt of source text offered as evidence for an
// extracted value. Citations belong to exactly one extraction and are
// ordered by descending relevance.
type Citation struct {
	CitationText   string  `json:"citation_text"`
	PageNumber     int     `json:"page_number"`
	SectionTitle   string  `json:"section_title"`
	RelevanceScore float64 `json:"relevance_score"`
	ChunkIndex     int     `json:"chunk_index"`
}

// ExtractionMetadata describes how and when a value was extracted.
// PreviousValue keeps the pre-review value when a reviewer overrides it,
// so evaluations can still score the original extraction.
type ExtractionMetadata struct {
	Method        string    `json:"method"`
	ExtractedAt   time.Time `json:"extracted_at"`
	Attempts      []Attempt `json:"attempts,omitempty"`
	Error         string    `json:"error,omitempty"`
	PreviousValue string    `json:"previous_value,omitempty"`
}

// ExtractionResult is the persisted record for one (document, field) pair.
// Invariants: ConfidenceScore is always in [0,1]; a result with no extracted
// value has ConfidenceScore 0.0 and no citations; NormalizedValue is either
// a type-canonical string or empty.
type ExtractionResult struct {
	ID              string             `json:"id"`
	ProjectID       string             `json:"project_id"`
	DocumentID      string             `json:"document_id"`
	FieldName       string             `json:"field_name"`
	FieldType       FieldType          `json:"field_type"`
	ExtractedValue  string             `json:"extracted_value,omitempty"`
	RawText         string             `json:"raw_text,omitempty"`
	NormalizedValue string             `json:"normalized_value,omitempty"`
	ConfidenceScore float64            `json:"confidence_score"`
	Status          ExtractionStatus   `json:"status"`
	Citations       []Citation         `json:"citations,omitempty"`
	Metadata        ExtractionMetadata `json:"metadata"`
	CreatedAt       time.Time          `json:"created_at"`
}
