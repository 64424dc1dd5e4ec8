package model

// Outlier is a document whose value for a field differs from the majority.
type Outlier struct {
	Document   string  `json:"document"`
	DocumentID string  `json:"document_id"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// SimilarityPair is the lexical similarity between two documents' values for
// one field.
type SimilarityPair struct {
	DocA       string  `json:"doc_a"`
	DocB       string  `json:"doc_b"`
	Similarity float64 `json:"similarity"`
}

// DocumentValue is one document's contribution to a field diff.
type DocumentValue struct {
	DocumentID string  `json:"document_id"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// FieldDiff is the cross-document reconciliation of a single field. It is
// derived on demand and never persisted.
type FieldDiff struct {
	FieldName       string                   `json:"field_name"`
	IsUnanimous     bool                     `json:"is_unanimous"`
	MajorityValue   string                   `json:"majority_value"`
	MajorityCount   int                      `json:"majority_count"`
	TotalDocuments  int                      `json:"total_documents"`
	UniqueValues    int                      `json:"unique_values"`
	ValueGroups     map[string][]string      `json:"value_groups"`
	Outliers        []Outlier                `json:"outliers"`
	DocumentValues  map[string]DocumentValue `json:"document_values"`
	SimilarityPairs []SimilarityPair         `json:"similarity_pairs"`
}

// DiffSummary aggregates a diff run across all fields.
type DiffSummary struct {
	TotalFields           int     `json:"total_fields"`
	FieldsWithDifferences int     `json:"fields_with_differences"`
	UnanimityRate         float64 `json:"unanimity_rate"`
}

// DiffReport is the full output of the diff engine for a project.
type DiffReport struct {
	ProjectID  string      `json:"project_id"`
	FieldDiffs []FieldDiff `json:"field_diffs"`
	Summary    DiffSummary `json:"summary"`
}
