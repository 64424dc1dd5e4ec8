package model

import "time"

// ProjectStatus tracks a review project through its lifecycle.
type ProjectStatus string

const (
	ProjectStatusCreated    ProjectStatus = "CREATED"
	ProjectStatusReady      ProjectStatus = "READY"
	ProjectStatusExtracting ProjectStatus = "EXTRACTING"
	ProjectStatusCompleted  ProjectStatus = "COMPLETED"
	ProjectStatusError      ProjectStatus = "ERROR"
)

// DocumentStatus tracks a document through ingestion and extraction.
type DocumentStatus string

const (
	DocumentStatusUploaded  DocumentStatus = "UPLOADED"
	DocumentStatusIndexed   DocumentStatus = "INDEXED"
	DocumentStatusExtracted DocumentStatus = "EXTRACTED"
	DocumentStatusError     DocumentStatus = "ERROR"
)

// Project groups the documents reviewed against one field template.
type Project struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	TemplateID string        `json:"template_id,omitempty"`
	Status     ProjectStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Document is one legal document within a project. ContentText is the full
// plain text; binary-format conversion happens upstream of this system.
type Document struct {
	ID        string         `json:"id"`
	ProjectID string         `json:"project_id"`
	Filename  string         `json:"filename"`
	Text      string         `json:"text"`
	Status    DocumentStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TextChunk is one sentence-aligned segment of a document, created once at
// ingestion and never mutated. Page numbers are coarse position estimates,
// not real pagination.
type TextChunk struct {
	Index        int    `json:"index"`
	Text         string `json:"text"`
	PageNumber   int    `json:"page_number"`
	SectionTitle string `json:"section_title"`
	WordCount    int    `json:"word_count"`
}
