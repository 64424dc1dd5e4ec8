package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/contract-review/internal/model"
)

func sampleReport() (*model.DiffReport, []model.Document) {
	docs := []model.Document{
		{ID: "d1", Filename: "lease_a.txt"},
		{ID: "d2", Filename: "lease_b.txt"},
	}
	report := &model.DiffReport{
		ProjectID: "proj-1",
		FieldDiffs: []model.FieldDiff{{
			FieldName:      "Governing Law",
			MajorityValue:  "Delaware",
			MajorityCount:  1,
			TotalDocuments: 2,
			UniqueValues:   2,
			DocumentValues: map[string]model.DocumentValue{
				"lease_a.txt": {DocumentID: "d1", Value: "Delaware", Confidence: 0.9},
				"lease_b.txt": {DocumentID: "d2", Value: "Texas", Confidence: 0.7},
			},
			Outliers: []model.Outlier{
				{Document: "lease_b.txt", DocumentID: "d2", Value: "Texas", Confidence: 0.7},
			},
		}},
		Summary: model.DiffSummary{TotalFields: 1, FieldsWithDifferences: 1, UnanimityRate: 0},
	}
	return report, docs
}

func TestWriteDiffXLSX(t *testing.T) {
	report, docs := sampleReport()
	path := filepath.Join(t.TempDir(), "diff.xlsx")

	require.NoError(t, WriteDiffXLSX(path, report, docs))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 3)

	comparison := f.Sheet["Comparison"]
	require.NotNil(t, comparison)
	header := comparison.Rows[0]
	assert.Equal(t, "Field", header.Cells[0].Value)
	assert.Equal(t, "lease_a.txt", header.Cells[1].Value)
	assert.Equal(t, "lease_b.txt", header.Cells[2].Value)
	assert.Equal(t, "Majority Value", header.Cells[3].Value)

	row := comparison.Rows[1]
	assert.Equal(t, "Governing Law", row.Cells[0].Value)
	assert.Equal(t, "Delaware", row.Cells[1].Value)
	assert.Equal(t, "Texas", row.Cells[2].Value)
	assert.Equal(t, "Delaware", row.Cells[3].Value)
	assert.Equal(t, "false", row.Cells[4].Value)

	outliers := f.Sheet["Outliers"]
	require.NotNil(t, outliers)
	require.Len(t, outliers.Rows, 2)
	assert.Equal(t, "lease_b.txt", outliers.Rows[1].Cells[1].Value)
	assert.Equal(t, "Texas", outliers.Rows[1].Cells[2].Value)

	summary := f.Sheet["Summary"]
	require.NotNil(t, summary)
	assert.Equal(t, "Project", summary.Rows[0].Cells[0].Value)
	assert.Equal(t, "proj-1", summary.Rows[0].Cells[1].Value)
	assert.Equal(t, "0.000", summary.Rows[3].Cells[1].Value)
}

func TestWriteDiffXLSX_EmptyReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	report := &model.DiffReport{ProjectID: "proj-1"}

	require.NoError(t, WriteDiffXLSX(path, report, nil))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Sheets, 3)
}
