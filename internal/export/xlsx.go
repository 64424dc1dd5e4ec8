// Package export renders diff reports as spreadsheet files for review
// outside the tool.
package export

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/contract-review/internal/model"
)

// WriteDiffXLSX writes a diff report to an XLSX workbook with a comparison
// sheet, an outliers sheet, and a summary sheet. Document columns follow
// the order of docs.
func WriteDiffXLSX(path string, report *model.DiffReport, docs []model.Document) error {
	f := xlsx.NewFile()

	if err := addComparisonSheet(f, report, docs); err != nil {
		return err
	}
	if err := addOutliersSheet(f, report); err != nil {
		return err
	}
	if err := addSummarySheet(f, report); err != nil {
		return err
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

func addComparisonSheet(f *xlsx.File, report *model.DiffReport, docs []model.Document) error {
	sheet, err := f.AddSheet("Comparison")
	if err != nil {
		return eris.Wrap(err, "export: add comparison sheet")
	}

	header := sheet.AddRow()
	header.AddCell().Value = "Field"
	for _, d := range docs {
		header.AddCell().Value = d.Filename
	}
	header.AddCell().Value = "Majority Value"
	header.AddCell().Value = "Unanimous"
	header.AddCell().Value = "Unique Values"

	for _, diff := range report.FieldDiffs {
		row := sheet.AddRow()
		row.AddCell().Value = diff.FieldName
		for _, d := range docs {
			row.AddCell().Value = diff.DocumentValues[d.Filename].Value
		}
		row.AddCell().Value = diff.MajorityValue
		row.AddCell().Value = fmt.Sprintf("%t", diff.IsUnanimous)
		row.AddCell().SetInt(diff.UniqueValues)
	}
	return nil
}

func addOutliersSheet(f *xlsx.File, report *model.DiffReport) error {
	sheet, err := f.AddSheet("Outliers")
	if err != nil {
		return eris.Wrap(err, "export: add outliers sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Field", "Document", "Value", "Majority Value", "Confidence"} {
		header.AddCell().Value = h
	}

	for _, diff := range report.FieldDiffs {
		for _, o := range diff.Outliers {
			row := sheet.AddRow()
			row.AddCell().Value = diff.FieldName
			row.AddCell().Value = o.Document
			row.AddCell().Value = o.Value
			row.AddCell().Value = diff.MajorityValue
			row.AddCell().SetFloat(o.Confidence)
		}
	}
	return nil
}

func addSummarySheet(f *xlsx.File, report *model.DiffReport) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}

	add := func(label string, value string) {
		row := sheet.AddRow()
		row.AddCell().Value = label
		row.AddCell().Value = value
	}
	add("Project", report.ProjectID)
	add("Total Fields", fmt.Sprintf("%d", report.Summary.TotalFields))
	add("Fields With Differences", fmt.Sprintf("%d", report.Summary.FieldsWithDifferences))
	add("Unanimity Rate", fmt.Sprintf("%.3f", report.Summary.UnanimityRate))
	return nil
}
