// Package diffengine reconciles extraction results across the documents of
// a project: it groups per-field values, elects a majority, flags outliers,
// and scores pairwise lexical similarity.
package diffengine

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/contract-review/internal/model"
)

// missingValue stands in for a document that produced no value for a field.
const missingValue = "N/A"

var fieldCaser = cases.Title(language.English)

// DisplayFieldName converts an internal field name into its diff-report
// label: underscores become spaces and words are title-cased.
func DisplayFieldName(name string) string {
	return fieldCaser.String(strings.ReplaceAll(name, "_", " "))
}

// Build computes the full cross-document diff for one project. Documents
// and results arrive in storage order; field order in the report follows
// first appearance across the results. Results are keyed by display name,
// so raw field names that render identically land in one row.
func Build(projectID string, docs []model.Document, results []*model.ExtractionResult) *model.DiffReport {
	byDoc := make(map[string]map[string]*model.ExtractionResult, len(docs))
	var fieldOrder []string
	seen := make(map[string]bool)

	for _, r := range results {
		display := DisplayFieldName(r.FieldName)
		if byDoc[r.DocumentID] == nil {
			byDoc[r.DocumentID] = make(map[string]*model.ExtractionResult)
		}
		byDoc[r.DocumentID][display] = r
		if !seen[display] {
			seen[display] = true
			fieldOrder = append(fieldOrder, display)
		}
	}

	report := &model.DiffReport{ProjectID: projectID}
	unanimous := 0

	for _, fieldName := range fieldOrder {
		diff := buildFieldDiff(fieldName, docs, byDoc)
		if diff.IsUnanimous {
			unanimous++
		}
		report.FieldDiffs = append(report.FieldDiffs, diff)
	}

	total := len(report.FieldDiffs)
	report.Summary = model.DiffSummary{
		TotalFields:           total,
		FieldsWithDifferences: total - unanimous,
	}
	if total > 0 {
		report.Summary.UnanimityRate = round3(float64(unanimous) / float64(total))
	}
	return report
}

func buildFieldDiff(fieldName string, docs []model.Document, byDoc map[string]map[string]*model.ExtractionResult) model.FieldDiff {
	diff := model.FieldDiff{
		FieldName:      fieldName,
		ValueGroups:    make(map[string][]string),
		DocumentValues: make(map[string]model.DocumentValue),
	}

	type docVal struct {
		filename string
		value    string
	}
	var ordered []docVal

	for _, doc := range docs {
		res := byDoc[doc.ID][fieldName]
		value := missingValue
		confidence := 0.0
		if res != nil {
			value = effectiveValue(res)
			confidence = res.ConfidenceScore
		}
		diff.ValueGroups[value] = append(diff.ValueGroups[value], doc.Filename)
		diff.DocumentValues[doc.Filename] = model.DocumentValue{
			DocumentID: doc.ID,
			Value:      value,
			Confidence: confidence,
		}
		ordered = append(ordered, docVal{filename: doc.Filename, value: value})
	}

	diff.TotalDocuments = len(docs)
	diff.UniqueValues = len(diff.ValueGroups)
	diff.IsUnanimous = diff.UniqueValues == 1

	diff.MajorityValue, diff.MajorityCount = electMajority(diff.ValueGroups)

	for _, dv := range ordered {
		if dv.value == diff.MajorityValue {
			continue
		}
		diff.Outliers = append(diff.Outliers, model.Outlier{
			Document:   dv.filename,
			DocumentID: diff.DocumentValues[dv.filename].DocumentID,
			Value:      dv.value,
			Confidence: diff.DocumentValues[dv.filename].Confidence,
		})
	}

	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			diff.SimilarityPairs = append(diff.SimilarityPairs, model.SimilarityPair{
				DocA:       ordered[i].filename,
				DocB:       ordered[j].filename,
				Similarity: round3(lcsRatio(ordered[i].value, ordered[j].value)),
			})
		}
	}

	return diff
}

// effectiveValue is the value a document contributes to the diff: the
// normalized form when present, otherwise the cleaned extracted value,
// otherwise the missing marker.
func effectiveValue(res *model.ExtractionResult) string {
	if v := strings.TrimSpace(res.NormalizedValue); v != "" {
		return v
	}
	if v := strings.TrimSpace(res.ExtractedValue); v != "" {
		return v
	}
	return missingValue
}

// electMajority picks the largest value group; ties break to the
// lexicographically smallest value so elections are deterministic.
func electMajority(groups map[string][]string) (string, int) {
	values := make([]string, 0, len(groups))
	for v := range groups {
		values = append(values, v)
	}
	sort.Strings(values)

	var winner string
	count := -1
	for _, v := range values {
		if n := len(groups[v]); n > count {
			winner = v
			count = n
		}
	}
	return winner, count
}

// lcsRatio is 2*LCS(a,b)/(len(a)+len(b)) over lowercased runes, the classic
// similarity ratio. Two empty strings score 1.
func lcsRatio(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

// SimilarityRatio scores the lexical similarity of two trimmed values in
// [0,1]. Exported for evaluation scoring against human reference values.
func SimilarityRatio(a, b string) float64 {
	return lcsRatio(strings.TrimSpace(a), strings.TrimSpace(b))
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
