// Package heuristic extracts field values from document text using a
// data-driven catalog of field-name-keyed regular expressions, with generic
// alias-window and sentence fallbacks. It is the universal backstop tier of
// the extraction cascade.
package heuristic

import (
	"regexp"
	"strings"

	"github.com/sells-group/contract-review/internal/model"
	"github.com/sells-group/contract-review/internal/textnorm"
)

const (
	// baseConfidence is the floor for catalog pattern matches; each pattern
	// adds its boost on top, capped at 1.0.
	baseConfidence = 0.6

	// windowConfidence scores the alias rest-of-line fallback.
	windowConfidence = 0.4

	// sentenceConfidence scores the sentence-containing-alias fallback.
	sentenceConfidence = 0.35

	// contextRadius is the window around a match kept as citation context.
	contextRadius = 300

	// minTextMatchLen widens shorter TEXT matches to their sentence.
	minTextMatchLen = 20

	// maxWindowLen caps the alias rest-of-line capture.
	maxWindowLen = 500
)

// pattern pairs a compiled regex with its confidence boost. The first
// capture group holds the value; a group-less pattern uses the whole match.
type pattern struct {
	re    *regexp.Regexp
	boost float64
}

func pat(expr string, boost float64) pattern {
	return pattern{re: regexp.MustCompile(`(?i)` + expr), boost: boost}
}

// catalogEntry keys a pattern list to a field-name/type predicate. Entries
// are evaluated top to bottom; the first entry whose predicate holds
// supplies the patterns for that field.
type catalogEntry struct {
	matches  func(name string, ft model.FieldType) bool
	patterns []pattern
}

func nameHas(subs ...string) func(string, model.FieldType) bool {
	return func(name string, _ model.FieldType) bool {
		for _, s := range subs {
			if strings.Contains(name, s) {
				return true
			}
		}
		return false
	}
}

func nameHasOrType(ft model.FieldType, subs ...string) func(string, model.FieldType) bool {
	byName := nameHas(subs...)
	return func(name string, t model.FieldType) bool {
		return byName(name, t) || t == ft
	}
}

// catalog is the ordered field-pattern table for common legal fields.
var catalog = []catalogEntry{
	{nameHasOrType(model.FieldTypeDate, "date"), []pattern{
		pat(`(\d{1,2}/\d{1,2}/\d{4})`, 0.3),
		pat(`(\d{4}-\d{2}-\d{2})`, 0.3),
		pat(`((?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4})`, 0.4),
		pat(`(?:dated|dated as of|as of)\s+([A-Za-z0-9,\s]+?\d{4})`, 0.3),
	}},
	{nameHas("party", "parties"), []pattern{
		pat(`(?:by and between)\s+([A-Z][A-Za-z\s&.,]+?)\s+(?:and)\s+([A-Z][A-Za-z\s&.,]+)`, 0.4),
		pat(`(?:between)\s+([A-Z][A-Za-z\s&.,]+?)\s+(?:and)`, 0.3),
		pat(`(?:party):\s*([A-Z][A-Za-z\s&.,]+?)(?:\n|;)`, 0.4),
	}},
	{nameHas("effective", "term"), []pattern{
		pat(`(?:effective)(?:\s+date)?[:\s]+([A-Za-z0-9\s,./\-]+?)(?:[,;]|and|on)`, 0.3),
		pat(`(?:term)[:\s]+([A-Za-z0-9\s,./\-]+?)(?:[,;]|and|\n)`, 0.3),
		pat(`(?:expire|expiration|expiry)[:\s]+([A-Za-z0-9\s,./\-]+?)(?:[,;]|\n)`, 0.3),
	}},
	{nameHasOrType(model.FieldTypeCurrency, "currency", "amount"), []pattern{
		pat(`\$[\d,]+\.?\d*`, 0.4),
		pat(`(?:USD|EUR|GBP)[\s]*[\d,]+\.?\d*`, 0.3),
		pat(`(?:purchase price|consideration|price)[:\s]+\$?([\d,]+\.?\d*)`, 0.4),
	}},
	{nameHas("governing law", "law"), []pattern{
		pat(`governed by the laws of\s+([A-Za-z\s]+?)(?:\.|;|\n)`, 0.4),
	}},
	{nameHas("confidential"), []pattern{
		pat(`(?:confidentiality|confidential)\s+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
	}},
	{nameHas("termination", "terminate"), []pattern{
		pat(`(?:termination|terminate)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
	}},
	{nameHas("indemn"), []pattern{
		pat(`(?:indemnification|indemnify|indemnity)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
	}},
	{nameHas("liable", "liability cap", "cap"), []pattern{
		pat(`(?:aggregate liability|liability cap)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
		pat(`liability.*shall not exceed\s+([A-Za-z0-9\s,$]+)`, 0.4),
	}},
	{nameHas("liability"), []pattern{
		pat(`(?:liability)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|and|as)`, 0.3),
	}},
	{nameHas("jurisdiction", "venue"), []pattern{
		pat(`(?:jurisdiction|venue)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
		pat(`governed by the laws of\s+([A-Za-z\s]+)`, 0.4),
		pat(`courts of\s+([A-Za-z\s,]+)\s+shall have`, 0.4),
		pat(`submit to the.*jurisdiction of\s+([A-Za-z\s,]+)`, 0.4),
	}},
	{nameHas("notice"), []pattern{
		pat(`(?:notice)s? shall be sent to[:\s]+([A-Za-z0-9\s,\-$().%@]+?)(?:[.;]|\n)`, 0.3),
		pat(`Address for notices:?\s*([A-Za-z0-9\s,\-$().%@\n]+)`, 0.3),
	}},
	{nameHas("assignment"), []pattern{
		pat(`(?:assignment|assign)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
		pat(`may not assign.*without.*consent`, 0.3),
	}},
	{nameHas("force majeure"), []pattern{
		pat(`(?:force majeure)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
		pat(`events beyond.*control.*including\s+([A-Za-z0-9\s,\-$().%]+)`, 0.3),
	}},
	{nameHas("dispute", "arbitration"), []pattern{
		pat(`(?:dispute resolution|arbitration|mediation)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
		pat(`disputes shall be resolved by\s+([A-Za-z\s]+)`, 0.4),
	}},
	{nameHas("warranty", "warranties"), []pattern{
		pat(`(?:warranties|warranty)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
		pat(`represents and warrants that\s+([A-Za-z0-9\s,\-$().%]+)`, 0.3),
	}},
	{nameHas("exclusivity", "exclusive"), []pattern{
		pat(`(?:exclusivity|exclusive)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
	}},
	{nameHas("change of control"), []pattern{
		pat(`(?:change of control)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
	}},
	{nameHas("amendment", "modification"), []pattern{
		pat(`(?:amendment|modification)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
	}},
	{nameHas("severability"), []pattern{
		pat(`(?:severability)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
	}},
	{nameHas("waiver"), []pattern{
		pat(`(?:waiver)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
	}},
	{nameHas("survival"), []pattern{
		pat(`(?:survival)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
	}},
	{nameHas("entire agreement"), []pattern{
		pat(`(?:entire agreement)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
	}},
	{nameHas("audit"), []pattern{
		pat(`(?:audit rights?|right to audit)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
		pat(`(?:Audit Policy)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.4),
		pat(`keep.*books and records.*for a period of\s+([A-Za-z0-9\s]+)`, 0.3),
	}},
	{nameHas("insurance"), []pattern{
		pat(`(?:insurance)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
		pat(`maintain.*insurance.*coverage.*of at least\s+([A-Za-z0-9\s,$]+)`, 0.3),
	}},
	{nameHas("data privacy", "privacy"), []pattern{
		pat(`(?:data privacy|data protection)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
	}},
	{nameHas("non-solicitation", "solicit"), []pattern{
		pat(`(?:non-solicitation|solicitation)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
		pat(`shall not.*solicit.*employees`, 0.3),
	}},
	{nameHas("non-compete", "compete"), []pattern{
		pat(`(?:non-compete|non-competition)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
	}},
	{nameHas("subcontract"), []pattern{
		pat(`(?:subcontracting|subcontract)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
	}},
	{nameHas("intellectual property", "ip rights"), []pattern{
		pat(`(?:intellectual property|ip rights)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
		pat(`owns all right, title and interest in.*intellectual property`, 0.3),
	}},
	{nameHas("publicity"), []pattern{
		pat(`(?:publicity)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
	}},
	{nameHas("counterparts"), []pattern{
		pat(`(?:counterparts)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n)`, 0.3),
	}},
}

// patternsFor returns the catalog patterns for a field (the first matching
// entry, evaluated in table order) plus a generic alias pattern per alias.
func patternsFor(fieldName string, fieldType model.FieldType, aliases []string) []pattern {
	var patterns []pattern
	nameLower := strings.ToLower(fieldName)
	for _, entry := range catalog {
		if entry.matches(nameLower, fieldType) {
			patterns = append(patterns, entry.patterns...)
			break
		}
	}
	for _, alias := range aliases {
		if alias == "" {
			continue
		}
		patterns = append(patterns, pat(`(?:`+regexp.QuoteMeta(alias)+`)[:\s]+([A-Za-z0-9\s,\-$().%]+?)(?:[.;]|\n|and)`, 0.2))
	}
	return patterns
}

// Match extracts the best candidate for a field from document text. Catalog
// and alias patterns are tried first; then an alias-anchored rest-of-line
// window; then the first sentence containing an alias. Returns false when
// nothing matches.
func Match(text string, field model.FieldDefinition) (model.Candidate, bool) {
	aliases := field.Aliases()

	for _, p := range patternsFor(field.Name, field.Type, aliases) {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			value := submatchOrWhole(text, loc)
			cleaned := textnorm.Clean(value, field.Type)
			if cleaned == "" {
				continue
			}
			if field.Type == model.FieldTypeText && len(cleaned) < minTextMatchLen {
				if sentence := sentenceAt(text, loc[0]); sentence != "" {
					cleaned = strings.TrimSpace(sentence)
				}
			}
			conf := baseConfidence + p.boost
			if conf > 1.0 {
				conf = 1.0
			}
			return model.Candidate{
				Value:      strings.TrimSpace(cleaned),
				RawText:    strings.TrimSpace(contextWindow(text, loc[0], loc[1])),
				Confidence: conf,
			}, true
		}
	}

	// Alias rest-of-line window.
	for _, alias := range aliases {
		if alias == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(alias) + `\s*(?:[:\-]|is|means)?\s*(.+)`)
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil || loc[2] < 0 {
			continue
		}
		value := text[loc[2]:loc[3]]
		if nl := strings.IndexByte(value, '\n'); nl >= 0 {
			value = value[:nl]
		}
		if len(value) > maxWindowLen {
			value = value[:maxWindowLen]
		}
		cleaned := textnorm.Clean(value, field.Type)
		if cleaned == "" {
			continue
		}
		return model.Candidate{
			Value:      strings.TrimSpace(cleaned),
			RawText:    strings.TrimSpace(contextWindow(text, loc[0], loc[1])),
			Confidence: windowConfidence,
		}, true
	}

	// First full sentence containing any alias.
	for _, alias := range aliases {
		if alias == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)([^.]*\b` + regexp.QuoteMeta(alias) + `\b[^.]*\.)`)
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		cleaned := textnorm.Clean(m[1], field.Type)
		if cleaned == "" {
			continue
		}
		return model.Candidate{
			Value:      strings.TrimSpace(cleaned),
			RawText:    strings.TrimSpace(m[1]),
			Confidence: sentenceConfidence,
		}, true
	}

	return model.Candidate{}, false
}

func submatchOrWhole(text string, loc []int) string {
	if len(loc) > 2 && loc[2] >= 0 {
		return text[loc[2]:loc[3]]
	}
	return text[loc[0]:loc[1]]
}

// sentenceAt returns the sentence containing the given position, capped at
// 400 characters.
func sentenceAt(text string, pos int) string {
	if pos < 0 || pos >= len(text) {
		return ""
	}
	start := strings.LastIndexByte(text[:pos], '.')
	end := strings.IndexByte(text[pos:], '.')
	if end == -1 {
		end = len(text)
		if pos+contextRadius < end {
			end = pos + contextRadius
		}
	} else {
		end += pos
	}
	start++
	sentence := strings.TrimSpace(text[start:end])
	if len(sentence) > 400 {
		sentence = sentence[:400]
	}
	return sentence
}

func contextWindow(text string, start, end int) string {
	lo := start - contextRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + contextRadius
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}
