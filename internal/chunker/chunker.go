// Package chunker splits document text into overlapping, sentence-aligned
// segments for indexing and citation search.
package chunker

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/sells-group/contract-review/internal/model"
)

const (
	// DefaultMaxWords is the word budget per chunk.
	DefaultMaxWords = 1000
	// DefaultOverlapWords is the number of words re-included from the end of
	// the previous chunk to preserve context across boundaries.
	DefaultOverlapWords = 100

	maxSectionTitleLen = 50
)

// sentenceEndRe marks a sentence boundary: a run of terminators followed by
// whitespace. The terminator run stays with the sentence it closes.
var sentenceEndRe = regexp.MustCompile(`[.!?]+\s+`)

// Chunker splits text into chunks of at most MaxWords words (except for a
// single oversized sentence, which is never split mid-sentence).
type Chunker struct {
	MaxWords     int
	OverlapWords int
}

// New creates a chunker. Non-positive arguments fall back to the defaults.
func New(maxWords, overlapWords int) *Chunker {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	if overlapWords <= 0 {
		overlapWords = DefaultOverlapWords
	}
	return &Chunker{MaxWords: maxWords, OverlapWords: overlapWords}
}

// Chunk splits text into overlapping sentence-aligned chunks. Chunking is
// deterministic: the same text and parameters always produce the same
// boundaries. Empty text yields no chunks.
func (c *Chunker) Chunk(text string) []model.TextChunk {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	wordCounts := make([]int, len(sentences))
	for i, s := range sentences {
		wordCounts[i] = len(strings.Fields(s))
	}

	// Explicit sliding window over the immutable sentence slice: start is
	// the first sentence of the current chunk, words its running count.
	var chunks []model.TextChunk
	start := 0
	words := 0
	for i := range sentences {
		if words > 0 && words+wordCounts[i] > c.MaxWords {
			chunks = append(chunks, c.buildChunk(sentences[start:i], len(chunks), i, len(sentences)))

			// Seed the next chunk by walking backward through the closed
			// chunk until at least OverlapWords words are re-included.
			overlapStart := i
			overlapWords := 0
			for j := i - 1; j >= start; j-- {
				overlapStart = j
				overlapWords += wordCounts[j]
				if overlapWords > c.OverlapWords {
					break
				}
			}
			start = overlapStart
			words = overlapWords
		}
		words += wordCounts[i]
	}
	chunks = append(chunks, c.buildChunk(sentences[start:], len(chunks), len(sentences), len(sentences)))

	return chunks
}

func (c *Chunker) buildChunk(sentences []string, index, sentencePos, totalSentences int) model.TextChunk {
	text := strings.Join(sentences, " ")
	return model.TextChunk{
		Index:        index,
		Text:         text,
		PageNumber:   estimatePage(sentencePos, totalSentences),
		SectionTitle: detectSection(text),
		WordCount:    len(strings.Fields(text)),
	}
}

// SplitSentences splits text on sentence terminators followed by whitespace.
// Terminators stay attached to their sentence; blank fragments are dropped.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start:loc[1]]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// estimatePage interpolates a coarse page number from sentence position.
func estimatePage(sentencePos, totalSentences int) int {
	if totalSentences < 1 {
		totalSentences = 1
	}
	page := sentencePos * 100 / totalSentences
	if page < 1 {
		page = 1
	}
	return page
}

// detectSection scans the first three lines of a chunk for a heading: a
// short all-uppercase line, or a "key: value"-shaped line. Defaults to
// "Main".
func detectSection(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 3 {
		lines = lines[:3]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) < maxSectionTitleLen && isUpperLine(line) {
			return line
		}
		if strings.Contains(line, ":") {
			if len(line) > maxSectionTitleLen {
				line = line[:maxSectionTitleLen]
			}
			return line
		}
	}
	return "Main"
}

func isUpperLine(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}
