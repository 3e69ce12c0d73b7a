package analysis

import (
	"iter"
	"strings"
	"unicode/utf8"
)

// DefaultMaxPartChars is the accumulated length past which a part is flushed.
const DefaultMaxPartChars = 9000

// SentenceTokenizer splits text into sentences. The returned sequence is single-use;
// call Sentences again on the raw text to re-tokenize.
type SentenceTokenizer interface {
	Sentences(text string) iter.Seq[string]
}

// Chunker splits interview text into parts without breaking sentences.
type Chunker struct {
	tokenizer SentenceTokenizer
	maxChars  int
}

// NewChunker returns a Chunker flushing once a part exceeds maxChars characters.
// maxChars <= 0 selects DefaultMaxPartChars.
func NewChunker(tokenizer SentenceTokenizer, maxChars int) *Chunker {
	if maxChars <= 0 {
		maxChars = DefaultMaxPartChars
	}
	return &Chunker{tokenizer: tokenizer, maxChars: maxChars}
}

func (c *Chunker) MaxChars() int { return c.maxChars }

// Chunk appends sentences verbatim to an accumulator and emits it as a part as soon as its
// length exceeds the limit. Whatever remains after the last sentence is always emitted, so
// every interview yields at least one part, possibly empty.
func (c *Chunker) Chunk(interviewIndex int, raw string) []Segment {
	var (
		parts []Segment
		acc   strings.Builder
		n     int
	)
	emit := func() {
		parts = append(parts, Segment{
			InterviewIndex: interviewIndex,
			PartIndex:      len(parts) + 1,
			Text:           acc.String(),
		})
		acc.Reset()
		n = 0
	}

	for sentence := range c.tokenizer.Sentences(raw) {
		acc.WriteString(sentence)
		n += utf8.RuneCountInString(sentence)
		if n > c.maxChars {
			emit()
		}
	}
	emit()
	return parts
}

// ChunkAll chunks every interview, keeping upload order.
func (c *Chunker) ChunkAll(interviews []RawInterview) []InterviewSegments {
	out := make([]InterviewSegments, 0, len(interviews))
	for _, iv := range interviews {
		out = append(out, InterviewSegments{
			InterviewIndex: iv.Index,
			Segments:       c.Chunk(iv.Index, iv.Text),
		})
	}
	return out
}
