package analysis

import (
	"fmt"
	"iter"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// PunktTokenizer is an English Punkt sentence tokenizer. Sentences are contiguous slices of
// the input including their trailing whitespace, so joining them reproduces the text.
type PunktTokenizer struct {
	tok *sentences.DefaultSentenceTokenizer
}

func NewPunktTokenizer() (*PunktTokenizer, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("NewPunktTokenizer: %w", err)
	}
	return &PunktTokenizer{tok: tok}, nil
}

func (p *PunktTokenizer) Sentences(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, s := range p.tok.Tokenize(text) {
			if !yield(s.Text) {
				return
			}
		}
	}
}
