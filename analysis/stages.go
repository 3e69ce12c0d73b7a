package analysis

import (
	"context"
	"slices"
	"strings"

	"github.com/theimaginaryfoundation/interview-helper/analysis/fileutils"
	"github.com/theimaginaryfoundation/interview-helper/analysis/provider"
)

// StageOptions are the generation limits of one stage.
type StageOptions struct {
	MaxOutputTokens int64
	Temperature     float64
}

func DefaultExtractOptions() StageOptions   { return StageOptions{MaxOutputTokens: 200, Temperature: 0.8} }
func DefaultMergeOptions() StageOptions     { return StageOptions{MaxOutputTokens: 400, Temperature: 0.8} }
func DefaultStructureOptions() StageOptions { return StageOptions{MaxOutputTokens: 1000, Temperature: 0.8} }

func (o StageOptions) request(system, user string) provider.Request {
	return provider.Request{
		System:          system,
		User:            user,
		MaxOutputTokens: o.MaxOutputTokens,
		Temperature:     o.Temperature,
		Samples:         1,
	}
}

// Extractor quotes key findings from one labelled transcript part.
type Extractor struct {
	Caller  *Caller
	Options StageOptions
}

func (e *Extractor) Extract(ctx context.Context, focusAreas string, rec TaggedRecord) (QuoteExtract, error) {
	req := e.Options.request(
		withFocus(extractSystemPrompt, focusAreas),
		userTurn(extractUserPrompt, rec.Text),
	)
	res, err := e.Caller.call(ctx, StageExtract, req, "interview", rec.InterviewIndex, "part", rec.PartIndex)
	if err != nil {
		return QuoteExtract{}, err
	}
	return QuoteExtract{
		InterviewIndex: rec.InterviewIndex,
		PartIndex:      rec.PartIndex,
		Text:           res.Text,
		Attempts:       res.Attempts,
		Degraded:       res.Degraded,
	}, nil
}

// BuildMergeInputs joins each interview's extracts with a single space in part order.
// interviews lists the indexes that must get an input even when they have no extracts.
func BuildMergeInputs(interviews []int, extracts []QuoteExtract) []InterviewMergeInput {
	byInterview := make(map[int][]QuoteExtract)
	for _, q := range extracts {
		byInterview[q.InterviewIndex] = append(byInterview[q.InterviewIndex], q)
	}
	indexes := slices.Clone(interviews)
	for idx := range byInterview {
		if !slices.Contains(indexes, idx) {
			indexes = append(indexes, idx)
		}
	}
	slices.Sort(indexes)
	indexes = slices.Compact(indexes)

	out := make([]InterviewMergeInput, 0, len(indexes))
	for _, idx := range indexes {
		qs := byInterview[idx]
		slices.SortStableFunc(qs, func(a, b QuoteExtract) int { return a.PartIndex - b.PartIndex })
		texts := make([]string, 0, len(qs))
		for _, q := range qs {
			texts = append(texts, q.Text)
		}
		out = append(out, InterviewMergeInput{InterviewIndex: idx, Text: strings.Join(texts, " ")})
	}
	return out
}

// Merger consolidates one interview's extracted quotes.
type Merger struct {
	Caller  *Caller
	Options StageOptions
}

func (m *Merger) Merge(ctx context.Context, focusAreas string, in InterviewMergeInput) (MergedSummary, error) {
	req := m.Options.request(
		withFocus(mergeSystemPrompt, focusAreas),
		userTurn(mergeUserPrompt, in.Text),
	)
	res, err := m.Caller.call(ctx, StageMerge, req, "interview", in.InterviewIndex)
	if err != nil {
		return MergedSummary{}, err
	}
	return MergedSummary{
		InterviewIndex: in.InterviewIndex,
		Input:          in.Text,
		Text:           res.Text,
		Attempts:       res.Attempts,
		Degraded:       res.Degraded,
	}, nil
}

// BuildCorpusInput concatenates merged summaries in interview order with no separator.
func BuildCorpusInput(merged []MergedSummary) string {
	ordered := slices.Clone(merged)
	slices.SortStableFunc(ordered, func(a, b MergedSummary) int { return a.InterviewIndex - b.InterviewIndex })
	var b strings.Builder
	for _, m := range ordered {
		b.WriteString(m.Text)
	}
	return b.String()
}

// Structurer builds the cross-interview data structure in a single call.
type Structurer struct {
	Caller  *Caller
	Options StageOptions
	// Structured requests a JSON-schema constrained response, rendered back into the
	// textual layout.
	Structured bool
}

type dataStructureResponse struct {
	Dimensions []Dimension `json:"dimensions" jsonschema:"description=Aggregate dimensions in order"`
}

var dataStructureSchema = provider.MustGenerateSchema[dataStructureResponse](
	"GioiaDataStructure",
	"Aggregate dimensions, 2nd-order themes and 1st-order concept quotes",
)

// Structure returns the data structure for the corpus. In structured mode a reply that does not
// decode is followed by one text-mode call, so Text is always the textual layout.
func (s *Structurer) Structure(ctx context.Context, corpusInput string) (CorpusStructure, error) {
	if !s.Structured {
		return s.structureText(ctx, corpusInput, 0)
	}

	req := s.Options.request(structureSystemPrompt, userTurn(structureJSONUserPrompt, corpusInput))
	req.Schema = dataStructureSchema
	res, err := s.Caller.call(ctx, StageStructure, req)
	if err != nil {
		return CorpusStructure{}, err
	}
	out := CorpusStructure{
		Input:    corpusInput,
		Text:     res.Text,
		Attempts: res.Attempts,
		Degraded: res.Degraded,
	}
	if res.Degraded {
		return out, nil
	}
	var decoded dataStructureResponse
	if err := fileutils.DecodeModelJSON(res.Text, &decoded); err == nil && len(decoded.Dimensions) > 0 {
		out.Dimensions = decoded.Dimensions
		out.Text = RenderStructure(decoded.Dimensions)
		return out, nil
	}
	logCaller(s.Caller).Warn("structured response did not decode, asking again in text mode",
		"stage", string(StageStructure), "reply", fileutils.Truncate(res.Text, 120))
	return s.structureText(ctx, corpusInput, res.Attempts)
}

func (s *Structurer) structureText(ctx context.Context, corpusInput string, priorAttempts int) (CorpusStructure, error) {
	req := s.Options.request(structureSystemPrompt, userTurn(structureUserPrompt, corpusInput))
	res, err := s.Caller.call(ctx, StageStructure, req)
	if err != nil {
		return CorpusStructure{}, err
	}
	out := CorpusStructure{
		Input:    corpusInput,
		Text:     res.Text,
		Attempts: priorAttempts + res.Attempts,
		Degraded: res.Degraded,
	}
	if !res.Degraded {
		out.Dimensions = ParseStructure(res.Text)
	}
	return out, nil
}
