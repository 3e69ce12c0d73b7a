package analysis

// Stage names one of the three LLM-driven phases of a run.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageMerge     Stage = "merge"
	StageStructure Stage = "structure"
)

// SummaryNotAvailable replaces a unit of work whose retries were exhausted.
const SummaryNotAvailable = "Summary not available."

// RawInterview is the extracted plain text of one uploaded transcript.
type RawInterview struct {
	// Index is 1-based, in upload order.
	Index int    `json:"interview_index"`
	Name  string `json:"name,omitempty"`
	Text  string `json:"-"`
}

// Segment is a sentence-aligned slice of one interview.
type Segment struct {
	InterviewIndex int    `json:"interview_index"`
	PartIndex      int    `json:"part_index"`
	Text           string `json:"text"`
}

// TaggedRecord is a Segment with its "Interview n - Part k: " label prepended.
type TaggedRecord struct {
	Segment
	Label string `json:"label"`
	// Text is Label followed by the segment text; this is what the model sees.
	Text string `json:"labelled_text"`
}

// QuoteExtract is the Stage-1 output for one TaggedRecord.
type QuoteExtract struct {
	InterviewIndex int    `json:"interview_index"`
	PartIndex      int    `json:"part_index"`
	Text           string `json:"summary"`
	Attempts       int    `json:"attempts"`
	Degraded       bool   `json:"degraded,omitempty"`
}

// InterviewMergeInput is the space-joined Stage-1 output of one interview.
type InterviewMergeInput struct {
	InterviewIndex int    `json:"interview_index"`
	Text           string `json:"summary_input"`
}

// MergedSummary is the Stage-2 output for one interview.
type MergedSummary struct {
	InterviewIndex int    `json:"interview_index"`
	Input          string `json:"summary_input"`
	Text           string `json:"merged_summary"`
	Attempts       int    `json:"attempts"`
	Degraded       bool   `json:"degraded,omitempty"`
}

// CorpusStructure is the single Stage-3 output of a run.
type CorpusStructure struct {
	Input    string `json:"input"`
	Text     string `json:"data_structure"`
	Attempts int    `json:"attempts"`
	Degraded bool   `json:"degraded,omitempty"`

	// Dimensions is Text parsed into the Gioia hierarchy; empty when Text does not follow
	// the dimension/theme/concept layout.
	Dimensions []Dimension `json:"dimensions,omitempty"`
}

// Dimension is an aggregate dimension of a Gioia data structure.
type Dimension struct {
	Name   string  `json:"name" jsonschema:"description=Short label of the aggregate dimension"`
	Themes []Theme `json:"themes"`
}

// Theme is a 2nd-order theme grouping 1st-order concepts.
type Theme struct {
	Name     string   `json:"name" jsonschema:"description=Short label of the 2nd-order theme"`
	Concepts []string `json:"concepts" jsonschema:"description=Full quotes used as 1st-order concepts"`
}
