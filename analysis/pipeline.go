package analysis

import (
	"context"
	"errors"
	"fmt"
	"slices"

	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/theimaginaryfoundation/interview-helper/analysis/logging"
	"github.com/theimaginaryfoundation/interview-helper/analysis/provider"
)

// Config holds the tunables of a Pipeline.
type Config struct {
	MaxPartChars  int
	MaxInterviews int
	Retry         provider.RetryPolicy
	Pacer         Pacer

	Extract   StageOptions
	Merge     StageOptions
	Structure StageOptions
	// Structured asks the structuring stage for schema-constrained JSON.
	Structured bool

	// Tokenizer defaults to an English Punkt tokenizer.
	Tokenizer SentenceTokenizer
}

func DefaultConfig() Config {
	return Config{
		MaxPartChars:  DefaultMaxPartChars,
		MaxInterviews: 5,
		Retry:         provider.DefaultRetryPolicy(),
		Pacer:         DefaultPacing(),
		Extract:       DefaultExtractOptions(),
		Merge:         DefaultMergeOptions(),
		Structure:     DefaultStructureOptions(),
	}
}

// ClientFactory builds the model client for one run from its API key.
type ClientFactory func(apiKey string) (provider.Completer, error)

// StageSink is notified after each stage finishes, with everything produced so far.
type StageSink interface {
	StageCompleted(ctx context.Context, stage Stage, arts *Artifacts) error
}

// Artifacts are the outputs of a run. After a stage failure they hold everything produced by
// the stages listed in Completed.
type Artifacts struct {
	RunID      string           `json:"run_id"`
	FocusAreas string           `json:"focus_areas"`
	Interviews []RawInterview   `json:"interviews"`
	Records    []TaggedRecord   `json:"records,omitempty"`
	Extracts   []QuoteExtract   `json:"extracts,omitempty"`
	Merged     []MergedSummary  `json:"merged,omitempty"`
	Structure  *CorpusStructure `json:"structure,omitempty"`
	Completed  []Stage          `json:"completed"`
}

// Done reports whether stage finished.
func (a *Artifacts) Done(stage Stage) bool {
	return slices.Contains(a.Completed, stage)
}

// Degraded counts units of stage that fell back to SummaryNotAvailable.
func (a *Artifacts) Degraded(stage Stage) int {
	n := 0
	switch stage {
	case StageExtract:
		for _, q := range a.Extracts {
			if q.Degraded {
				n++
			}
		}
	case StageMerge:
		for _, m := range a.Merged {
			if m.Degraded {
				n++
			}
		}
	case StageStructure:
		if a.Structure != nil && a.Structure.Degraded {
			n++
		}
	}
	return n
}

type Option func(*Pipeline)

func WithSink(s StageSink) Option { return func(p *Pipeline) { p.sink = s } }

func WithLogger(l *charmlog.Logger) Option { return func(p *Pipeline) { p.logger = l } }

// Pipeline runs chunking, tagging and the three model stages strictly in sequence.
type Pipeline struct {
	cfg     Config
	connect ClientFactory
	chunker *Chunker
	sink    StageSink
	logger  *charmlog.Logger
}

func New(cfg Config, connect ClientFactory, opts ...Option) (*Pipeline, error) {
	if connect == nil {
		return nil, errors.New("New: client factory is required")
	}
	if cfg.Tokenizer == nil {
		tok, err := NewPunktTokenizer()
		if err != nil {
			return nil, fmt.Errorf("New: %w", err)
		}
		cfg.Tokenizer = tok
	}
	if cfg.Pacer == nil {
		cfg.Pacer = NoPacer{}
	}
	p := &Pipeline{cfg: cfg, connect: connect}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.OrDiscard(p.logger)
	p.chunker = NewChunker(cfg.Tokenizer, cfg.MaxPartChars)
	return p, nil
}

// Chunker exposes the pipeline's chunker for previews that must not call the model.
func (p *Pipeline) Chunker() *Chunker { return p.chunker }

// Run validates rc and then executes every stage. Invalid input returns an ErrInvalidInput
// error and empty Artifacts without contacting the model. A stage that cannot complete
// returns a *StageError together with the artifacts of the stages before it.
func (p *Pipeline) Run(ctx context.Context, rc RunContext) (Artifacts, error) {
	if err := rc.Validate(p.cfg.MaxInterviews); err != nil {
		return Artifacts{}, err
	}
	client, err := p.connect(rc.APIKey)
	if err != nil {
		return Artifacts{}, fmt.Errorf("Run: connect: %w", err)
	}

	interviews := slices.Clone(rc.Interviews)
	slices.SortStableFunc(interviews, func(a, b RawInterview) int { return a.Index - b.Index })
	arts := Artifacts{
		RunID:      uuid.NewString(),
		FocusAreas: rc.FocusAreas,
		Interviews: interviews,
	}
	logger := p.logger.With("run_id", arts.RunID)
	caller := &Caller{Client: client, Policy: p.cfg.Retry, Pacer: p.cfg.Pacer, Logger: logger}

	arts.Records = Tag(p.chunker.ChunkAll(interviews))
	logger.Info("transcripts chunked", "interviews", len(interviews), "parts", len(arts.Records))

	extractor := &Extractor{Caller: caller, Options: p.cfg.Extract}
	extracts := make([]QuoteExtract, 0, len(arts.Records))
	for i, rec := range arts.Records {
		q, err := extractor.Extract(ctx, rc.FocusAreas, rec)
		if err != nil {
			return arts, &StageError{Stage: StageExtract, Err: err}
		}
		extracts = append(extracts, q)
		logger.Info(fmt.Sprintf("progress extract: %d/%d parts", i+1, len(arts.Records)))
	}
	arts.Extracts = extracts
	if err := p.complete(ctx, StageExtract, &arts); err != nil {
		return arts, err
	}

	indexes := make([]int, 0, len(interviews))
	for _, iv := range interviews {
		indexes = append(indexes, iv.Index)
	}
	inputs := BuildMergeInputs(indexes, arts.Extracts)
	merger := &Merger{Caller: caller, Options: p.cfg.Merge}
	merged := make([]MergedSummary, 0, len(inputs))
	for i, in := range inputs {
		m, err := merger.Merge(ctx, rc.FocusAreas, in)
		if err != nil {
			return arts, &StageError{Stage: StageMerge, Err: err}
		}
		merged = append(merged, m)
		logger.Info(fmt.Sprintf("progress merge: %d/%d interviews", i+1, len(inputs)))
	}
	arts.Merged = merged
	if err := p.complete(ctx, StageMerge, &arts); err != nil {
		return arts, err
	}

	structurer := &Structurer{Caller: caller, Options: p.cfg.Structure, Structured: p.cfg.Structured}
	cs, err := structurer.Structure(ctx, BuildCorpusInput(arts.Merged))
	if err != nil {
		return arts, &StageError{Stage: StageStructure, Err: err}
	}
	arts.Structure = &cs
	if err := p.complete(ctx, StageStructure, &arts); err != nil {
		return arts, err
	}

	logger.Info("analysis complete",
		"degraded_extracts", arts.Degraded(StageExtract),
		"degraded_merges", arts.Degraded(StageMerge),
		"degraded_structure", arts.Degraded(StageStructure),
	)
	return arts, nil
}

func (p *Pipeline) complete(ctx context.Context, stage Stage, arts *Artifacts) error {
	arts.Completed = append(arts.Completed, stage)
	p.logger.Debug("stage completed", "stage", string(stage), "run_id", arts.RunID)
	if p.sink == nil {
		return nil
	}
	if err := p.sink.StageCompleted(ctx, stage, arts); err != nil {
		return fmt.Errorf("Run: write %s output: %w", stage, err)
	}
	return nil
}
