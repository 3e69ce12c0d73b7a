package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/theimaginaryfoundation/interview-helper/analysis"
	"github.com/theimaginaryfoundation/interview-helper/analysis/provider"
)

const (
	envAPIKey = "OPENAI_API_KEY"
	envModel  = "INTERVIEW_HELPER_MODEL"
)

type Config struct {
	Focus     string
	FocusFile string
	OutDir    string
	Model     string
	APIKey    string

	MaxInterviews  int
	MaxUploadBytes int64
	ChunkChars     int

	Attempts      int
	Backoff       time.Duration
	PaceExtract   time.Duration
	PaceMerge     time.Duration
	PaceStructure time.Duration

	Temperature    float64
	Structured     bool
	RequestTimeout time.Duration

	Pretty    bool
	Overwrite bool
	ShowParts bool

	// modelFlagSet records an explicit --model, which wins over the environment.
	modelFlagSet bool
}

func defaultConfig() Config {
	pacing := analysis.DefaultPacing()
	retry := provider.DefaultRetryPolicy()
	return Config{
		OutDir:         filepath.FromSlash("out"),
		Model:          provider.DefaultModel,
		MaxInterviews:  5,
		MaxUploadBytes: 200 << 20,
		ChunkChars:     analysis.DefaultMaxPartChars,
		Attempts:       retry.Attempts,
		Backoff:        retry.Backoff,
		PaceExtract:    pacing[analysis.StageExtract],
		PaceMerge:      pacing[analysis.StageMerge],
		PaceStructure:  pacing[analysis.StageStructure],
		Temperature:    0.8,
	}
}

// Validate checks flag ranges. Missing inputs (key, focus areas, transcripts) are reported by
// analysis.RunContext.Validate so they share the same notice.
func (c Config) Validate() error {
	if c.OutDir == "" {
		return errors.New("missing --out")
	}
	if c.MaxInterviews < 0 {
		return errors.New("max-interviews must be >= 0")
	}
	if c.MaxUploadBytes < 0 {
		return errors.New("max-upload-bytes must be >= 0")
	}
	if c.ChunkChars <= 0 {
		return errors.New("chunk-chars must be > 0")
	}
	if c.Attempts < 1 {
		return errors.New("attempts must be >= 1")
	}
	if c.Backoff < 0 || c.PaceExtract < 0 || c.PaceMerge < 0 || c.PaceStructure < 0 || c.RequestTimeout < 0 {
		return errors.New("durations must be >= 0")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("temperature must be in [0, 2]")
	}
	if c.Focus != "" && c.FocusFile != "" {
		return errors.New("use either --focus or --focus-file, not both")
	}
	return nil
}

func bindAnalyzeFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Focus, "focus", cfg.Focus, "Focus areas of the interviews, used to steer quote extraction")
	fs.StringVar(&cfg.FocusFile, "focus-file", cfg.FocusFile, "Read the focus areas from this file instead of --focus")
	fs.StringVar(&cfg.OutDir, "out", cfg.OutDir, "Output directory for spreadsheets, JSON mirrors and run.json")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "OpenAI model to use (env "+envModel+")")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (overrides "+envAPIKey+" env var)")
	fs.IntVar(&cfg.MaxInterviews, "max-interviews", cfg.MaxInterviews, "Refuse runs with more transcripts than this (0 = no limit)")
	fs.Int64Var(&cfg.MaxUploadBytes, "max-upload-bytes", cfg.MaxUploadBytes, "Refuse transcript files larger than this (0 = no limit)")
	fs.IntVar(&cfg.ChunkChars, "chunk-chars", cfg.ChunkChars, "Flush a transcript part once it exceeds this many characters")
	fs.IntVar(&cfg.Attempts, "attempts", cfg.Attempts, "Model calls per unit before using the placeholder summary")
	fs.DurationVar(&cfg.Backoff, "backoff", cfg.Backoff, "Wait between attempts")
	fs.DurationVar(&cfg.PaceExtract, "pace-extract", cfg.PaceExtract, "Wait after each quote extraction call")
	fs.DurationVar(&cfg.PaceMerge, "pace-merge", cfg.PaceMerge, "Wait after each interview merge call")
	fs.DurationVar(&cfg.PaceStructure, "pace-structure", cfg.PaceStructure, "Wait after the data structure call")
	fs.Float64Var(&cfg.Temperature, "temperature", cfg.Temperature, "Sampling temperature for every stage")
	fs.BoolVar(&cfg.Structured, "structured", false, "Request the data structure as schema-constrained JSON")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", 0, "Per-request HTTP timeout (0 = SDK default)")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "Pretty-print JSON outputs")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite existing output files")
	fs.BoolVar(&cfg.ShowParts, "show-parts", false, "Print the per-part table when the run finishes")
}

// resolve applies environment fallbacks, reads --focus-file and cleans paths.
func (c Config) resolve() (Config, error) {
	if c.APIKey == "" {
		c.APIKey = os.Getenv(envAPIKey)
	}
	if m := strings.TrimSpace(os.Getenv(envModel)); m != "" && !c.modelFlagSet {
		c.Model = m
	}
	if c.FocusFile != "" {
		b, err := os.ReadFile(filepath.Clean(c.FocusFile))
		if err != nil {
			return Config{}, fmt.Errorf("read --focus-file: %w", err)
		}
		c.Focus = string(b)
	}
	c.Focus = strings.TrimSpace(c.Focus)
	c.OutDir = filepath.Clean(c.OutDir)
	return c, nil
}

func (c Config) pipelineConfig() analysis.Config {
	pc := analysis.DefaultConfig()
	pc.MaxPartChars = c.ChunkChars
	pc.MaxInterviews = c.MaxInterviews
	pc.Retry = provider.RetryPolicy{Attempts: c.Attempts, Backoff: c.Backoff}
	pc.Pacer = analysis.FixedPacer{
		analysis.StageExtract:   c.PaceExtract,
		analysis.StageMerge:     c.PaceMerge,
		analysis.StageStructure: c.PaceStructure,
	}
	pc.Extract.Temperature = c.Temperature
	pc.Merge.Temperature = c.Temperature
	pc.Structure.Temperature = c.Temperature
	pc.Structured = c.Structured
	return pc
}
