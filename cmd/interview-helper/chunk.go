package main

import (
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/theimaginaryfoundation/interview-helper/analysis"
	"github.com/theimaginaryfoundation/interview-helper/analysis/document"
	"github.com/theimaginaryfoundation/interview-helper/analysis/export"
	"github.com/theimaginaryfoundation/interview-helper/analysis/fileutils"
)

type chunkConfig struct {
	ChunkChars     int
	MaxUploadBytes int64
	OutDir         string
	Overwrite      bool
}

func newChunkCommand(a *app) *cobra.Command {
	defaults := defaultConfig()
	cfg := chunkConfig{ChunkChars: defaults.ChunkChars, MaxUploadBytes: defaults.MaxUploadBytes}
	cmd := &cobra.Command{
		Use:   "chunk [flags] TRANSCRIPT...",
		Short: "Preview how transcripts are split into parts, without calling the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChunk(a, cfg, args)
		},
	}
	fs := cmd.Flags()
	fs.IntVar(&cfg.ChunkChars, "chunk-chars", cfg.ChunkChars, "Flush a transcript part once it exceeds this many characters")
	fs.Int64Var(&cfg.MaxUploadBytes, "max-upload-bytes", cfg.MaxUploadBytes, "Refuse transcript files larger than this (0 = no limit)")
	fs.StringVar(&cfg.OutDir, "out", "", "Also write "+analysis.TranscriptTableName+".xlsx to this directory")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite an existing transcript spreadsheet")
	return cmd
}

func runChunk(a *app, cfg chunkConfig, args []string) error {
	if cfg.ChunkChars <= 0 {
		return usageError(fmt.Errorf("chunk-chars must be > 0"))
	}
	paths, err := collectInputs(args)
	if err != nil {
		return invalidInput(err)
	}
	if len(paths) == 0 {
		return invalidInput(fmt.Errorf("no transcripts given"))
	}
	interviews, err := document.Load(paths, nil, cfg.MaxUploadBytes)
	if err != nil {
		return invalidInput(err)
	}

	// Same chunker the analyze run uses; the client factory is never invoked here.
	pc := analysis.DefaultConfig()
	pc.MaxPartChars = cfg.ChunkChars
	p, err := analysis.New(pc, a.connect(defaultConfig()))
	if err != nil {
		return runFailed(err)
	}
	chunker := p.Chunker()
	records := analysis.Tag(chunker.ChunkAll(interviews))
	a.logger.Debug("chunked transcripts", "interviews", len(interviews), "parts", len(records), "max_chars", chunker.MaxChars())

	names := make(map[int]string, len(interviews))
	for _, iv := range interviews {
		names[iv.Index] = iv.Name
	}
	preview := analysis.Table{Columns: []string{"Interview", "File", "Part", "Characters", "Starts with"}}
	for _, rec := range records {
		preview.Rows = append(preview.Rows, []any{
			rec.InterviewIndex,
			names[rec.InterviewIndex],
			rec.PartIndex,
			utf8.RuneCountInString(rec.Segment.Text),
			rec.Segment.Text,
		})
	}
	fmt.Fprintln(a.stdout, export.RenderTable(preview, 48))

	if cfg.OutDir == "" {
		return nil
	}
	path := filepath.Join(filepath.Clean(cfg.OutDir), analysis.TranscriptTableName+".xlsx")
	if err := fileutils.EnsureWritable(path, cfg.Overwrite); err != nil {
		return usageError(err)
	}
	if err := export.WriteXLSX(path, analysis.TranscriptTable(records)); err != nil {
		return runFailed(err)
	}
	a.logger.Info("wrote transcript table", "file", path, "rows", len(records))
	return nil
}
