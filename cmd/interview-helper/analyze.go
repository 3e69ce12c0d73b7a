package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theimaginaryfoundation/interview-helper/analysis"
	"github.com/theimaginaryfoundation/interview-helper/analysis/document"
	"github.com/theimaginaryfoundation/interview-helper/analysis/export"
)

func newAnalyzeCommand(a *app) *cobra.Command {
	cfg := defaultConfig()
	cmd := &cobra.Command{
		Use:   "analyze [flags] TRANSCRIPT...",
		Short: "Extract quotes, merge them per interview and build a data structure",
		Long: `Runs the three analysis stages over the given transcripts (.docx, .pdf, .txt, .md).
Directories are expanded to the supported files they contain, in name order.
Each stage's spreadsheet is written as soon as the stage finishes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			run := cfg
			run.modelFlagSet = cmd.Flags().Changed("model")
			return runAnalyze(cmd.Context(), a, run, args)
		},
	}
	bindAnalyzeFlags(cmd.Flags(), &cfg)
	return cmd
}

func runAnalyze(ctx context.Context, a *app, cfg Config, args []string) error {
	if err := cfg.Validate(); err != nil {
		return usageError(err)
	}
	cfg, err := cfg.resolve()
	if err != nil {
		return usageError(err)
	}
	logger := a.logger

	paths, err := collectInputs(args)
	if err != nil {
		return invalidInput(err)
	}
	interviews, err := document.Load(paths, nil, cfg.MaxUploadBytes)
	if err != nil {
		return invalidInput(err)
	}
	rc := analysis.RunContext{APIKey: cfg.APIKey, FocusAreas: cfg.Focus, Interviews: interviews}
	if err := rc.Validate(cfg.MaxInterviews); err != nil {
		return invalidInput(err)
	}

	writer := &export.Writer{
		OutDir:    cfg.OutDir,
		Overwrite: cfg.Overwrite,
		Pretty:    cfg.Pretty,
		Model:     cfg.Model,
		Logger:    logger,
	}
	if err := writer.Prepare(); err != nil {
		return usageError(fmt.Errorf("%w (pass --overwrite to replace)", err))
	}

	p, err := analysis.New(cfg.pipelineConfig(), a.connect(cfg),
		analysis.WithSink(writer),
		analysis.WithLogger(logger),
	)
	if err != nil {
		return runFailed(err)
	}

	logger.Info("starting analysis", "interviews", len(interviews), "model", cfg.Model, "out", cfg.OutDir)
	arts, runErr := p.Run(ctx, rc)
	if runErr != nil {
		if errors.Is(runErr, analysis.ErrInvalidInput) {
			return invalidInput(runErr)
		}
		if arts.RunID != "" {
			if err := writer.WriteManifest(&arts, runErr); err != nil {
				logger.Error("write manifest", "err", err)
			}
		}
		var se *analysis.StageError
		if errors.As(runErr, &se) {
			logger.Error("analysis stopped", "stage", string(se.Stage), "completed", len(arts.Completed))
		}
		return runFailed(runErr)
	}

	fmt.Fprintln(a.stdout, export.RenderTable(export.StageSummary(&arts), 0))
	if cfg.ShowParts {
		fmt.Fprintln(a.stdout, export.RenderTable(arts.TableA(), 60))
	}
	if arts.Structure != nil {
		fmt.Fprintln(a.stdout, arts.Structure.Text)
	}
	return nil
}

var transcriptExts = map[string]bool{".docx": true, ".pdf": true, ".txt": true, ".md": true}

// collectInputs keeps file arguments in the order given and expands directories to their
// supported files, sorted.
func collectInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		fi, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !fi.IsDir() {
			files = append(files, filepath.Clean(arg))
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && strings.HasPrefix(d.Name(), ".") {
					return fs.SkipDir
				}
				return nil
			}
			// Word lock files
			if strings.HasPrefix(d.Name(), "~$") {
				return nil
			}
			if transcriptExts[strings.ToLower(filepath.Ext(path))] {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}
