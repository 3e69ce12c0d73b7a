package export

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/theimaginaryfoundation/interview-helper/analysis"
	"github.com/theimaginaryfoundation/interview-helper/analysis/fileutils"
	"github.com/theimaginaryfoundation/interview-helper/analysis/logging"
)

const (
	ManifestFile      = "run.json"
	DataStructureFile = "data_structure.json"
)

// Writer stores each stage's table as soon as the stage completes, so a later failure leaves
// the earlier files in place.
type Writer struct {
	OutDir    string
	Overwrite bool
	Pretty    bool
	// Model is recorded in the manifest.
	Model  string
	Logger *charmlog.Logger

	mu       sync.Mutex
	prepared bool
	files    []string
}

// Manifest describes a run and what it left on disk.
type Manifest struct {
	RunID       string         `json:"run_id"`
	Model       string         `json:"model,omitempty"`
	FocusAreas  string         `json:"focus_areas"`
	Interviews  []interviewRef `json:"interviews"`
	Completed   []string       `json:"completed_stages"`
	Degraded    map[string]int `json:"placeholders"`
	Files       []string       `json:"files"`
	Error       string         `json:"error,omitempty"`
	WrittenAtMS int64          `json:"written_at_ms"`
}

type interviewRef struct {
	Index int    `json:"index"`
	Name  string `json:"name,omitempty"`
	Parts int    `json:"parts"`
}

// Outputs lists every path a full run writes.
func (w *Writer) Outputs() []string {
	var out []string
	for _, name := range []string{analysis.TablePartsName, analysis.TableMergedName, analysis.TableStructureName} {
		out = append(out, filepath.Join(w.OutDir, name+".xlsx"), filepath.Join(w.OutDir, name+".json"))
	}
	return append(out, filepath.Join(w.OutDir, DataStructureFile), filepath.Join(w.OutDir, ManifestFile))
}

// Prepare fails if any output already exists and Overwrite is off. Call it before the run
// starts so nothing is spent on the model when the results could not be saved.
func (w *Writer) Prepare() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.prepareLocked()
}

func (w *Writer) prepareLocked() error {
	if w.prepared {
		return nil
	}
	for _, p := range w.Outputs() {
		if err := fileutils.EnsureWritable(p, w.Overwrite); err != nil {
			return fmt.Errorf("Prepare: %w", err)
		}
	}
	w.prepared = true
	return nil
}

// StageCompleted writes the stage's spreadsheet, its JSON mirror and the updated manifest.
func (w *Writer) StageCompleted(_ context.Context, stage analysis.Stage, arts *analysis.Artifacts) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.prepareLocked(); err != nil {
		return err
	}
	logger := logging.OrDiscard(w.Logger)

	t, ok := arts.TableFor(stage)
	if !ok {
		return fmt.Errorf("StageCompleted: unknown stage %q", stage)
	}
	xlsxPath := filepath.Join(w.OutDir, t.Name+".xlsx")
	if err := WriteXLSX(xlsxPath, t); err != nil {
		return err
	}
	jsonPath := filepath.Join(w.OutDir, t.Name+".json")
	if err := fileutils.WriteJSONFileAtomic(jsonPath, TableRecords(t), w.Pretty); err != nil {
		return fmt.Errorf("StageCompleted: %s: %w", jsonPath, err)
	}
	w.files = append(w.files, xlsxPath, jsonPath)

	if stage == analysis.StageStructure && arts.Structure != nil {
		p := filepath.Join(w.OutDir, DataStructureFile)
		if err := fileutils.WriteJSONFileAtomic(p, arts.Structure, w.Pretty); err != nil {
			return fmt.Errorf("StageCompleted: %s: %w", p, err)
		}
		w.files = append(w.files, p)
	}

	logger.Info("wrote stage output", "stage", string(stage), "file", xlsxPath, "rows", len(t.Rows))
	return w.writeManifestLocked(arts, nil)
}

// WriteManifest records the final state of a run, including its error if it stopped early.
func (w *Writer) WriteManifest(arts *analysis.Artifacts, runErr error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.prepareLocked(); err != nil {
		return err
	}
	return w.writeManifestLocked(arts, runErr)
}

func (w *Writer) writeManifestLocked(arts *analysis.Artifacts, runErr error) error {
	parts := make(map[int]int)
	for _, rec := range arts.Records {
		parts[rec.InterviewIndex]++
	}
	m := Manifest{
		RunID:       arts.RunID,
		Model:       w.Model,
		FocusAreas:  arts.FocusAreas,
		Completed:   []string{},
		Degraded:    map[string]int{},
		Files:       append([]string{}, w.files...),
		WrittenAtMS: time.Now().UnixMilli(),
	}
	for _, iv := range arts.Interviews {
		m.Interviews = append(m.Interviews, interviewRef{Index: iv.Index, Name: iv.Name, Parts: parts[iv.Index]})
	}
	for _, s := range arts.Completed {
		m.Completed = append(m.Completed, string(s))
		m.Degraded[string(s)] = arts.Degraded(s)
	}
	if runErr != nil {
		m.Error = runErr.Error()
	}
	p := filepath.Join(w.OutDir, ManifestFile)
	if err := fileutils.WriteJSONFileAtomic(p, m, w.Pretty); err != nil {
		return fmt.Errorf("WriteManifest: %w", err)
	}
	return nil
}

// TableRecords converts t to one JSON object per row keyed by column name.
func TableRecords(t analysis.Table) []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]any, len(t.Columns))
		for i, c := range t.Columns {
			if i < len(row) {
				rec[c] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out
}
