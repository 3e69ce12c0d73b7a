package export

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/theimaginaryfoundation/interview-helper/analysis"
	"github.com/theimaginaryfoundation/interview-helper/analysis/fileutils"
)

func sampleArtifacts() *analysis.Artifacts {
	recs := analysis.Tag([]analysis.InterviewSegments{
		{InterviewIndex: 1, Segments: []analysis.Segment{{PartIndex: 1, Text: "Hello."}, {PartIndex: 2, Text: "Bye."}}},
	})
	return &analysis.Artifacts{
		RunID:      "run-1",
		FocusAreas: "onboarding",
		Interviews: []analysis.RawInterview{{Index: 1, Name: "a.docx"}},
		Records:    recs,
		Extracts: []analysis.QuoteExtract{
			{InterviewIndex: 1, PartIndex: 1, Text: "\"Hello.\""},
			{InterviewIndex: 1, PartIndex: 2, Text: analysis.SummaryNotAvailable, Degraded: true},
		},
		Completed: []analysis.Stage{analysis.StageExtract},
	}
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	return rows
}

func TestWriteXLSX_HeaderAndRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.xlsx")
	if err := WriteXLSX(path, sampleArtifacts().TableA()); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	rows := readRows(t, path)
	if len(rows) != 3 {
		t.Fatalf("rows=%d, want 3", len(rows))
	}
	if strings.Join(rows[0], "|") != "Interview_Number|Part_Number|Transcript|Summary" {
		t.Fatalf("header=%v", rows[0])
	}
	if rows[2][0] != "1" || rows[2][1] != "2" || rows[2][2] != "Interview 1 - Part 2: Bye." || rows[2][3] != analysis.SummaryNotAvailable {
		t.Fatalf("row 2=%v", rows[2])
	}
}

func TestWriteXLSX_TruncatesOversizedCells(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", maxCellChars+10)
	tbl := analysis.Table{Name: "t", Columns: []string{"Data Structure"}, Rows: [][]any{{long}}}
	path := filepath.Join(t.TempDir(), "c.xlsx")
	if err := WriteXLSX(path, tbl); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	rows := readRows(t, path)
	if n := utf8.RuneCountInString(rows[1][0]); n != maxCellChars {
		t.Fatalf("cell len=%d, want %d", n, maxCellChars)
	}
}

func TestWriter_StageCompletedWritesFilesAndManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := &Writer{OutDir: dir, Model: "gpt-test"}
	arts := sampleArtifacts()
	if err := w.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := w.StageCompleted(context.Background(), analysis.StageExtract, arts); err != nil {
		t.Fatalf("StageCompleted: %v", err)
	}

	for _, name := range []string{"Interviews_analyzed.xlsx", "Interviews_analyzed.json", ManifestFile} {
		if !fileutils.FileExists(filepath.Join(dir, name)) {
			t.Fatalf("%s not written", name)
		}
	}
	if fileutils.FileExists(filepath.Join(dir, "Merged_Interview_Summaries.xlsx")) {
		t.Fatalf("merge output written before merge stage")
	}

	var records []map[string]any
	readJSON(t, filepath.Join(dir, "Interviews_analyzed.json"), &records)
	if len(records) != 2 || records[0]["Summary"] != "\"Hello.\"" {
		t.Fatalf("json mirror=%v", records)
	}

	var m Manifest
	readJSON(t, filepath.Join(dir, ManifestFile), &m)
	if m.RunID != "run-1" || m.Model != "gpt-test" || len(m.Completed) != 1 || m.Degraded["extract"] != 1 {
		t.Fatalf("manifest=%+v", m)
	}
	if len(m.Interviews) != 1 || m.Interviews[0].Parts != 2 {
		t.Fatalf("manifest interviews=%+v", m.Interviews)
	}

	if err := w.WriteManifest(arts, errors.New("stage merge: canceled")); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	readJSON(t, filepath.Join(dir, ManifestFile), &m)
	if m.Error != "stage merge: canceled" {
		t.Fatalf("manifest error=%q", m.Error)
	}
}

func TestWriter_StructureStageWritesHierarchy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	arts := sampleArtifacts()
	arts.Structure = &analysis.CorpusStructure{
		Text:       "Dimension 1: A\n-> Theme 1: B\n   --> c",
		Dimensions: analysis.ParseStructure("Dimension 1: A\n-> Theme 1: B\n   --> c"),
	}
	arts.Completed = append(arts.Completed, analysis.StageMerge, analysis.StageStructure)
	w := &Writer{OutDir: dir}
	if err := w.StageCompleted(context.Background(), analysis.StageStructure, arts); err != nil {
		t.Fatalf("StageCompleted: %v", err)
	}
	rows := readRows(t, filepath.Join(dir, "Initial_Data_Structure.xlsx"))
	if len(rows) != 2 || rows[1][0] != arts.Structure.Text {
		t.Fatalf("rows=%v", rows)
	}
	var cs analysis.CorpusStructure
	readJSON(t, filepath.Join(dir, DataStructureFile), &cs)
	if len(cs.Dimensions) != 1 || cs.Dimensions[0].Themes[0].Concepts[0] != "c" {
		t.Fatalf("data structure=%+v", cs)
	}
}

func TestWriter_PrepareRefusesExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := (&Writer{OutDir: dir}).Prepare(); !errors.Is(err, fileutils.ErrExists) {
		t.Fatalf("err=%v, want ErrExists", err)
	}
	if err := (&Writer{OutDir: dir, Overwrite: true}).Prepare(); err != nil {
		t.Fatalf("Prepare with overwrite: %v", err)
	}
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	out := RenderTable(sampleArtifacts().TableA(), 12)
	// headers are upper-cased by the table style
	for _, want := range []string{"TRANSCRIPT", "SUMMARY", "INTERVIEW 1"} {
		if !strings.Contains(strings.ToUpper(out), want) {
			t.Fatalf("render missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Part 2: Bye.") {
		t.Fatalf("cell not truncated:\n%s", out)
	}
	if RenderTable(analysis.Table{}, 0) != "" {
		t.Fatalf("empty table should render empty")
	}
}

func TestStageSummary(t *testing.T) {
	t.Parallel()

	s := StageSummary(sampleArtifacts())
	if len(s.Rows) != 3 {
		t.Fatalf("rows=%d", len(s.Rows))
	}
	if s.Rows[0][1] != 2 || s.Rows[0][2] != 1 || s.Rows[0][3] != "done" || s.Rows[1][3] != "not run" {
		t.Fatalf("rows=%v", s.Rows)
	}
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}
