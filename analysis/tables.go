package analysis

// Table is a named, column-ordered result table. Cells are string or int.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

const (
	TablePartsName     = "Interviews_analyzed"
	TableMergedName    = "Merged_Interview_Summaries"
	TableStructureName = "Initial_Data_Structure"
)

// TableA has one row per transcript part with its extracted quotes. The Transcript column
// holds the labelled text.
func (a *Artifacts) TableA() Table {
	t := Table{
		Name:    TablePartsName,
		Columns: []string{"Interview_Number", "Part_Number", "Transcript", "Summary"},
	}
	type key struct{ i, k int }
	summaries := make(map[key]string, len(a.Extracts))
	for _, q := range a.Extracts {
		summaries[key{q.InterviewIndex, q.PartIndex}] = q.Text
	}
	for _, rec := range a.Records {
		t.Rows = append(t.Rows, []any{
			rec.InterviewIndex,
			rec.PartIndex,
			rec.Text,
			summaries[key{rec.InterviewIndex, rec.PartIndex}],
		})
	}
	return t
}

// TableB has one row per interview.
func (a *Artifacts) TableB() Table {
	t := Table{
		Name:    TableMergedName,
		Columns: []string{"Interview", "Summary_Input", "Merged Summary"},
	}
	for _, m := range a.Merged {
		t.Rows = append(t.Rows, []any{m.InterviewIndex, m.Input, m.Text})
	}
	return t
}

// TableC has exactly one row once structuring has run.
func (a *Artifacts) TableC() Table {
	t := Table{
		Name:    TableStructureName,
		Columns: []string{"Data Structure"},
	}
	if a.Structure != nil {
		t.Rows = append(t.Rows, []any{a.Structure.Text})
	}
	return t
}

// TableFor returns the table a stage produces.
func (a *Artifacts) TableFor(stage Stage) (Table, bool) {
	switch stage {
	case StageExtract:
		return a.TableA(), true
	case StageMerge:
		return a.TableB(), true
	case StageStructure:
		return a.TableC(), true
	}
	return Table{}, false
}

// Tables returns the tables of every completed stage, in stage order.
func (a *Artifacts) Tables() []Table {
	var out []Table
	for _, s := range []Stage{StageExtract, StageMerge, StageStructure} {
		if !a.Done(s) {
			continue
		}
		t, _ := a.TableFor(s)
		out = append(out, t)
	}
	return out
}

// TranscriptTableName is the chunk preview table, written without calling the model.
const TranscriptTableName = "Interview_Transcripts"

// TranscriptTable lists the unlabelled parts of records.
func TranscriptTable(records []TaggedRecord) Table {
	t := Table{
		Name:    TranscriptTableName,
		Columns: []string{"Interview_Number", "Part_Number", "Transcript"},
	}
	for _, rec := range records {
		t.Rows = append(t.Rows, []any{rec.InterviewIndex, rec.PartIndex, rec.Segment.Text})
	}
	return t
}
