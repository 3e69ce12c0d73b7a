package analysis

import (
	"fmt"
	"slices"
)

// InterviewSegments holds the parts of one interview.
type InterviewSegments struct {
	InterviewIndex int
	Segments       []Segment
}

// Label is the prefix the model uses to tell interviews and parts apart.
func Label(interviewIndex, partIndex int) string {
	return fmt.Sprintf("Interview %d - Part %d: ", interviewIndex, partIndex)
}

// Tag flattens interviews into labelled records ordered by interview, then part.
func Tag(interviews []InterviewSegments) []TaggedRecord {
	ordered := slices.Clone(interviews)
	slices.SortStableFunc(ordered, func(a, b InterviewSegments) int {
		return a.InterviewIndex - b.InterviewIndex
	})

	var out []TaggedRecord
	for _, iv := range ordered {
		segs := slices.Clone(iv.Segments)
		slices.SortStableFunc(segs, func(a, b Segment) int {
			return a.PartIndex - b.PartIndex
		})
		for _, seg := range segs {
			seg.InterviewIndex = iv.InterviewIndex
			label := Label(seg.InterviewIndex, seg.PartIndex)
			out = append(out, TaggedRecord{
				Segment: seg,
				Label:   label,
				Text:    label + seg.Text,
			})
		}
	}
	return out
}
