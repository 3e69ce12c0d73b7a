package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/theimaginaryfoundation/interview-helper/analysis/provider"
)

// fakeModel answers by stage, identified through the request's token limit.
type fakeModel struct {
	mu    sync.Mutex
	calls []provider.Request
	reply func(n int, req provider.Request) (string, error)
}

func (f *fakeModel) Complete(ctx context.Context, req provider.Request) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	n := len(f.calls)
	f.mu.Unlock()
	return f.reply(n, req)
}

func (f *fakeModel) count(maxTokens int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if maxTokens == 0 || c.MaxOutputTokens == maxTokens {
			n++
		}
	}
	return n
}

func byStage(req provider.Request) (string, error) {
	switch req.MaxOutputTokens {
	case 200:
		return "Q", nil
	case 400:
		return "M", nil
	default:
		return "Dimension 1: Trust\n-> Theme 1: Reliability\n   --> \"It never went down.\"", nil
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxPartChars = 20
	cfg.Retry = provider.RetryPolicy{Attempts: 3, Backoff: time.Millisecond}
	cfg.Pacer = NoPacer{}
	cfg.Tokenizer = splitTokenizer{}
	return cfg
}

func newTestPipeline(t *testing.T, model *fakeModel, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(testConfig(), func(string) (provider.Completer, error) { return model, nil }, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

// Interview 1 chunks into two parts at 20 characters, interview 2 into one.
func twoInterviews() RunContext {
	return RunContext{
		APIKey:     "sk-test",
		FocusAreas: "remote onboarding",
		Interviews: []RawInterview{
			{Index: 1, Name: "a.docx", Text: "This sentence is long enough. Short."},
			{Index: 2, Name: "b.docx", Text: "Tiny."},
		},
	}
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	model := &fakeModel{reply: func(_ int, req provider.Request) (string, error) { return byStage(req) }}
	arts, err := newTestPipeline(t, model).Run(context.Background(), twoInterviews())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(arts.Records) != 3 || len(arts.Extracts) != 3 {
		t.Fatalf("records=%d extracts=%d, want 3/3", len(arts.Records), len(arts.Extracts))
	}
	if len(arts.Merged) != 2 {
		t.Fatalf("merged=%d, want 2", len(arts.Merged))
	}
	if arts.Structure == nil {
		t.Fatalf("structure missing")
	}
	if got := model.count(0); got != 6 {
		t.Fatalf("calls=%d, want 6", got)
	}
	if got := model.count(1000); got != 1 {
		t.Fatalf("structure calls=%d, want 1", got)
	}

	if a, b, c := len(arts.TableA().Rows), len(arts.TableB().Rows), len(arts.TableC().Rows); a != 3 || b != 2 || c != 1 {
		t.Fatalf("table rows=%d/%d/%d, want 3/2/1", a, b, c)
	}
	if len(arts.Tables()) != 3 {
		t.Fatalf("tables=%d, want 3", len(arts.Tables()))
	}
	if arts.Merged[0].Input != "Q Q" || arts.Merged[1].Input != "Q" {
		t.Fatalf("merge inputs=%q/%q", arts.Merged[0].Input, arts.Merged[1].Input)
	}
	if arts.Structure.Input != "MM" {
		t.Fatalf("corpus input=%q, want MM", arts.Structure.Input)
	}
	if len(arts.Structure.Dimensions) != 1 || arts.Structure.Dimensions[0].Name != "Trust" {
		t.Fatalf("dimensions=%#v", arts.Structure.Dimensions)
	}
	if arts.RunID == "" {
		t.Fatalf("RunID empty")
	}

	row := arts.TableA().Rows[1]
	if row[0] != 1 || row[1] != 2 || row[2] != "Interview 1 - Part 2: Short." || row[3] != "Q" {
		t.Fatalf("TableA row 1=%v", row)
	}
}

func TestRun_InvalidInputMakesNoCalls(t *testing.T) {
	t.Parallel()

	cases := map[string]func(rc *RunContext){
		"missing key":   func(rc *RunContext) { rc.APIKey = "" },
		"missing focus": func(rc *RunContext) { rc.FocusAreas = "  " },
		"no interviews": func(rc *RunContext) { rc.Interviews = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			connected := false
			model := &fakeModel{reply: func(_ int, req provider.Request) (string, error) { return byStage(req) }}
			p, err := New(testConfig(), func(string) (provider.Completer, error) {
				connected = true
				return model, nil
			})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			rc := twoInterviews()
			mutate(&rc)
			arts, err := p.Run(context.Background(), rc)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err=%v, want ErrInvalidInput", err)
			}
			if connected || model.count(0) != 0 {
				t.Fatalf("model contacted on invalid input")
			}
			if len(arts.Tables()) != 0 || arts.Records != nil {
				t.Fatalf("artifacts produced on invalid input: %+v", arts)
			}
		})
	}
}

func TestRun_TooManyInterviews(t *testing.T) {
	t.Parallel()

	model := &fakeModel{reply: func(_ int, req provider.Request) (string, error) { return byStage(req) }}
	rc := twoInterviews()
	for i := 3; i <= 6; i++ {
		rc.Interviews = append(rc.Interviews, RawInterview{Index: i, Text: "More."})
	}
	_, err := newTestPipeline(t, model).Run(context.Background(), rc)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err=%v, want ErrInvalidInput", err)
	}
	if model.count(0) != 0 {
		t.Fatalf("model contacted")
	}
}

func TestRun_StageFailureKeepsEarlierArtifacts(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	model := &fakeModel{reply: func(_ int, req provider.Request) (string, error) {
		if req.MaxOutputTokens == 400 {
			cancel()
			return "", errors.New("connection reset")
		}
		return byStage(req)
	}}

	sink := &recordingSink{}
	arts, err := newTestPipeline(t, model, WithSink(sink)).Run(ctx, twoInterviews())
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("err=%v, want *StageError", err)
	}
	if se.Stage != StageMerge {
		t.Fatalf("stage=%s, want merge", se.Stage)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
	if !arts.Done(StageExtract) || arts.Done(StageMerge) {
		t.Fatalf("completed=%v", arts.Completed)
	}
	if len(arts.TableA().Rows) != 3 || len(arts.Tables()) != 1 {
		t.Fatalf("earlier artifacts lost: tables=%d", len(arts.Tables()))
	}
	if model.count(400) != 1 {
		t.Fatalf("merge calls=%d, want 1 (cancellation is not retried)", model.count(400))
	}
	if len(sink.stages) != 1 || sink.stages[0] != StageExtract {
		t.Fatalf("sink stages=%v", sink.stages)
	}
}

func TestRun_ExhaustedUnitsDegradeAndRunContinues(t *testing.T) {
	t.Parallel()

	model := &fakeModel{reply: func(_ int, req provider.Request) (string, error) {
		if req.MaxOutputTokens == 200 && strings.Contains(req.User, "Interview 2") {
			return "", nil
		}
		return byStage(req)
	}}
	arts, err := newTestPipeline(t, model).Run(context.Background(), twoInterviews())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	last := arts.Extracts[2]
	if last.Text != SummaryNotAvailable || !last.Degraded || last.Attempts != 3 {
		t.Fatalf("extract=%+v, want degraded placeholder after 3 attempts", last)
	}
	if arts.Degraded(StageExtract) != 1 {
		t.Fatalf("Degraded(extract)=%d, want 1", arts.Degraded(StageExtract))
	}
	if arts.Merged[1].Input != SummaryNotAvailable {
		t.Fatalf("merge input=%q", arts.Merged[1].Input)
	}
	if !arts.Done(StageStructure) {
		t.Fatalf("run did not complete: %v", arts.Completed)
	}
}

type recordingSink struct {
	stages []Stage
	rows   []int
}

func (s *recordingSink) StageCompleted(_ context.Context, stage Stage, arts *Artifacts) error {
	s.stages = append(s.stages, stage)
	t, _ := arts.TableFor(stage)
	s.rows = append(s.rows, len(t.Rows))
	return nil
}

func TestRun_SinkCalledAfterEachStage(t *testing.T) {
	t.Parallel()

	model := &fakeModel{reply: func(_ int, req provider.Request) (string, error) { return byStage(req) }}
	sink := &recordingSink{}
	if _, err := newTestPipeline(t, model, WithSink(sink)).Run(context.Background(), twoInterviews()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []Stage{StageExtract, StageMerge, StageStructure}
	if len(sink.stages) != 3 {
		t.Fatalf("sink stages=%v", sink.stages)
	}
	for i := range want {
		if sink.stages[i] != want[i] {
			t.Fatalf("sink stages=%v, want %v", sink.stages, want)
		}
	}
	if sink.rows[0] != 3 || sink.rows[1] != 2 || sink.rows[2] != 1 {
		t.Fatalf("rows at sink=%v, want [3 2 1]", sink.rows)
	}
}

type failingSink struct{}

func (failingSink) StageCompleted(context.Context, Stage, *Artifacts) error {
	return errors.New("disk full")
}

func TestRun_SinkErrorStopsRun(t *testing.T) {
	t.Parallel()

	model := &fakeModel{reply: func(_ int, req provider.Request) (string, error) { return byStage(req) }}
	arts, err := newTestPipeline(t, model, WithSink(failingSink{})).Run(context.Background(), twoInterviews())
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("err=%v", err)
	}
	if model.count(400) != 0 {
		t.Fatalf("merge ran after sink failure")
	}
	if !arts.Done(StageExtract) {
		t.Fatalf("completed=%v", arts.Completed)
	}
}

func TestNew_RequiresFactory(t *testing.T) {
	t.Parallel()

	if _, err := New(testConfig(), nil); err == nil {
		t.Fatalf("expected error")
	}
}
