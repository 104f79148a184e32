package planner

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/fsmiamoto/tasker/internal/completion"
	"github.com/fsmiamoto/tasker/internal/prompt"
)

const key = completion.Credential("sk-test")

// fakeCompleter replays canned responses keyed by prompt kind.
type fakeCompleter struct {
	decompose string
	expand    map[string]string
	err       error
	prompts   []string
}

func (f *fakeCompleter) Complete(ctx context.Context, p string, cred completion.Credential) (string, error) {
	f.prompts = append(f.prompts, p)
	if f.err != nil {
		return "", f.err
	}
	for subtask, steps := range f.expand {
		if strings.Contains(p, "Subtask: "+subtask) {
			return steps, nil
		}
	}
	return f.decompose, nil
}

func newReadySession(f *fakeCompleter) *Session {
	s := NewSession(f, nil)
	s.SetCredential(key)
	return s
}

func TestSplitLines(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{raw: "", want: []string{""}},
		{raw: "a", want: []string{"a"}},
		{raw: "a\nb\n\n", want: []string{"a", "b", "", ""}},
		{raw: "a\r\nb\r\n", want: []string{"a", "b", ""}},
		{raw: "\n  \nx", want: []string{"", "  ", "x"}},
	}
	for _, tc := range cases {
		if got := SplitLines(tc.raw); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("SplitLines(%q)=%q want %q", tc.raw, got, tc.want)
		}
	}
}

func TestVisibleFiltersBlankLinesInOrder(t *testing.T) {
	s := State{}.WithSubtasks("1. First\n\n   \n2. Second\n\t\n3. Third - 5 days\n")
	want := []string{"1. First", "2. Second", "3. Third - 5 days"}
	if got := s.Visible(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Visible()=%q want %q", got, want)
	}
	if len(s.Subtasks) != 7 {
		t.Fatalf("stored list should keep blank lines, got %d entries", len(s.Subtasks))
	}
}

func TestWithStepsDoesNotMutateReceiver(t *testing.T) {
	before := State{}.WithSubtasks("a\nb")
	after := before.WithSteps("a", "steps for a")

	if before.HasSelected || before.Steps != "" {
		t.Fatalf("receiver mutated: %+v", before)
	}
	if !after.HasSelected || after.Selected != "a" || after.Steps != "steps for a" {
		t.Fatalf("unexpected state: %+v", after)
	}
	if !reflect.DeepEqual(after.Subtasks, before.Subtasks) {
		t.Fatal("WithSteps must keep the subtask list")
	}
}

func TestGenerateYieldsNonBlankLines(t *testing.T) {
	goals := []string{"Learn guitar", "Run a marathon\nin spring", "  x  "}
	responses := []string{
		"one",
		"one\ntwo\n",
		"\n\none\n  \ntwo\r\nthree",
		"only blanks\n\n\n",
	}
	for _, goal := range goals {
		for _, resp := range responses {
			f := &fakeCompleter{decompose: resp}
			s := newReadySession(f)

			n := s.Generate(context.Background(), goal)
			if n.Level != LevelSuccess {
				t.Fatalf("goal %q: expected success, got %+v", goal, n)
			}

			var want []string
			for _, l := range strings.Split(resp, "\n") {
				l = strings.TrimSuffix(l, "\r")
				if strings.TrimSpace(l) != "" {
					want = append(want, l)
				}
			}
			got := s.State().Visible()
			if len(got) != len(want) || (len(want) > 0 && !reflect.DeepEqual(got, want)) {
				t.Fatalf("goal %q resp %q: visible=%q want %q", goal, resp, got, want)
			}
			if !strings.Contains(f.prompts[0], "Goal: "+goal) {
				t.Fatalf("decompose prompt missing goal: %q", f.prompts[0])
			}
		}
	}
}

func TestRegenerateResetsSelection(t *testing.T) {
	f := &fakeCompleter{
		decompose: "a\nb",
		expand:    map[string]string{"a": "steps a"},
	}
	s := newReadySession(f)
	ctx := context.Background()

	s.Generate(ctx, "goal")
	s.Explore(ctx, "a")
	if s.Phase() != PhaseSteps {
		t.Fatalf("expected steps phase, got %s", s.Phase())
	}

	f.decompose = "c\nd"
	s.Generate(ctx, "another goal")

	st := s.State()
	if st.HasSelected || st.Selected != "" || st.Steps != "" {
		t.Fatalf("selection not cleared: %+v", st)
	}
	if !reflect.DeepEqual(st.Visible(), []string{"c", "d"}) {
		t.Fatalf("list not replaced: %q", st.Visible())
	}
	if s.Phase() != PhaseSubtasks {
		t.Fatalf("expected subtasks phase, got %s", s.Phase())
	}
}

func TestExploreOverwritesBothFields(t *testing.T) {
	f := &fakeCompleter{
		decompose: "a\nb",
		expand:    map[string]string{"a": "steps a", "b": "steps b"},
	}
	s := newReadySession(f)
	ctx := context.Background()
	s.Generate(ctx, "goal")

	s.Explore(ctx, "a")
	if st := s.State(); st.Selected != "a" || st.Steps != "steps a" {
		t.Fatalf("unexpected state after first explore: %+v", st)
	}

	call, n := s.BeginExplore("b")
	if call == nil || n.Level != LevelProgress {
		t.Fatalf("expected call and progress notice, got %v %+v", call, n)
	}
	// Between dispatch and completion the old pair is still intact.
	if st := s.State(); st.Selected != "a" || st.Steps != "steps a" {
		t.Fatalf("state changed before result: %+v", st)
	}
	s.Finish(call.Run(ctx))
	if st := s.State(); st.Selected != "b" || st.Steps != "steps b" {
		t.Fatalf("unexpected state after second explore: %+v", st)
	}

	// Re-exploring the same subtask re-runs the call.
	before := len(f.prompts)
	s.Explore(ctx, "b")
	if len(f.prompts) != before+1 {
		t.Fatal("expected a new call for the same subtask")
	}
}

func TestEmptyGoalNeverCalls(t *testing.T) {
	f := &fakeCompleter{decompose: "a\nb", expand: map[string]string{"a": "steps"}}
	s := newReadySession(f)
	ctx := context.Background()
	s.Generate(ctx, "goal")
	s.Explore(ctx, "a")
	before := s.State()
	calls := len(f.prompts)

	for _, goal := range []string{"", "   ", "\n\t"} {
		n := s.Generate(ctx, goal)
		if n.Level != LevelWarning || n.Text != msgNeedGoal {
			t.Fatalf("goal %q: unexpected notice %+v", goal, n)
		}
	}
	if len(f.prompts) != calls {
		t.Fatalf("completer called for empty goal")
	}
	if !reflect.DeepEqual(s.State(), before) {
		t.Fatalf("state changed: %+v vs %+v", s.State(), before)
	}
}

func TestNoCredentialNeverCalls(t *testing.T) {
	f := &fakeCompleter{decompose: "a"}
	s := NewSession(f, nil)

	if s.Phase() != PhaseIdle {
		t.Fatalf("expected idle, got %s", s.Phase())
	}
	if n := s.Generate(context.Background(), "goal"); n.Text != msgNeedCredential {
		t.Fatalf("unexpected notice: %+v", n)
	}
	if n := s.Explore(context.Background(), "a"); n.Text != msgNeedCredential {
		t.Fatalf("unexpected notice: %+v", n)
	}
	if len(f.prompts) != 0 {
		t.Fatal("completer called without credential")
	}

	s.SetCredential("  ")
	if s.Phase() != PhaseIdle {
		t.Fatal("whitespace key should not leave idle")
	}
	s.SetCredential(key)
	if s.Phase() != PhaseReady {
		t.Fatalf("expected ready, got %s", s.Phase())
	}
	s.SetCredential("")
	if s.Phase() != PhaseIdle {
		t.Fatal("clearing the key should return to idle")
	}
}

func TestHint(t *testing.T) {
	s := NewSession(&fakeCompleter{}, nil)
	if h := s.Hint(); h.Level != LevelWarning || h.Text != msgNeedCredential {
		t.Fatalf("unexpected idle hint: %+v", h)
	}
	s.SetCredential(key)
	if h := s.Hint(); h.Level != LevelInfo || h.Text != msgEnterGoal {
		t.Fatalf("unexpected ready hint: %+v", h)
	}
}

func TestExploreRejectsUnknownSubtask(t *testing.T) {
	f := &fakeCompleter{decompose: "a\n\nb"}
	s := newReadySession(f)
	s.Generate(context.Background(), "goal")
	calls := len(f.prompts)

	for _, sub := range []string{"c", "", "  "} {
		n := s.Explore(context.Background(), sub)
		if n.Text != msgStaleSubtask {
			t.Fatalf("explore %q: unexpected notice %+v", sub, n)
		}
	}
	if len(f.prompts) != calls {
		t.Fatal("completer called for an unknown subtask")
	}
}

func TestFailureLeavesStateUnchanged(t *testing.T) {
	classes := []struct {
		err  error
		want string
	}{
		{err: fmt.Errorf("%w: status 401", completion.ErrAuth), want: msgAuthFailed},
		{err: fmt.Errorf("%w: status 429", completion.ErrRateLimit), want: msgRateLimited},
		{err: fmt.Errorf("%w: dial tcp", completion.ErrTransport), want: msgTransportFailed},
		{err: errors.New("something odd"), want: msgTransportFailed},
	}
	for _, tc := range classes {
		t.Run(tc.want, func(t *testing.T) {
			f := &fakeCompleter{decompose: "a\nb", expand: map[string]string{"a": "steps a"}}
			s := newReadySession(f)
			ctx := context.Background()
			s.Generate(ctx, "goal")
			s.Explore(ctx, "a")
			before := s.State()

			f.err = tc.err
			for _, n := range []Notice{s.Generate(ctx, "new goal"), s.Explore(ctx, "b")} {
				if n.Level != LevelError || n.Text != tc.want {
					t.Fatalf("unexpected notice %+v", n)
				}
				if strings.Contains(n.Text, string(key)) {
					t.Fatal("notice leaks credential")
				}
			}
			if !reflect.DeepEqual(s.State(), before) {
				t.Fatalf("state changed on failure: %+v vs %+v", s.State(), before)
			}

			// The session stays usable.
			f.err = nil
			if n := s.Explore(ctx, "b"); n.Level != LevelSuccess {
				t.Fatalf("retry after failure: %+v", n)
			}
		})
	}
}

func TestProgressPrecedesCall(t *testing.T) {
	var order []string
	c := completion.Func(func(ctx context.Context, p string, cred completion.Credential) (string, error) {
		order = append(order, "call")
		return "a", nil
	})
	s := NewSession(c, nil)
	s.SetCredential(key)
	s.OnProgress = func(n Notice) {
		if n.Level != LevelProgress {
			t.Fatalf("expected progress level, got %+v", n)
		}
		order = append(order, n.Text)
	}

	final := s.Generate(context.Background(), "goal")
	s.Explore(context.Background(), "a")

	want := []string{msgGeneratingTasks, "call", msgGeneratingSteps, "call"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order=%q want %q", order, want)
	}
	if final.Level != LevelSuccess || final.Text != msgSubtasksReady {
		t.Fatalf("unexpected final notice: %+v", final)
	}
}

func TestCustomPromptBuilder(t *testing.T) {
	b, err := prompt.NewBuilder(prompt.Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	f := &fakeCompleter{decompose: "a"}
	s := NewSession(f, b)
	s.SetCredential(key)
	s.Generate(context.Background(), "goal")
	if len(f.prompts) != 1 || f.prompts[0] != prompt.Build(prompt.Decompose, "goal") {
		t.Fatalf("unexpected prompt: %q", f.prompts)
	}
}

func TestLearnGuitarScenario(t *testing.T) {
	f := &fakeCompleter{
		decompose: "Buy a guitar - 1 week\nPractice chords - 2 weeks\n\n",
		expand: map[string]string{
			"Practice chords - 2 weeks": "Day 1: tune guitar\nDay 2: learn C chord",
		},
	}
	s := newReadySession(f)
	ctx := context.Background()

	if n := s.Generate(ctx, "Learn guitar"); n.Text != msgSubtasksReady {
		t.Fatalf("unexpected notice: %+v", n)
	}
	want := []string{"Buy a guitar - 1 week", "Practice chords - 2 weeks"}
	if got := s.State().Visible(); !reflect.DeepEqual(got, want) {
		t.Fatalf("visible=%q want %q", got, want)
	}

	s.Explore(ctx, "Practice chords - 2 weeks")
	st := s.State()
	if s.Phase() != PhaseSteps {
		t.Fatalf("expected steps phase, got %s", s.Phase())
	}
	if st.Selected != "Practice chords - 2 weeks" {
		t.Fatalf("selected=%q", st.Selected)
	}
	if st.Steps != "Day 1: tune guitar\nDay 2: learn C chord" {
		t.Fatalf("steps=%q", st.Steps)
	}
}
