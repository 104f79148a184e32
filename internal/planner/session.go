package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsmiamoto/tasker/internal/completion"
	"github.com/fsmiamoto/tasker/internal/logging"
	"github.com/fsmiamoto/tasker/internal/prompt"
)

// Level classifies a Notice for display.
type Level int

const (
	LevelInfo Level = iota
	LevelProgress
	LevelSuccess
	LevelWarning
	LevelError
)

// Notice is the one-line status shown to the user after an action.
type Notice struct {
	Level Level
	Text  string
}

// Notice texts.
const (
	msgNeedCredential  = "Please enter your API key."
	msgNeedGoal        = "Please enter a goal."
	msgEnterGoal       = "Enter your goal."
	msgStaleSubtask    = "Subtask is no longer in the list."
	msgGeneratingTasks = "Generating subtasks..."
	msgGeneratingSteps = "Generating specific steps..."
	msgSubtasksReady   = "Here are your subtasks:"
	msgAuthFailed      = "The API key was rejected."
	msgRateLimited     = "The completion service refused the request (rate limit or quota)."
	msgTransportFailed = "Could not reach the completion service."
)

// Call is a validated completion request. Run touches no session state, so
// it may execute off the UI goroutine; Session.Finish applies the result.
type Call struct {
	Kind    prompt.Kind
	Subtask string // set for Expand calls

	prompt    string
	cred      completion.Credential
	completer completion.Completer
}

// Result is the outcome of Call.Run.
type Result struct {
	Kind    prompt.Kind
	Subtask string
	Text    string
	Err     error
	Elapsed time.Duration
}

// Run performs the completion call.
func (c *Call) Run(ctx context.Context) Result {
	start := time.Now()
	text, err := c.completer.Complete(ctx, c.prompt, c.cred)
	return Result{
		Kind:    c.Kind,
		Subtask: c.Subtask,
		Text:    text,
		Err:     err,
		Elapsed: time.Since(start),
	}
}

// Session owns one user's state. It is not safe for concurrent use.
type Session struct {
	completer completion.Completer
	prompts   *prompt.Builder
	cred      completion.Credential
	state     State

	// OnProgress, if set, receives the "in progress" notice before each
	// call made through Generate or Explore.
	OnProgress func(Notice)
}

// NewSession returns a session in the Idle phase. A nil builder uses the
// built-in prompt templates.
func NewSession(c completion.Completer, b *prompt.Builder) *Session {
	return &Session{completer: c, prompts: b}
}

func (s *Session) State() State { return s.state }

func (s *Session) Credential() completion.Credential { return s.cred }

// SetCredential stores the key for later calls. Clearing it returns the
// session to Idle but keeps the subtasks already shown.
func (s *Session) SetCredential(c completion.Credential) {
	s.cred = completion.Credential(strings.TrimSpace(string(c)))
}

func (s *Session) Phase() Phase {
	switch {
	case s.cred.Empty():
		return PhaseIdle
	case s.state.HasSelected:
		return PhaseSteps
	case len(s.state.Visible()) > 0:
		return PhaseSubtasks
	default:
		return PhaseReady
	}
}

// Hint is the notice to show before the user has acted.
func (s *Session) Hint() Notice {
	if s.cred.Empty() {
		return Notice{Level: LevelWarning, Text: msgNeedCredential}
	}
	return Notice{Level: LevelInfo, Text: msgEnterGoal}
}

func (s *Session) build(kind prompt.Kind, text string) string {
	if s.prompts == nil {
		return prompt.Build(kind, text)
	}
	return s.prompts.Build(kind, text)
}

// BeginGenerate validates a goal. On success it returns the call to run and
// the progress notice; otherwise a nil call and a warning notice.
func (s *Session) BeginGenerate(goal string) (*Call, Notice) {
	if s.cred.Empty() {
		return nil, Notice{Level: LevelWarning, Text: msgNeedCredential}
	}
	if strings.TrimSpace(goal) == "" {
		return nil, Notice{Level: LevelWarning, Text: msgNeedGoal}
	}
	return &Call{
		Kind:      prompt.Decompose,
		prompt:    s.build(prompt.Decompose, goal),
		cred:      s.cred,
		completer: s.completer,
	}, Notice{Level: LevelProgress, Text: msgGeneratingTasks}
}

// BeginExplore validates a drill-down on subtask.
func (s *Session) BeginExplore(subtask string) (*Call, Notice) {
	if s.cred.Empty() {
		return nil, Notice{Level: LevelWarning, Text: msgNeedCredential}
	}
	if !s.state.IsVisible(subtask) {
		return nil, Notice{Level: LevelWarning, Text: msgStaleSubtask}
	}
	return &Call{
		Kind:      prompt.Expand,
		Subtask:   subtask,
		prompt:    s.build(prompt.Expand, subtask),
		cred:      s.cred,
		completer: s.completer,
	}, Notice{Level: LevelProgress, Text: msgGeneratingSteps}
}

// Finish applies a call result. Failures leave the state untouched.
func (s *Session) Finish(r Result) Notice {
	if r.Err != nil {
		class := completion.Class(r.Err)
		logging.Warn().
			Str("action", r.Kind.String()).
			Str("class", class.Error()).
			Dur("elapsed", r.Elapsed).
			Msg("completion call failed")
		return failureNotice(class)
	}

	switch r.Kind {
	case prompt.Expand:
		s.state = s.state.WithSteps(r.Subtask, r.Text)
		logging.Info().
			Int("responseBytes", len(r.Text)).
			Dur("elapsed", r.Elapsed).
			Msg("steps generated")
		return Notice{Level: LevelSuccess, Text: fmt.Sprintf("Specific steps for '%s':", r.Subtask)}
	default:
		s.state = s.state.WithSubtasks(r.Text)
		logging.Info().
			Int("lines", len(s.state.Subtasks)).
			Int("visible", len(s.state.Visible())).
			Dur("elapsed", r.Elapsed).
			Msg("subtasks generated")
		return Notice{Level: LevelSuccess, Text: msgSubtasksReady}
	}
}

// Generate runs BeginGenerate, the call, and Finish in sequence.
func (s *Session) Generate(ctx context.Context, goal string) Notice {
	call, n := s.BeginGenerate(goal)
	return s.run(ctx, call, n)
}

// Explore runs BeginExplore, the call, and Finish in sequence.
func (s *Session) Explore(ctx context.Context, subtask string) Notice {
	call, n := s.BeginExplore(subtask)
	return s.run(ctx, call, n)
}

func (s *Session) run(ctx context.Context, call *Call, n Notice) Notice {
	if call == nil {
		return n
	}
	if s.OnProgress != nil {
		s.OnProgress(n)
	}
	return s.Finish(call.Run(ctx))
}

func failureNotice(class error) Notice {
	switch class {
	case completion.ErrAuth:
		return Notice{Level: LevelError, Text: msgAuthFailed}
	case completion.ErrRateLimit:
		return Notice{Level: LevelError, Text: msgRateLimited}
	default:
		return Notice{Level: LevelError, Text: msgTransportFailed}
	}
}
