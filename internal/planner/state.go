// Package planner holds the goal → subtasks → steps interaction model.
//
// State is a plain value. The With* transitions return a new State and never
// touch the receiver, so a failed call can simply keep the old value.
package planner

import "strings"

// State is everything a session shows besides the inputs.
type State struct {
	// Subtasks is the split completion response, blank lines included.
	Subtasks []string
	// Selected is the subtask whose steps are shown; valid only if HasSelected.
	Selected    string
	HasSelected bool
	// Steps is the expansion of Selected; "" means not generated yet.
	Steps string
}

// SplitLines splits raw on line boundaries. A trailing '\r' is dropped from
// each segment. Empty segments are kept.
func SplitLines(raw string) []string {
	lines := strings.Split(raw, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// WithSubtasks replaces the list and clears any drill-down.
func (s State) WithSubtasks(raw string) State {
	return State{Subtasks: SplitLines(raw)}
}

// WithSteps selects subtask and stores its expansion.
func (s State) WithSteps(subtask, steps string) State {
	s.Selected = subtask
	s.HasSelected = true
	s.Steps = steps
	return s
}

// Visible returns the subtasks that can be explored, in response order.
func (s State) Visible() []string {
	out := make([]string, 0, len(s.Subtasks))
	for _, t := range s.Subtasks {
		if strings.TrimSpace(t) == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// IsVisible reports whether subtask is one of the explorable entries.
func (s State) IsVisible(subtask string) bool {
	if strings.TrimSpace(subtask) == "" {
		return false
	}
	for _, t := range s.Subtasks {
		if t == subtask {
			return true
		}
	}
	return false
}

// Phase names where a session is in the goal → steps flow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseReady
	PhaseSubtasks
	PhaseSteps
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseReady:
		return "ready"
	case PhaseSubtasks:
		return "subtasks"
	case PhaseSteps:
		return "steps"
	default:
		return "unknown"
	}
}
