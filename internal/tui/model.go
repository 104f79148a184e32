// Package tui provides the interactive terminal interface for tasker.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/fsmiamoto/tasker/internal/completion"
	"github.com/fsmiamoto/tasker/internal/logging"
	"github.com/fsmiamoto/tasker/internal/planner"
	"github.com/fsmiamoto/tasker/internal/prompt"
)

// focus identifies which widget receives key presses.
type focus int

const (
	focusKey focus = iota
	focusGoal
	focusSubtasks
	focusSteps
)

// callDoneMsg carries a finished completion call back to Update.
type callDoneMsg planner.Result

const (
	defaultWidth  = 80
	defaultHeight = 24

	goalLines = 3
)

// Model is the Bubble Tea model for the planner screen.
type Model struct {
	ctx     context.Context
	session *planner.Session

	keyInput  textinput.Model
	goalInput textarea.Model
	spinner   spinner.Model
	steps     viewport.Model
	md        *stepsRenderer

	focus  focus
	cursor int // index into the visible subtasks
	busy   bool

	notice planner.Notice
	acted  bool // notice holds the result of an action rather than the hint

	stepsFor   string // subtask whose steps are loaded into the viewport
	stepsWidth int

	width  int
	height int
}

// New returns a model driving session. ctx bounds every completion call.
func New(ctx context.Context, session *planner.Session) Model {
	ki := textinput.New()
	ki.Placeholder = "sk-..."
	ki.Prompt = ""
	ki.EchoMode = textinput.EchoPassword
	ki.EchoCharacter = '•'
	ki.Focus()

	ga := textarea.New()
	ga.Placeholder = "e.g. Learn guitar"
	ga.ShowLineNumbers = false
	ga.SetHeight(goalLines)
	ga.Blur()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(ColorAccent)

	m := Model{
		ctx:       ctx,
		session:   session,
		keyInput:  ki,
		goalInput: ga,
		spinner:   sp,
		steps:     viewport.New(defaultWidth, 0),
		md:        &stepsRenderer{},
		width:     defaultWidth,
		height:    defaultHeight,
	}
	m.layout()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case callDoneMsg:
		return m.finish(planner.Result(msg))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.forward(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		return m.cycleFocus(1)
	case "shift+tab":
		return m.cycleFocus(-1)
	case "ctrl+g":
		return m.generate()
	}

	switch m.focus {
	case focusSubtasks:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "j", "down":
			if m.cursor < len(m.session.State().Visible())-1 {
				m.cursor++
			}
			return m, nil
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "g", "home":
			m.cursor = 0
			return m, nil
		case "G", "end":
			m.cursor = max(0, len(m.session.State().Visible())-1)
			return m, nil
		case "enter":
			return m.explore()
		}
		return m, nil
	case focusSteps:
		if msg.String() == "q" {
			return m, tea.Quit
		}
	}

	return m.forward(msg)
}

// forward hands msg to the focused widget.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusKey:
		m.keyInput, cmd = m.keyInput.Update(msg)
		m.session.SetCredential(completion.Credential(m.keyInput.Value()))
	case focusGoal:
		m.goalInput, cmd = m.goalInput.Update(msg)
	case focusSteps:
		m.steps, cmd = m.steps.Update(msg)
	}
	return m, cmd
}

// focusable lists the panes that can take focus in the current phase.
func (m Model) focusable() []focus {
	fs := []focus{focusKey, focusGoal}
	st := m.session.State()
	if len(st.Visible()) > 0 {
		fs = append(fs, focusSubtasks)
	}
	if st.HasSelected {
		fs = append(fs, focusSteps)
	}
	return fs
}

func (m Model) cycleFocus(dir int) (tea.Model, tea.Cmd) {
	fs := m.focusable()
	i := 0
	for j, f := range fs {
		if f == m.focus {
			i = j
			break
		}
	}
	i = (i + dir + len(fs)) % len(fs)
	return m, m.setFocus(fs[i])
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.focus = f
	m.keyInput.Blur()
	m.goalInput.Blur()
	switch f {
	case focusKey:
		return m.keyInput.Focus()
	case focusGoal:
		return m.goalInput.Focus()
	}
	return nil
}

func (m Model) generate() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	call, n := m.session.BeginGenerate(m.goalInput.Value())
	return m.dispatch(call, n)
}

func (m Model) explore() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	visible := m.session.State().Visible()
	if m.cursor >= len(visible) {
		return m, nil
	}
	call, n := m.session.BeginExplore(visible[m.cursor])
	return m.dispatch(call, n)
}

// dispatch shows n and, for a valid call, runs it off the UI goroutine.
func (m Model) dispatch(call *planner.Call, n planner.Notice) (tea.Model, tea.Cmd) {
	m.notice, m.acted = n, true
	if call == nil {
		return m, nil
	}
	m.busy = true
	logging.Debug().Str("action", call.Kind.String()).Msg("dispatching completion call")
	return m, tea.Batch(m.spinner.Tick, runCall(m.ctx, call))
}

func runCall(ctx context.Context, call *planner.Call) tea.Cmd {
	return func() tea.Msg {
		return callDoneMsg(call.Run(ctx))
	}
}

func (m Model) finish(r planner.Result) (tea.Model, tea.Cmd) {
	m.busy = false
	m.notice, m.acted = m.session.Finish(r), true

	st := m.session.State()
	visible := st.Visible()
	var cmd tea.Cmd
	if r.Err == nil && r.Kind == prompt.Decompose {
		m.cursor = 0
		if len(visible) > 0 {
			cmd = m.setFocus(focusSubtasks)
		}
	}
	if m.cursor >= len(visible) {
		m.cursor = max(0, len(visible)-1)
	}
	if m.focus == focusSteps && !st.HasSelected {
		cmd = m.setFocus(focusGoal)
	}
	m.syncSteps()
	return m, cmd
}

// layout sizes the widgets for the current window.
func (m *Model) layout() {
	inner := max(10, m.width-4)
	m.keyInput.Width = inner - lipgloss.Width(keyLabel)
	m.goalInput.SetWidth(inner)
	m.steps.Width = inner
	m.syncSteps()
}

// syncSteps reloads the viewport when the selection or width changed.
func (m *Model) syncSteps() {
	m.steps.Height = m.stepsHeight()
	st := m.session.State()
	if !st.HasSelected {
		m.stepsFor = ""
		m.steps.SetContent("")
		return
	}
	key := st.Selected + "\x00" + st.Steps
	if key == m.stepsFor && m.steps.Width == m.stepsWidth {
		return
	}
	m.stepsFor, m.stepsWidth = key, m.steps.Width
	m.steps.SetContent(m.md.Render(st.Steps, m.steps.Width))
	m.steps.GotoTop()
}

const keyLabel = "API key: "

// Fixed rows: header, key box (3), goal box (label + goalLines + 2), status.
func (m Model) listArea() int {
	return max(0, m.height-1-3-(goalLines+3)-1)
}

func (m Model) stepsHeight() int {
	if !m.session.State().HasSelected {
		return 0
	}
	area := m.listArea()
	// Pane chrome is two border rows plus the title row.
	return max(1, area-area/2-3)
}

func (m Model) subtasksHeight() int {
	area := m.listArea()
	if m.session.State().HasSelected {
		area /= 2
	}
	return max(1, area-3)
}

func border(focused bool) lipgloss.Style {
	if focused {
		return focusedBorder
	}
	return unfocusedBorder
}

func (m Model) View() string {
	w := m.width
	inner := max(10, w-4)
	boxW := inner + 2

	var b strings.Builder
	b.WriteString(headerStyle.Width(w).Render("Task Manager"))
	b.WriteString("\n")

	key := labelStyle.Render(keyLabel) + m.keyInput.View()
	b.WriteString(border(m.focus == focusKey).Width(boxW).Padding(0, 1).Render(key))
	b.WriteString("\n")

	goal := labelStyle.Render("Goal") + "\n" + m.goalInput.View()
	b.WriteString(border(m.focus == focusGoal).Width(boxW).Padding(0, 1).Render(goal))
	b.WriteString("\n")

	st := m.session.State()
	subH := m.subtasksHeight()
	list := titleStyle.Render("Subtasks") + "\n" + m.renderSubtasks(inner, subH)
	b.WriteString(border(m.focus == focusSubtasks).Width(boxW).Height(subH+1).Padding(0, 1).Render(list))
	b.WriteString("\n")

	if st.HasSelected {
		title := ansi.Truncate(fmt.Sprintf("Specific Steps for '%s'", st.Selected), inner, "…")
		steps := titleStyle.Render(title) + "\n" + m.steps.View()
		b.WriteString(border(m.focus == focusSteps).Width(boxW).Height(m.steps.Height+1).Padding(0, 1).Render(steps))
		b.WriteString("\n")
	}

	b.WriteString(m.statusBar())
	return b.String()
}

// renderSubtasks draws the visible subtasks, scrolled so the cursor row
// stays in view.
func (m Model) renderSubtasks(width, height int) string {
	items := m.session.State().Visible()
	if len(items) == 0 {
		return placeholderStyle.Render(ansi.Truncate("No subtasks yet. Enter a goal and press ctrl+g.", width, "…"))
	}

	var lines []string
	cursorLine := 0
	for i, item := range items {
		rows := wrapItem("  ", item, width)
		if i == m.cursor {
			cursorLine = len(lines)
			for j, row := range rows {
				if j == 0 {
					rows[j] = selectedIndicator.Render("> ") + selectedStyle.Render(row[2:])
				} else {
					rows[j] = selectedStyle.Render(row)
				}
			}
		}
		lines = append(lines, rows...)
	}

	start := 0
	if cursorLine >= height {
		start = cursorLine - height + 1
	}
	end := min(start+height, len(lines))
	return strings.Join(lines[start:end], "\n")
}

func (m Model) currentNotice() planner.Notice {
	if !m.acted {
		return m.session.Hint()
	}
	return m.notice
}

func (m Model) hints() string {
	var parts []string
	parts = append(parts, statusKeyStyle.Render("tab")+" focus", statusKeyStyle.Render("ctrl+g")+" generate")
	if m.focus == focusSubtasks {
		parts = append(parts, statusKeyStyle.Render("enter")+" explore")
	}
	switch m.focus {
	case focusKey, focusGoal:
		parts = append(parts, statusKeyStyle.Render("ctrl+c")+" quit")
	default:
		parts = append(parts, statusKeyStyle.Render("q")+" quit")
	}
	return strings.Join(parts, "  ")
}

func (m Model) statusBar() string {
	n := m.currentNotice()
	left := noticeStyle(n.Level).Render(n.Text)
	if m.busy {
		left = m.spinner.View() + " " + left
	}
	right := m.hints()

	avail := max(0, m.width-2)
	gap := avail - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		left = ansi.Truncate(left, max(0, avail-lipgloss.Width(right)-1), "…")
		gap = max(1, avail-lipgloss.Width(left)-lipgloss.Width(right))
	}
	line := left + strings.Repeat(" ", gap) + right
	return statusBarStyle.Width(m.width).Render(ansi.Truncate(line, avail, ""))
}
