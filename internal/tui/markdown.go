package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// stepsRenderer renders the drill-down text. It is rebuilt when the pane
// width changes.
type stepsRenderer struct {
	width int
	r     *glamour.TermRenderer
}

func (s *stepsRenderer) init(width int) {
	if width < 20 {
		width = 80
	}
	if s.r != nil && s.width == width {
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		s.r = nil
		return
	}
	s.r, s.width = r, width
}

// Render returns the steps text for a pane width columns wide. Every line
// of text stays on its own row: text without markdown structure is only
// wrapped, and markdown is rendered with each line as its own block.
func (s *stepsRenderer) Render(text string, width int) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if !looksLikeMarkdown(text) {
		return WrapText(text, width)
	}
	s.init(width)
	if s.r == nil {
		return WrapText(text, width)
	}
	out, err := s.r.Render(keepLineBreaks(text))
	if err != nil {
		return WrapText(text, width)
	}
	return strings.Trim(out, "\n")
}

var markdownPrefixes = []string{"#", "- ", "* ", "+ ", "> ", "```", "~~~", "|"}

// looksLikeMarkdown reports whether some line opens a markdown block or the
// text uses emphasis.
func looksLikeMarkdown(text string) bool {
	if strings.Contains(text, "**") || strings.Contains(text, "__") {
		return true
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		for _, p := range markdownPrefixes {
			if strings.HasPrefix(line, p) {
				return true
			}
		}
		if isOrderedItem(line) {
			return true
		}
	}
	return false
}

func isOrderedItem(line string) bool {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	return i > 0 && i+1 < len(line) && (line[i] == '.' || line[i] == ')') && line[i+1] == ' '
}

// keepLineBreaks turns every single newline outside code fences and tables
// into a paragraph break, since markdown joins adjacent lines.
func keepLineBreaks(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var b strings.Builder
	fenced := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fenced = !fenced
		}
		b.WriteString(line)
		if i == len(lines)-1 {
			break
		}
		b.WriteByte('\n')

		next := strings.TrimSpace(lines[i+1])
		if fenced || trimmed == "" || next == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "|") && strings.HasPrefix(next, "|") {
			continue
		}
		b.WriteByte('\n')
	}
	return b.String()
}
