package tui

import (
	"strings"
	"unicode/utf8"

	runewidth "github.com/mattn/go-runewidth"
)

// WrapLine soft-wraps line at spaces to fit within width columns. Leading
// indentation is kept on the first line; words wider than width are broken
// by rune.
func WrapLine(line string, width int) []string {
	if width <= 0 || runewidth.StringWidth(line) <= width {
		return []string{line}
	}

	var (
		out   []string
		cur   strings.Builder
		curW  int
		words int
	)
	flush := func() {
		out = append(out, cur.String())
		cur.Reset()
		curW, words = 0, 0
	}

	lead := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	if lw := runewidth.StringWidth(lead); lw < width {
		cur.WriteString(lead)
		curW = lw
	}

	for _, word := range strings.Fields(line) {
		ww := runewidth.StringWidth(word)
		sep := 0
		if words > 0 {
			sep = 1
		}
		if curW+sep+ww <= width {
			if sep == 1 {
				cur.WriteByte(' ')
			}
			cur.WriteString(word)
			curW += sep + ww
			words++
			continue
		}
		if words > 0 {
			flush()
		}
		for ww > width-curW {
			head := runewidth.Truncate(word, width-curW, "")
			if head == "" {
				_, size := utf8.DecodeRuneInString(word)
				head = word[:size]
			}
			cur.WriteString(head)
			flush()
			word = word[len(head):]
			ww = runewidth.StringWidth(word)
		}
		cur.WriteString(word)
		curW += ww
		words++
	}
	if words > 0 || len(out) == 0 {
		flush()
	}
	return out
}

// WrapText applies WrapLine to every line of text, keeping existing breaks.
func WrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		out = append(out, WrapLine(line, width)...)
	}
	return strings.Join(out, "\n")
}

// wrapItem wraps a list entry with a hanging indent so continuation lines
// line up under the first character after prefix.
func wrapItem(prefix, text string, width int) []string {
	pw := runewidth.StringWidth(prefix)
	lines := WrapLine(text, width-pw)
	pad := strings.Repeat(" ", pw)
	for i := range lines {
		if i == 0 {
			lines[i] = prefix + lines[i]
		} else {
			lines[i] = pad + lines[i]
		}
	}
	return lines
}
