package prompt

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/fsmiamoto/tasker/internal/logging"
)

// Kind selects which instruction wraps the user's text.
type Kind int

const (
	Decompose Kind = iota // goal -> subtasks
	Expand                // subtask -> detailed steps
)

func (k Kind) String() string {
	switch k {
	case Decompose:
		return "decompose"
	case Expand:
		return "expand"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// templateData is the data passed into every prompt template.
type templateData struct {
	Input string
}

// Builder renders prompts from a pair of parsed templates.
type Builder struct {
	decompose *template.Template
	expand    *template.Template
}

// Overrides names optional files that replace the built-in templates.
// Empty paths keep the defaults.
type Overrides struct {
	DecomposeFile string
	ExpandFile    string
}

var defaultBuilder = mustBuilder()

func mustBuilder() *Builder {
	b, err := NewBuilder(Overrides{})
	if err != nil {
		panic(err)
	}
	return b
}

// NewBuilder parses the built-in templates, replacing each with the
// contents of its override file when one is given.
func NewBuilder(o Overrides) (*Builder, error) {
	decompose, err := load("decompose", decomposeTemplate, o.DecomposeFile)
	if err != nil {
		return nil, err
	}
	expand, err := load("expand", expandTemplate, o.ExpandFile)
	if err != nil {
		return nil, err
	}
	return &Builder{decompose: decompose, expand: expand}, nil
}

func load(name, builtin, path string) (*template.Template, error) {
	src := builtin
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s template %q: %w", name, path, err)
		}
		src = string(data)
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s template: %w", name, err)
	}
	// Fields other than .Input only fail at execution time.
	if err := tmpl.Execute(io.Discard, templateData{}); err != nil {
		return nil, fmt.Errorf("checking %s template: %w", name, err)
	}
	return tmpl, nil
}

// Build inserts text verbatim into the template for kind.
func (b *Builder) Build(kind Kind, text string) string {
	tmpl := b.decompose
	if kind == Expand {
		tmpl = b.expand
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateData{Input: text}); err != nil {
		logging.Warn().Err(err).Str("kind", kind.String()).Msg("prompt template failed, sending bare text")
		return text
	}
	return buf.String()
}

// Build renders text with the built-in templates.
func Build(kind Kind, text string) string {
	return defaultBuilder.Build(kind, text)
}
