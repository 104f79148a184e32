// Package plain runs the planner as a line-oriented prompt for terminals
// without full-screen support and for scripted input.
package plain

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/fsmiamoto/tasker/internal/completion"
	"github.com/fsmiamoto/tasker/internal/logging"
	"github.com/fsmiamoto/tasker/internal/planner"
)

const msgBadChoice = "Please answer with a number, g, or q."

// Options wires the prompt to its streams.
type Options struct {
	In  io.Reader
	Out io.Writer

	// ReadSecret reads the API key without echo. When nil the key is read
	// as an ordinary line from In.
	ReadSecret func() (string, error)
}

// StdioOptions returns Options for the process streams, reading the key
// with echo disabled when stdin is a terminal.
func StdioOptions() Options {
	opts := Options{In: os.Stdin, Out: os.Stdout}
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		opts.ReadSecret = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(os.Stdout)
			return string(b), err
		}
	}
	return opts
}

type prompter struct {
	sess       *planner.Session
	in         *bufio.Reader
	out        io.Writer
	readSecret func() (string, error)
}

// Run drives sess until the user quits or input ends.
func Run(ctx context.Context, sess *planner.Session, opts Options) error {
	p := &prompter{
		sess:       sess,
		in:         bufio.NewReader(opts.In),
		out:        opts.Out,
		readSecret: opts.ReadSecret,
	}
	sess.OnProgress = func(n planner.Notice) { p.notice(n) }

	err := p.run(ctx)
	if errors.Is(err, io.EOF) {
		logging.Debug().Msg("input closed")
		return nil
	}
	return err
}

func (p *prompter) run(ctx context.Context) error {
	if err := p.askCredential(); err != nil {
		return err
	}
	for {
		if err := p.askGoal(ctx); err != nil {
			return err
		}
		again, err := p.menu(ctx)
		if err != nil || !again {
			return err
		}
	}
}

func (p *prompter) askCredential() error {
	for p.sess.Phase() == planner.PhaseIdle {
		fmt.Fprint(p.out, "API key: ")
		var (
			key string
			err error
		)
		if p.readSecret != nil {
			key, err = p.readSecret()
		} else {
			key, err = p.readLine()
		}
		if err != nil {
			return err
		}
		p.sess.SetCredential(completion.Credential(key))
		if p.sess.Phase() == planner.PhaseIdle {
			p.notice(p.sess.Hint())
		}
	}
	return nil
}

// askGoal reads goals until one yields at least one subtask.
func (p *prompter) askGoal(ctx context.Context) error {
	for {
		fmt.Fprintln(p.out, "Goal (finish with an empty line):")
		goal, err := p.readBlock()
		if err != nil {
			return err
		}
		n := p.sess.Generate(ctx, goal)
		p.notice(n)
		if n.Level == planner.LevelSuccess && len(p.sess.State().Visible()) > 0 {
			p.list()
			return nil
		}
	}
}

// menu offers the subtasks for exploration. It reports whether the user
// asked for a new goal.
func (p *prompter) menu(ctx context.Context) (bool, error) {
	for {
		visible := p.sess.State().Visible()
		fmt.Fprintf(p.out, "Explore a subtask [1-%d], g for a new goal, q to quit: ", len(visible))
		line, err := p.readLine()
		if err != nil {
			return false, err
		}

		answer := strings.TrimSpace(line)
		switch strings.ToLower(answer) {
		case "q":
			return false, nil
		case "g":
			return true, nil
		}

		i, err := strconv.Atoi(answer)
		if err != nil || i < 1 || i > len(visible) {
			fmt.Fprintln(p.out, msgBadChoice)
			continue
		}

		n := p.sess.Explore(ctx, visible[i-1])
		p.notice(n)
		if n.Level == planner.LevelSuccess {
			fmt.Fprintln(p.out, p.sess.State().Steps)
			fmt.Fprintln(p.out)
			p.list()
		}
	}
}

func (p *prompter) list() {
	for i, s := range p.sess.State().Visible() {
		fmt.Fprintf(p.out, "%3d. %s\n", i+1, s)
	}
}

func (p *prompter) notice(n planner.Notice) {
	switch n.Level {
	case planner.LevelError:
		fmt.Fprintf(p.out, "error: %s\n", n.Text)
	case planner.LevelWarning:
		fmt.Fprintf(p.out, "warning: %s\n", n.Text)
	default:
		fmt.Fprintln(p.out, n.Text)
	}
}

// readLine returns the next line without its terminator. A final line
// without a newline is returned before io.EOF.
func (p *prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readBlock reads lines up to the first empty one. End of input after at
// least one line ends the block.
func (p *prompter) readBlock() (string, error) {
	var lines []string
	for {
		line, err := p.readLine()
		if errors.Is(err, io.EOF) && len(lines) > 0 {
			break
		}
		if err != nil {
			return "", err
		}
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}
