// Command tasker breaks a goal into subtasks and expands each one into a
// concrete schedule using a language model.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fsmiamoto/tasker/internal/cli"
	"github.com/fsmiamoto/tasker/internal/completion"
	"github.com/fsmiamoto/tasker/internal/config"
	"github.com/fsmiamoto/tasker/internal/logging"
	"github.com/fsmiamoto/tasker/internal/plain"
	"github.com/fsmiamoto/tasker/internal/planner"
	"github.com/fsmiamoto/tasker/internal/prompt"
	"github.com/fsmiamoto/tasker/internal/tui"
)

func main() {
	if err := cli.NewRootCommand(run).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tasker: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, opts *cli.Options) error {
	cfg, err := opts.Resolve()
	if err != nil {
		return err
	}

	closer, err := logging.Setup(logging.Options{File: cfg.Log.File, Level: cfg.Log.Level})
	if err != nil {
		return err
	}
	defer closer.Close()

	sess, err := newSession(cfg)
	if err != nil {
		logging.Error().Err(err).Msg("startup failed")
		return err
	}

	interactive := useTUI(opts.NoTUI,
		term.IsTerminal(int(os.Stdin.Fd())),
		term.IsTerminal(int(os.Stdout.Fd())))
	logging.Info().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Int("maxTokens", cfg.MaxTokens).
		Bool("tui", interactive).
		Msg("starting session")

	ctx := cmd.Context()
	if interactive {
		err = tui.Run(ctx, sess)
	} else {
		err = plain.Run(ctx, sess, plain.StdioOptions())
	}
	if err != nil {
		logging.Error().Err(err).Msg("session ended with error")
		return err
	}
	logging.Info().Msg("session ended")
	return nil
}

// newSession builds the prompt templates and completion client from cfg.
func newSession(cfg config.Config) (*planner.Session, error) {
	builder, err := prompt.NewBuilder(prompt.Overrides{
		DecomposeFile: cfg.Prompts.DecomposeFile,
		ExpandFile:    cfg.Prompts.ExpandFile,
	})
	if err != nil {
		return nil, err
	}
	c, err := completion.New(cfg.Provider, cfg.CompletionOptions())
	if err != nil {
		return nil, err
	}
	return planner.NewSession(c, builder), nil
}

// useTUI reports whether the full-screen interface can run.
func useTUI(noTUI, stdinTTY, stdoutTTY bool) bool {
	return !noTUI && stdinTTY && stdoutTTY
}
