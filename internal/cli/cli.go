// Package cli defines tasker's command line and merges it with the config
// file.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fsmiamoto/tasker/internal/config"
)

// Version is overridden at build time with
// -ldflags "-X github.com/fsmiamoto/tasker/internal/cli.Version=v1.2.3".
var Version = "dev"

// Options holds the parsed flags.
type Options struct {
	ConfigPath string
	Provider   string
	Model      string
	MaxTokens  int
	BaseURL    string
	NoTUI      bool

	DecomposeTemplate string
	ExpandTemplate    string

	LogFile  string
	LogLevel string

	changed func(name string) bool
}

const long = `tasker breaks a goal into subtasks with a language model, then expands
any subtask into a day-by-day or week-by-week plan.

The API key is asked for at startup and kept in memory only. Settings are
read from a TOML file (default: ` + "`$XDG_CONFIG_HOME/tasker/config.toml`" + `);
flags override the file.`

// NewRootCommand builds the root command. run is invoked with the parsed
// options once flags are valid.
func NewRootCommand(run func(cmd *cobra.Command, opts *Options) error) *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:           "tasker",
		Short:         "Break goals into subtasks and subtasks into schedules",
		Long:          long,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.changed = cmd.Flags().Changed
			if opts.MaxTokens < 0 {
				return fmt.Errorf("--max-tokens must be a positive integer, got %d", opts.MaxTokens)
			}
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")
	f.StringVarP(&opts.Provider, "provider", "p", "", `completion provider: "openai" or "anthropic"`)
	f.StringVarP(&opts.Model, "model", "m", "", "model name")
	f.IntVar(&opts.MaxTokens, "max-tokens", 0, "response token ceiling")
	f.StringVar(&opts.BaseURL, "base-url", "", "override the provider's API base URL")
	f.BoolVar(&opts.NoTUI, "no-tui", false, "line-oriented mode instead of the full-screen UI")
	f.StringVar(&opts.DecomposeTemplate, "decompose-template", "", "template file for the goal prompt")
	f.StringVar(&opts.ExpandTemplate, "expand-template", "", "template file for the subtask prompt")
	f.StringVar(&opts.LogFile, "log-file", "", "log file path, or - for stderr")
	f.StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tasker %s\n", Version)
		},
	}
}

// Resolve loads the config file and applies any flags that were set.
func (o *Options) Resolve() (config.Config, error) {
	path, explicit := o.ConfigPath, true
	if path == "" {
		path, explicit = config.DefaultPath(), false
	}
	cfg, err := config.Load(path, explicit)
	if err != nil {
		return config.Config{}, err
	}

	set := o.changed
	if set == nil {
		set = func(string) bool { return false }
	}
	if set("provider") {
		cfg.Provider = o.Provider
	}
	if set("model") {
		cfg.Model = o.Model
	}
	if set("max-tokens") {
		cfg.MaxTokens = o.MaxTokens
	}
	if set("base-url") {
		cfg.BaseURL = o.BaseURL
	}
	if set("decompose-template") {
		cfg.Prompts.DecomposeFile = o.DecomposeTemplate
	}
	if set("expand-template") {
		cfg.Prompts.ExpandFile = o.ExpandTemplate
	}
	if set("log-file") {
		cfg.Log.File = o.LogFile
	}
	if set("log-level") {
		cfg.Log.Level = o.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}
