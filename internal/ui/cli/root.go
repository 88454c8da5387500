// Package cli is the edgegraph command line: one-shot queries, the HTTP
// server and the terminal UI.
package cli

import (
	"context"
	coreapp "edgegraph/internal/core/app"
	"edgegraph/internal/core/config"
	"edgegraph/internal/core/errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags.
var Version = "0.3.0"

const defaultConfigPath = "./edgegraph.toml"

type rootOptions struct {
	configPath string
	envFile    string
	verbose    bool
	output     string
}

// session carries what PersistentPreRunE resolved for the running command.
type session struct {
	opts      rootOptions
	cfg       *config.Config
	paths     config.ResolvedPaths
	closeLogs func()
}

// NewRootCommand builds a fresh command tree. Tests build their own so flag
// state never leaks between runs.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	s := &session{closeLogs: func() {}}

	root := &cobra.Command{
		Use:   "edgegraph",
		Short: "Load large directed edge lists and query them",
		Long: `edgegraph loads a whitespace separated "from to" edge list into a compact
in-memory adjacency structure and answers graph statistics and bounded
breadth-first traversals over it, from the command line, an HTTP API or a
terminal UI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.prepare(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			s.closeLogs()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&s.opts.configPath, "config", "c", defaultConfigPath, "Path to config file")
	flags.StringVar(&s.opts.envFile, "env-file", ".env", "Optional .env file with EDGEGRAPH_* overrides")
	flags.BoolVarP(&s.opts.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVarP(&s.opts.output, "output", "o", "text", "Output format: text, json or yaml")

	root.AddCommand(
		newStatsCommand(s),
		newMaxDegreeCommand(s),
		newTraverseCommand(s),
		newNeighborsCommand(s),
		newHistoryCommand(s),
		newServeCommand(s),
		newUICommand(s),
		newVersionCommand(),
	)
	return root
}

func (s *session) prepare(cmd *cobra.Command) error {
	if _, err := parseOutput(s.opts.output); err != nil {
		return err
	}
	if cmd.Name() == "version" {
		return nil
	}

	if err := config.LoadDotEnv(s.opts.envFile); err != nil {
		return fmt.Errorf("load %s: %w", s.opts.envFile, err)
	}
	cfg, err := config.Load(s.opts.configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", s.opts.configPath, err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("detect working directory: %w", err)
	}

	s.cfg = cfg
	s.paths = config.ResolvePaths(cfg, cwd)
	logPath := ""
	if cmd.Name() == "ui" {
		logPath = s.paths.LogPath
		if logPath == "" {
			logPath = resolveLogPath()
		}
	}
	s.closeLogs = configureLogging(cmd.ErrOrStderr(), commandLogLevel(cmd.Name(), s.opts.verbose), logPath)
	return nil
}

// newApp builds the application around dataset, or the configured dataset
// when it is blank. Nothing is loaded yet.
func (s *session) newApp(dataset string) (*coreapp.App, error) {
	if strings.TrimSpace(dataset) != "" {
		s.paths.DatasetPath = config.ResolveRelative(mustGetwd(), dataset)
	}
	return coreapp.New(s.cfg, s.paths)
}

// loadApp builds the application and loads its dataset. With required unset
// a missing dataset is fine and the graph starts empty.
func (s *session) loadApp(ctx context.Context, dataset string, required bool) (*coreapp.App, error) {
	a, err := s.newApp(dataset)
	if err != nil {
		return nil, err
	}
	if a.DatasetPath() == "" {
		if !required {
			return a, nil
		}
		_ = a.Close(context.Background())
		return nil, errors.New(errors.CodeValidationError,
			"no dataset given: pass a file argument or set dataset.path in the config")
	}
	if _, err := a.LoadDataset(ctx, ""); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func mustGetwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	root := NewRootCommand(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	switch errors.CodeOf(err) {
	case errors.CodeValidationError, errors.CodeFormat:
		return 2
	default:
		return 1
	}
}
