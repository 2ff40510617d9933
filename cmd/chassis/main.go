// Command chassis inspects service configuration documents without
// building anything: it prints dependency sets, the dependency tree, the
// instantiation plan and a Graphviz view, and checks for cycles.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/refinery29/chassis"
	"github.com/refinery29/chassis/config"
	"github.com/refinery29/chassis/internal/graph"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

type command struct {
	summary string
	run     func(out io.Writer, nodes chassis.Nodes) error
}

var commands = map[string]command{
	"nodes": {"print each service with the services it depends on", runNodes},
	"tree":  {"render the dependency tree of every service", runTree},
	"plan":  {"print the instantiation rounds", runPlan},
	"check": {"detect cycles and dangling references", runCheck},
	"dot":   {"write the dependency graph in Graphviz DOT format", runDOT},
	"stats": {"print rounds, stuck services and graph statistics", runStats},
}

func main() {
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run is main without the process exit, for tests.
func run(stdout, stderr io.Writer, args []string) error {
	if len(args) == 0 {
		usage(stderr)
		return &ExitError{Code: 2, Message: "missing command"}
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(stdout)
		return nil
	}

	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		usage(stderr)
		return &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", name)}
	}

	flagSet := flag.NewFlagSet("chassis "+name, flag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "Usage:\n  chassis %s [options] CONFIG_PATH\n\n%s.\n\nOptions:\n", name, cmd.summary)
		flagSet.PrintDefaults()
	}
	verbose := flagSet.Bool("verbose", false, "Log debug output to stderr.")

	if err := flagSet.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return &ExitError{Code: 2, Message: err.Error()}
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return &ExitError{Code: 2, Message: "expected exactly one CONFIG_PATH"}
	}

	logger := newLogger(stderr, *verbose)
	defer logger.Sync()

	path := flagSet.Arg(0)
	nodes, err := loadNodes(path)
	if err != nil {
		logger.Error("failed to load configuration", zap.String("path", path), zap.Error(err))
		return err
	}
	logger.Debug("configuration loaded",
		zap.String("path", path),
		zap.String("command", name),
		zap.Int("services", len(nodes)),
		zap.Int("edges", nodes.Edges()))

	return cmd.run(stdout, nodes)
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprint(w, `
chassis - inspect service configuration documents.

Usage:
  chassis <command> [options] CONFIG_PATH

CONFIG_PATH is a .yaml, .yml or .hcl file, or a directory of them.

Commands:
`)
	for _, name := range names {
		fmt.Fprintf(w, "  %-6s %s\n", name, commands[name].summary)
	}
}

// newLogger returns a development logger when verbose, otherwise a
// production logger that only reports warnings and errors.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	if verbose {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zapcore.DebugLevel), zap.Development())
	}
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zapcore.WarnLevel))
}

func loadNodes(path string) (chassis.Nodes, error) {
	var (
		doc *config.Document
		err error
	)
	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		doc, err = config.LoadDir(path)
	} else {
		doc, err = config.Load(path)
	}
	if err != nil {
		return nil, err
	}

	cfg, err := doc.Config()
	if err != nil {
		return nil, err
	}
	return chassis.BuildNodes(cfg), nil
}

func runNodes(out io.Writer, nodes chassis.Nodes) error {
	return graph.WriteAdjacencyList(out, nodes)
}

func runDOT(out io.Writer, nodes chassis.Nodes) error {
	return graph.WriteDOT(out, nodes)
}

func runStats(out io.Writer, nodes chassis.Nodes) error {
	return graph.WriteText(out, nodes)
}

func runPlan(out io.Writer, nodes chassis.Nodes) error {
	plan, err := chassis.Plan(nodes)
	if err != nil {
		return &ExitError{Code: 1, Message: err.Error()}
	}
	for i, round := range plan {
		if _, err := fmt.Fprintf(out, "round %d: %s\n", i, strings.Join(round, ", ")); err != nil {
			return err
		}
	}
	return nil
}

func runCheck(out io.Writer, nodes chassis.Nodes) error {
	tree, err := chassis.DetectCycles(nodes)
	if err != nil {
		var cycle chassis.CircularDependencyError
		if errors.As(err, &cycle) {
			fmt.Fprintf(out, "cycle: %s\n", cycle.PathString())
		}
		return &ExitError{Code: 1, Message: err.Error()}
	}
	_, err = fmt.Fprintf(out, "ok: %d services, no cycles\n", tree.HeadCount())
	return err
}

func runTree(out io.Writer, nodes chassis.Nodes) error {
	tree, err := chassis.DetectCycles(nodes)
	if err != nil {
		return &ExitError{Code: 1, Message: err.Error()}
	}
	_, err = fmt.Fprintln(out, renderTree(tree))
	return err
}
