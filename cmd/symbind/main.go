package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"symbind/internal/arch"
	"symbind/internal/logger"
	"symbind/internal/model"
	"symbind/internal/proc"
	"symbind/internal/prompt"
	"symbind/internal/report"
	"symbind/internal/settings"
	"symbind/internal/symtab"
	"symbind/internal/toolchain"
	"symbind/internal/transform"
	"symbind/internal/verify"
)

// Exit codes.
const (
	exitOK          = 0
	exitMismatch    = 1
	exitUnknownArch = 2
	exitNoToolchain = 3
	exitBadHost     = 4
	exitToolFailed  = 5
	exitEmptyModel  = 6
	exitUsage       = 7
	exitBadModel    = 8
	exitFailure     = 1
)

// env is everything a command touches outside its arguments.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	runner proc.Runner
	getenv func(string) string
	goos   string
	// dir is where .symbind/settings.yaml is looked up.
	dir string
}

func osEnv() *env {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return &env{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		runner: proc.Exec{},
		getenv: os.Getenv,
		goos:   runtime.GOOS,
		dir:    wd,
	}
}

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(ctx context.Context, e *env, args []string) error
}

var commands = []command{
	{
		name:  "transform",
		short: "Print the codegen-ready form of a symbol model as JSON",
		usage: "symbind transform <model.yaml>",
		long: `Load a symbol model and print its codegen-ready form as JSON on stdout.

Parameters are paired with 1-based indices, namespace qualifiers are split
into {name, inline} objects, each symbol gains returnsSomething, and
modelHash carries the MD5 of the model file bytes.

Exits 7 on wrong arguments and 8 if the model cannot be parsed or transformed.
`,
		run: runTransform,
	},
	{
		name:  "verify",
		short: "Check that a binary defines every mangled name in a model",
		usage: "symbind verify <model.yaml> <binary>",
		long: `Check that <binary> defines every mangled name declared in <model.yaml>.

The architecture is read from file(1) output and the matching objdump is
taken from the NDK repository named by $ANDROID_NDK_REPOSITORY. Every
missing name is reported on stderr, one per line.

Exit codes:
  0  all mangled names found
  1  one or more mangled names missing
  2  unrecognized architecture
  3  toolchain repository unset, missing or empty
  4  unsupported host OS
  5  file or objdump invocation failed
  6  model declares no mangled names
  7  usage error or unreadable input
`,
		run: runVerify,
	},
	{
		name:  "arch",
		short: "Print the architecture of a binary",
		usage: "symbind arch <binary>",
		long: `Print the architecture (x86, x86_64, arm64, arm32) <binary> was built for.

Exits 2 if file(1) output names no known architecture.
`,
		run: runArch,
	},
	{
		name:  "init",
		short: "Create .symbind/settings.yaml interactively",
		usage: "symbind init",
		long: `Prompt for settings and write .symbind/settings.yaml in the current directory.

Errors if the settings file already exists.
`,
		run: runInit,
	},
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "symbind: native binding model tools\n\n")
	fmt.Fprintf(w, "Usage:\n  symbind <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'symbind help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "symbind: unknown command %q\n\nRun 'symbind help' for usage.\n", name)
}

func dispatch(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(e.stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(e.stdout, args[1])
		} else {
			printUsage(e.stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(ctx, e, args[1:])
		}
	}
	return &usageError{msg: fmt.Sprintf("unknown command %q\n\nRun 'symbind help' for usage.", args[0])}
}

// ---------------------------------------------------------------------------
// Errors and exit codes
// ---------------------------------------------------------------------------

type usageError struct {
	msg string
	err error
}

func (e *usageError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return e.msg
}

func (e *usageError) Unwrap() error { return e.err }

// mismatchError and emptyModelError are already reported on stderr.
type mismatchError struct{ missing int }

func (e *mismatchError) Error() string {
	return fmt.Sprintf("%d mangled name(s) not defined", e.missing)
}

type emptyModelError struct{}

func (e *emptyModelError) Error() string { return "model declares no mangled names" }

func exitCode(err error) int {
	var (
		usage    *usageError
		mismatch *mismatchError
		empty    *emptyModelError
		unknown  *arch.UnknownError
		noRepo   *toolchain.RepositoryNotFoundError
		badHost  *toolchain.UnsupportedHostError
		tool     *proc.ToolError
		parse    *model.ParseError
		xform    *transform.Error
	)
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &usage):
		return exitUsage
	case errors.As(err, &mismatch):
		return exitMismatch
	case errors.As(err, &empty):
		return exitEmptyModel
	case errors.As(err, &unknown):
		return exitUnknownArch
	case errors.As(err, &noRepo):
		return exitNoToolchain
	case errors.As(err, &badHost):
		return exitBadHost
	case errors.As(err, &tool):
		return exitToolFailed
	case errors.As(err, &parse), errors.As(err, &xform):
		return exitBadModel
	default:
		return exitFailure
	}
}

// reported reports whether err's diagnostics were already written.
func reported(err error) bool {
	var (
		mismatch *mismatchError
		empty    *emptyModelError
	)
	return errors.As(err, &mismatch) || errors.As(err, &empty)
}

// setup loads settings from e.dir and configures logging on stderr.
func setup(e *env) (*settings.Settings, error) {
	s, err := settings.Load(e.dir)
	if err != nil {
		return nil, &usageError{err: err}
	}
	cfg, err := s.LoggerConfig()
	if err != nil {
		return nil, &usageError{err: err}
	}
	cfg.Output = e.stderr
	logger.Init(cfg)
	return s, nil
}

// checkReadable opens path and closes it again.
func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &usageError{err: err}
	}
	return f.Close()
}

// ---------------------------------------------------------------------------
// transform
// ---------------------------------------------------------------------------

func runTransform(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return &usageError{msg: "usage: symbind transform <model.yaml>"}
	}
	if _, err := setup(e); err != nil {
		return err
	}
	log := logger.ForComponent("transform")

	m, raw, err := model.Read(args[0])
	if err != nil {
		return err
	}
	out, err := transform.Transform(m, raw)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transformed model: %w", err)
	}
	log.Debug("transformed model", "path", args[0], "namespaces", len(out.Namespaces), "hash", out.ModelHash)
	_, err = fmt.Fprintf(e.stdout, "%s\n", data)
	return err
}

// ---------------------------------------------------------------------------
// verify
// ---------------------------------------------------------------------------

func runVerify(ctx context.Context, e *env, args []string) error {
	if len(args) != 2 {
		return &usageError{msg: "usage: symbind verify <model.yaml> <binary>"}
	}
	modelPath, binary := args[0], args[1]
	for _, p := range []string{modelPath, binary} {
		if err := checkReadable(p); err != nil {
			return err
		}
	}
	s, err := setup(e)
	if err != nil {
		return err
	}
	log := logger.ForComponent("verify")

	m, _, err := model.Read(modelPath)
	if err != nil {
		return &usageError{err: err}
	}

	a, err := arch.Detect(ctx, e.runner, s.Probe.Command, binary)
	if err != nil {
		return err
	}
	log.Debug("resolved architecture", "binary", binary, "arch", a)

	loc := &toolchain.Locator{Root: e.getenv(toolchain.EnvRepository), Host: e.goos}
	tool, err := loc.Objdump(a)
	if err != nil {
		return err
	}
	log.Debug("located objdump", "path", tool)

	tbl, err := symtab.Extract(ctx, e.runner, tool, binary)
	if err != nil {
		return err
	}
	log.Debug("extracted symbol table", "lines", len(tbl.Lines))

	rep := verify.Verify(m, tbl)
	log.Debug("verified", "symbols", rep.Symbols, "examined", rep.Examined, "missing", len(rep.Missing))

	switch report.Write(e.stderr, rep) {
	case report.Mismatch:
		return &mismatchError{missing: len(rep.Missing)}
	case report.EmptyModel:
		return &emptyModelError{}
	}
	return nil
}

// ---------------------------------------------------------------------------
// arch
// ---------------------------------------------------------------------------

func runArch(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return &usageError{msg: "usage: symbind arch <binary>"}
	}
	if err := checkReadable(args[0]); err != nil {
		return err
	}
	s, err := setup(e)
	if err != nil {
		return err
	}
	a, err := arch.Detect(ctx, e.runner, s.Probe.Command, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, a)
	return nil
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func runInit(ctx context.Context, e *env, args []string) error {
	if len(args) != 0 {
		return &usageError{msg: "usage: symbind init"}
	}
	def := settings.Default()
	answers, err := prompt.Ask(e.stdin, e.stdout, []prompt.Question{
		{Key: "level", Prompt: "Log level (debug, info, warn, error)", Default: def.Log.Level},
		{Key: "format", Prompt: "Log format (text, json)", Default: def.Log.Format},
		{Key: "probe", Prompt: "File-type command", Default: def.Probe.Command},
	})
	if err != nil {
		return fmt.Errorf("prompt: %w", err)
	}

	s := settings.Settings{
		Log:   settings.Log{Level: answers["level"], Format: answers["format"]},
		Probe: settings.Probe{Command: answers["probe"]},
	}
	if _, err := s.LoggerConfig(); err != nil {
		return &usageError{err: err}
	}
	if err := settings.Save(e.dir, s); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "wrote %s\n", settings.Path(e.dir))
	return nil
}

func main() {
	err := dispatch(context.Background(), osEnv(), os.Args[1:])
	if err != nil && !reported(err) {
		fmt.Fprintf(os.Stderr, "symbind: %v\n", err)
	}
	os.Exit(exitCode(err))
}
