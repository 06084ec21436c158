// Command bsonschema infers, combines and inspects BSON schemas.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

// errUsage marks errors caused by bad arguments; they exit with status 2.
var errUsage = errors.New("usage")

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg    config
	logger *zap.Logger
	now    func() time.Time
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line and returns the exit code.
func run(argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return newApp(stdin, stdout, stderr).run(argv)
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr, cfg: defaultConfig(), now: time.Now}
}

func (a *app) run(argv []string) int {
	stderr, stdout := a.stderr, a.stdout

	fs := flag.NewFlagSet("bsonschema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file")
	bindConfigFlags(fs, &a.cfg)
	if err := fs.Parse(argv); err != nil {
		return 2
	}

	if *configPath != "" {
		// Flags given on the command line win over the file.
		flags := a.cfg
		if err := loadConfig(*configPath, &a.cfg); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fs.Visit(func(f *flag.Flag) { overrideFromFlag(&a.cfg, flags, f.Name) })
	}
	if err := a.cfg.validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	logger, err := newLogger(stderr, a.cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	defer logger.Sync() //nolint:errcheck
	a.logger = logger

	args := fs.Args()
	if len(args) == 0 {
		printUsage(stdout)
		return 0
	}

	var cmdErr error
	switch verb, rest := args[0], args[1:]; verb {
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	case "infer":
		cmdErr = a.runInfer(rest)
	case "union":
		cmdErr = a.runUnion(rest)
	case "paths":
		cmdErr = a.runPaths(rest)
	case "erd":
		cmdErr = a.runErd(rest)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n", verb)
		printUsage(stderr)
		return 2
	}

	switch {
	case cmdErr == nil:
		return 0
	case errors.Is(cmdErr, errUsage):
		fmt.Fprintln(stderr, cmdErr)
		return 2
	default:
		fmt.Fprintln(stderr, cmdErr)
		return 1
	}
}

func bindConfigFlags(fs *flag.FlagSet, cfg *config) {
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	fs.IntVar(&cfg.MaxDepth, "max-depth", cfg.MaxDepth, "maximum schema nesting depth")
	fs.Float64Var(&cfg.StabilityLimit, "stability-limit", cfg.StabilityLimit, "average Jaccard index below which document shapes are abandoned")
	fs.IntVar(&cfg.MaxLineBytes, "max-line-bytes", cfg.MaxLineBytes, "maximum size of one input document")
}

func overrideFromFlag(cfg *config, flags config, name string) {
	switch name {
	case "log-level":
		cfg.LogLevel = flags.LogLevel
	case "max-depth":
		cfg.MaxDepth = flags.MaxDepth
	case "stability-limit":
		cfg.StabilityLimit = flags.StabilityLimit
	case "max-line-bytes":
		cfg.MaxLineBytes = flags.MaxLineBytes
	}
}

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "bsonschema - infer and combine BSON schemas")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  bsonschema [global flags] infer [-o <file>] [-report] [<documents.jsonl>]   (extended JSON, one document per line; stdin when no file)")
	fmt.Fprintln(w, "  bsonschema [global flags] union <schema.json> <schema.json>...")
	fmt.Fprintln(w, "  bsonschema [global flags] paths [-max-length N] <schema.json>")
	fmt.Fprintln(w, "  bsonschema [global flags] erd validate <erd.yaml|erd.json|erd.bson>")
	fmt.Fprintln(w, "  bsonschema [global flags] erd export [-o <file>] <erd.yaml|erd.json|erd.bson>")
	fmt.Fprintln(w, "\nGlobal flags:")
	fmt.Fprintln(w, "  --config <file>            YAML file with any of the flags below")
	fmt.Fprintln(w, "  --log-level <level>        debug, info, warn or error (default warn)")
	fmt.Fprintln(w, "  --max-depth <n>            maximum schema nesting depth")
	fmt.Fprintln(w, "  --stability-limit <f>      average Jaccard index below which document shapes are abandoned")
	fmt.Fprintln(w, "  --max-line-bytes <n>       maximum size of one input document")
}
