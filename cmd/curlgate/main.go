package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tidwall/pretty"
	"golang.org/x/term"

	"github.com/codefionn/curlgate/internal/config"
	"github.com/codefionn/curlgate/internal/consts"
	"github.com/codefionn/curlgate/internal/diagnostics"
	"github.com/codefionn/curlgate/internal/logger"
	"github.com/codefionn/curlgate/internal/pidfile"
	"github.com/codefionn/curlgate/internal/probe"
	"github.com/codefionn/curlgate/internal/secretdetect"
	"github.com/codefionn/curlgate/internal/server"
	"github.com/codefionn/curlgate/internal/tools"
)

// errProbeFailed makes the process exit non-zero without printing anything
// beyond the response itself.
var errProbeFailed = errors.New("probe failed")

type cliOptions struct {
	configPath string
	logLevel   string
	serve      bool
	listTools  bool
	writeCfg   bool
	compact    bool
	text       string
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !errors.Is(err, errProbeFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func parseCLIArgs(args []string) (*cliOptions, error) {
	opts := &cliOptions{}

	fs := flag.NewFlagSet("curlgate", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: curlgate [flags] [curl command...]\n\n")
		fmt.Fprintf(fs.Output(), "Runs one restricted curl command and prints the parsed response as JSON.\n")
		fmt.Fprintf(fs.Output(), "The command is read from the arguments, or from stdin when none are given.\n\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.configPath, "config", config.GetConfigPath(), "path to the config file")
	fs.StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error, none)")
	fs.BoolVar(&opts.serve, "serve", false, "serve the HTTP API instead of running a command")
	fs.BoolVar(&opts.listTools, "tools", false, "print the tool schema and exit")
	fs.BoolVar(&opts.writeCfg, "write-config", false, "write the effective config to the -config path and exit")
	fs.BoolVar(&opts.compact, "compact", false, "print compact JSON")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	modes := 0
	for _, set := range []bool{opts.serve, opts.listTools, opts.writeCfg} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return nil, fmt.Errorf("-serve, -tools and -write-config are mutually exclusive")
	}
	opts.text = strings.Join(fs.Args(), " ")
	return opts, nil
}

func run(args []string) (err error) {
	opts, err := parseCLIArgs(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv()
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", opts.configPath, err)
	}
	if opts.writeCfg {
		if err := cfg.Save(opts.configPath); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", opts.configPath)
		return nil
	}

	if initErr := logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogPath); initErr != nil {
		return fmt.Errorf("failed to initialize logger: %w", initErr)
	}
	// Argument vectors and diagnostic streams carry headers and tokens.
	logger.Global().SetRedactor(secretdetect.NewDetector().RedactString)
	defer func() {
		if err != nil && !errors.Is(err, errProbeFailed) {
			logger.Error("Fatal error: %v", err)
		}
		if closeErr := logger.Global().Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close logger: %v\n", closeErr)
		}
	}()

	parser, ok := diagnostics.Lookup(cfg.DiagnosticsFormat)
	if !ok {
		return fmt.Errorf("unknown diagnostics format %q", cfg.DiagnosticsFormat)
	}
	pipeline := probe.NewPipeline(probe.WithParser(parser))
	registry := newRegistry(pipeline, cfg.MaxConcurrent)

	logger.Info("curlgate starting (diagnostics=%s, max_concurrent=%d)", parser.Name(), cfg.MaxConcurrent)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case opts.listTools:
		return writeOutput(os.Stdout, registry.ToJSONSchema(), opts.compact)
	case opts.serve:
		return serve(ctx, cfg, pipeline, registry)
	}

	text, err := readCommand(opts.text, os.Stdin, stdinIsTerminal)
	if err != nil {
		return err
	}

	resp := pipeline.Run(ctx, text)
	if err := writeOutput(os.Stdout, resp, opts.compact); err != nil {
		return err
	}
	if resp.Failed() {
		return errProbeFailed
	}
	return nil
}

func newRegistry(pipeline *probe.Pipeline, maxConcurrent int) *tools.Registry {
	registry := tools.NewRegistry()
	registry.RegisterSpec(&tools.CurlToolSpec{}, tools.NewCurlToolFactory(pipeline))
	registry.Register(tools.NewParallelCurlTool(pipeline, maxConcurrent))
	return registry
}

func serve(ctx context.Context, cfg *config.Config, pipeline *probe.Pipeline, registry *tools.Registry) error {
	pid := pidfile.New(cfg.PidPath)
	if err := pid.Acquire(); err != nil {
		return err
	}
	logger.Info("pid file %s", pid.Path())
	defer func() {
		if err := pid.Release(); err != nil {
			logger.Warn("%v", err)
		}
	}()

	srv := server.New(cfg.ListenAddr, pipeline, registry, cfg.MaxConcurrent)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	fmt.Fprintf(os.Stderr, "curlgate listening on %s\n", cfg.ListenAddr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return srv.Stop(context.Background())
	}
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// readCommand prefers argument text; otherwise it reads stdin, unless stdin
// is an interactive terminal nobody is going to type into.
func readCommand(argText string, stdin io.Reader, isTerminal func() bool) (string, error) {
	if strings.TrimSpace(argText) != "" {
		return argText, nil
	}
	if isTerminal() {
		return "", fmt.Errorf("no command given: pass it as arguments or pipe it on stdin")
	}

	data, err := io.ReadAll(io.LimitReader(stdin, consts.MaxRequestBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no command given on stdin")
	}
	return text, nil
}

func renderJSON(v interface{}, compact, color bool) ([]byte, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	if compact {
		return append(out, '\n'), nil
	}
	out = pretty.Pretty(out)
	if color {
		out = pretty.Color(out, nil)
	}
	return out, nil
}

func writeOutput(f *os.File, v interface{}, compact bool) error {
	out, err := renderJSON(v, compact, !compact && term.IsTerminal(int(f.Fd())))
	if err != nil {
		return err
	}
	_, err = f.Write(out)
	return err
}
