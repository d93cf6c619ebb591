package main

import (
	"fmt"
	"io"
	"os"

	"trimlcov/internal/config"
	"trimlcov/internal/lcov"
	"trimlcov/internal/model"
	"trimlcov/internal/observability"
	"trimlcov/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const (
	exitOK    = 0
	exitFault = 1
	exitUsage = 2
)

func main() {
	logger, err := observability.NewLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(exitFault)
	}

	code := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, logger)
	_ = logger.Sync()
	os.Exit(code)
}

type options struct {
	configPath  string
	inputPath   string
	outputPath  string
	statsFormat string
	metricsPath string
	stats       bool
	verbose     bool
	browse      bool
}

func newFlagSet(stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("trimlcov", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: trimlcov [options] < in.info > out.info\n\n")
		fmt.Fprintf(stderr, "trimlcov removes LCOV line and branch coverage records whose source line\n")
		fmt.Fprintf(stderr, "contains a suppression keyword (assertion macros and the like).\n")
		fmt.Fprintf(stderr, "Any malformed input aborts the run with a non-zero exit status.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  trimlcov < coverage.info > trimmed.info\n")
		fmt.Fprintf(stderr, "  trimlcov -i coverage.info -o trimmed.info --stats\n")
		fmt.Fprintf(stderr, "  trimlcov --branch-suppress g_assert,g_return_if_fail < coverage.info\n")
		fmt.Fprintf(stderr, "  trimlcov --browse -i coverage.info\n")
	}

	fs.StringP("config", "c", "", "YAML file with suppress.line and suppress.branch keyword lists")
	fs.StringP("input", "i", "", "Read the tracefile from this file instead of stdin")
	fs.StringP("output", "o", "", "Write the filtered tracefile to this file instead of stdout")
	fs.StringSlice("line-suppress", nil, "Keywords that suppress DA records (replaces the default set)")
	fs.StringSlice("branch-suppress", nil, "Keywords that suppress BRDA records (replaces the default set)")
	fs.BoolP("stats", "s", false, "Print a summary of the run to stderr")
	fs.String("stats-format", "text", "Summary format: text or json")
	fs.BoolP("verbose", "v", false, "List every suppressed record in the summary")
	fs.String("metrics-file", "", "Write Prometheus counters to this file (textfile collector format)")
	fs.BoolP("browse", "b", false, "Browse suppressed records interactively instead of writing output")
	fs.BoolP("version", "V", false, "Print version information")
	fs.BoolP("help", "h", false, "Show this help message")
	return fs
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, logger *zap.Logger) int {
	fs := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if help, _ := fs.GetBool("help"); help {
		fs.Usage()
		return exitOK
	}
	if version, _ := fs.GetBool("version"); version {
		fmt.Fprintf(stdout, "trimlcov version %s\n", model.Version)
		return exitOK
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return exitUsage
	}

	opts := options{}
	opts.configPath, _ = fs.GetString("config")
	opts.inputPath, _ = fs.GetString("input")
	opts.outputPath, _ = fs.GetString("output")
	opts.statsFormat, _ = fs.GetString("stats-format")
	opts.metricsPath, _ = fs.GetString("metrics-file")
	opts.stats, _ = fs.GetBool("stats")
	opts.verbose, _ = fs.GetBool("verbose")
	opts.browse, _ = fs.GetBool("browse")

	if opts.statsFormat != "text" && opts.statsFormat != "json" {
		fmt.Fprintf(stderr, "invalid --stats-format %q: want text or json\n", opts.statsFormat)
		return exitUsage
	}
	if opts.browse && (opts.outputPath != "" || opts.stats || opts.metricsPath != "") {
		fmt.Fprintf(stderr, "--browse cannot be combined with --output, --stats or --metrics-file\n")
		return exitUsage
	}

	cfg, err := loadConfig(fs, opts.configPath)
	if err != nil {
		logger.Error("config", zap.Error(err))
		return exitUsage
	}

	var in io.Reader = stdin
	if opts.inputPath != "" {
		f, err := os.Open(opts.inputPath)
		if err != nil {
			logger.Error("open input", zap.Error(err))
			return exitFault
		}
		defer f.Close()
		in = f
	}

	metrics := observability.NewMetrics()
	filter := lcov.NewFilter(lcov.Options{
		LineKeywords:   cfg.LineKeywords,
		BranchKeywords: cfg.BranchKeywords,
		Observer:       metrics,
		Logger:         logger,
	})

	if opts.browse {
		return runBrowseMode(filter, in, logger)
	}

	return runFilterMode(filter, metrics, in, stdout, stderr, opts, logger)
}

// loadConfig merges defaults, the config file and keyword flags, in that
// order of increasing precedence.
func loadConfig(fs *pflag.FlagSet, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if fs.Changed("line-suppress") {
		kws, _ := fs.GetStringSlice("line-suppress")
		cfg.LineKeywords = lcov.KeywordSet(kws)
	}
	if fs.Changed("branch-suppress") {
		kws, _ := fs.GetStringSlice("branch-suppress")
		cfg.BranchKeywords = lcov.KeywordSet(kws)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runFilterMode(filter *lcov.Filter, metrics *observability.Metrics, in io.Reader, stdout, stderr io.Writer, opts options, logger *zap.Logger) int {
	var out io.Writer = stdout
	var outFile *os.File
	if opts.outputPath != "" {
		f, err := os.Create(opts.outputPath)
		if err != nil {
			logger.Error("create output", zap.Error(err))
			return exitFault
		}
		outFile = f
		out = f
	}

	summary, runErr := filter.Run(in, out)
	if outFile != nil {
		if err := outFile.Close(); err != nil && runErr == nil {
			runErr = fmt.Errorf("%w: %w", lcov.ErrWrite, err)
		}
	}

	if opts.metricsPath != "" {
		if err := metrics.WriteTextfile(opts.metricsPath); err != nil {
			logger.Warn("write metrics file", zap.String("path", opts.metricsPath), zap.Error(err))
		}
	}

	if runErr != nil {
		logger.Error("filter failed", zap.Error(runErr))
		return exitFault
	}

	if opts.stats {
		if err := writeStats(stderr, summary, opts); err != nil {
			logger.Error("write stats", zap.Error(err))
			return exitFault
		}
	}
	return exitOK
}

func writeStats(w io.Writer, summary model.Summary, opts options) error {
	if opts.statsFormat == "json" {
		data, err := lcov.GenerateJSONReport(summary, opts.verbose)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}
	_, err := io.WriteString(w, lcov.GenerateReport(summary, opts.verbose))
	return err
}

func runBrowseMode(filter *lcov.Filter, in io.Reader, logger *zap.Logger) int {
	m := tui.InitialModel(func() (model.Summary, error) {
		return filter.Run(in, io.Discard)
	})
	// Keyboard comes from the terminal; stdin may carry the tracefile.
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithInputTTY())
	final, err := p.Run()
	if err != nil {
		logger.Error("browser", zap.Error(err))
		return exitFault
	}
	if fm, ok := final.(tui.AppModel); ok && fm.Err != nil {
		logger.Error("filter failed", zap.Error(fm.Err))
		return exitFault
	}
	return exitOK
}
