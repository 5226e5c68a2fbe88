package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/feedparser/pkg/config"
	"github.com/umputun/feedparser/pkg/domain"
	"github.com/umputun/feedparser/pkg/fetch"
	"github.com/umputun/feedparser/pkg/parser"
	"github.com/umputun/feedparser/pkg/sanitize"
)

// Opts with all CLI options
type Opts struct {
	Config      string        `short:"c" long:"config" env:"FP_CONFIG" description:"config file (yml)"`
	Pretty      bool          `short:"p" long:"pretty" description:"indent JSON output"`
	Detect      bool          `short:"d" long:"detect" description:"detect feed format only, no full parse"`
	NoSanitize  bool          `long:"no-sanitize" description:"keep HTML fields as found in the feed"`
	Timeout     time.Duration `short:"t" long:"timeout" env:"FP_TIMEOUT" description:"fetch timeout, overrides config"`
	Concurrency int           `long:"concurrency" env:"FP_CONCURRENCY" description:"feeds processed in parallel, overrides config"`
	Verbose     bool          `short:"v" long:"verbose" description:"verbose mode"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

// output is one line of the result stream: the parsed feed or the failure,
// keyed by the source it came from.
type output struct {
	Source string             `json:"source"`
	Format string             `json:"format,omitempty"`
	Feed   *domain.ParsedFeed `json:"feed,omitempty"`
	Error  string             `json:"error,omitempty"`
}

func main() {
	var opts Opts
	p := flags.NewParser(&opts, flags.Default)
	p.Usage = "[OPTIONS] SOURCE..."
	sources, err := p.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}
	if opts.NoColor {
		color.NoColor = true
	}

	setupLog(opts.Debug)

	if len(sources) == 0 {
		log.Printf("[ERROR] no feed sources given, provide file paths or URLs")
		os.Exit(1)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	results, err := run(ctx, cfg, opts, sources)
	cancel()
	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}

	if err := writeResults(os.Stdout, results, cfg.Output.Pretty || opts.Pretty); err != nil {
		log.Printf("[ERROR] write results: %v", err)
		os.Exit(1)
	}

	for _, r := range results {
		if r.Error != "" {
			os.Exit(2) // partial failure, output still written
		}
	}
}

// run processes all sources concurrently and returns results in input order.
func run(ctx context.Context, cfg *config.Config, opts Opts, sources []string) ([]output, error) {
	fetcher := fetch.New(cfg.Fetch)
	results := make([]output, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for i, src := range sources {
		g.Go(func() error {
			results[i] = processSource(gctx, cfg, opts, fetcher, src)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("process sources: %w", err)
	}
	return results, nil
}

func processSource(ctx context.Context, cfg *config.Config, opts Opts, fetcher *fetch.Fetcher, src string) output {
	out := output{Source: src}

	data, ctype, err := readSource(ctx, fetcher, src)
	if err != nil {
		log.Printf("[WARN] failed to read %s: %v", src, err)
		out.Error = err.Error()
		return out
	}

	if opts.Detect {
		out.Format = parser.DetectFormat(data).String()
		log.Printf("[DEBUG] detected %s as %q", src, out.Format)
		return out
	}

	feed, err := parser.ParseResponse(data, ctype, cfg.Limits)
	if err != nil {
		log.Printf("[WARN] failed to parse %s: %v", src, err)
		out.Error = err.Error()
		return out
	}
	if feed.Bozo {
		log.Printf("[WARN] %s parsed with defects: %s", src, feed.BozoException)
	}

	if cfg.Sanitize.Enabled && !opts.NoSanitize {
		san := sanitize.New()
		if cfg.Sanitize.Strict {
			san = sanitize.NewStrict()
		}
		san.Feed(feed)
	}

	out.Format = feed.Version.String()
	out.Feed = feed
	log.Printf("[INFO] parsed %s: format=%s entries=%d bozo=%v", src, out.Format, len(feed.Entries), feed.Bozo)
	return out
}

// readSource loads feed bytes from a URL or a local file. For URLs the
// response Content-Type is returned alongside the body as a charset hint.
func readSource(ctx context.Context, fetcher *fetch.Fetcher, src string) ([]byte, string, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		res, err := fetcher.Fetch(ctx, src, fetch.Conditional{})
		if err != nil {
			return nil, "", fmt.Errorf("fetch %s: %w", src, err)
		}
		return res.Body, res.ContentType, nil
	}

	data, err := os.ReadFile(src) //nolint:gosec // source path comes from CLI args
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", src, err)
	}
	return data, "", nil
}

func writeResults(w *os.File, results []output, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// loadConfig builds the effective configuration: file if given, defaults
// otherwise, CLI overrides on top.
func loadConfig(opts Opts) (*config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if opts.Timeout > 0 {
		cfg.Fetch.Timeout = opts.Timeout
	}
	if opts.Concurrency > 0 {
		cfg.Concurrency = opts.Concurrency
	}
	return cfg, nil
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Out(os.Stderr), lgr.Err(os.Stderr)}
	if dbg {
		logOpts = append(logOpts, lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError)
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
