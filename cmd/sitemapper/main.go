package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/sitemapper"
	"github.com/fwojciec/sitemapper/crawl"
	smhttp "github.com/fwojciec/sitemapper/http"
	"github.com/fwojciec/sitemapper/rod"
	smslog "github.com/fwojciec/sitemapper/slog"
	"github.com/fwojciec/sitemapper/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Fetcher overrides the fetcher selected by flags. Set before calling
	// Run() for end-to-end testing.
	Fetcher sitemapper.Fetcher

	// SQLite database caching fetched documents, when --cache is set.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("sitemapper"),
		kong.Description("List every page a website advertises through its sitemaps"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'sitemapper --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Options, err = cli.ResolveOptions()
	if err != nil {
		return err
	}
	deps.JSON = cli.JSON

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	fetcher := m.Fetcher
	if fetcher == nil {
		fetcher, err = newFetcher(cli)
		if err != nil {
			return err
		}
		defer fetcher.Close()
	}

	if cli.Cache != "" {
		m.DB = sqlite.NewDB(cli.Cache)
		if err := m.DB.Open(); err != nil {
			return fmt.Errorf("failed to open cache at %q: %w", cli.Cache, err)
		}
		defer m.Close()
		cache := sqlite.NewCachingFetcher(fetcher, m.DB, cli.CacheTTL)
		if _, err := cache.Prune(ctx); err != nil {
			return err
		}
		fetcher = cache
	}

	resolver := &crawl.Resolver{
		MaxDecompressedLength: cli.MaxResponseLength,
	}
	if cli.Rate > 0 {
		resolver.RateLimiter = crawl.NewDomainLimiter(cli.Rate)
	}
	if cli.Verbose {
		fetcher = smslog.NewLoggingFetcher(fetcher, logger)
		resolver.Logf = func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		}
	}
	resolver.Fetcher = fetcher

	deps.Sitemaps = resolver
	if cli.Verbose {
		deps.Sitemaps = smslog.NewLoggingSitemapService(resolver, logger)
	}

	return kongCtx.Run(deps)
}

func newFetcher(cli *CLI) (sitemapper.Fetcher, error) {
	cfg := cli.FetchConfig()
	if !cli.Browser {
		return smhttp.NewFetcher(smhttp.WithConfig(cfg)), nil
	}

	f, err := rod.NewFetcher(rod.WithConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to start browser (Chrome or Chromium must be installed): %w", err)
	}
	return f, nil
}
