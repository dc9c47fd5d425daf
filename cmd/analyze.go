package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"sentimenttracker/internal/api"
	"sentimenttracker/internal/bootstrap"
	"sentimenttracker/internal/render"
	"sentimenttracker/internal/services/tracker"
	"sentimenttracker/pkg/errors"
)

// analyzeCmd runs one tracker pass and prints the report
type analyzeCmd struct {
	company string
	limit   int
	sources string
	topics  int
	refresh bool
	asJSON  bool
	raw     bool
}

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "score recent social posts about a ticker" }
func (*analyzeCmd) Usage() string {
	return `analyze [-company <name>] [-limit <n>] [-sources x,reddit,...] [-topics <k>] [-json] <ticker>

  Collects posts from every requested source, scores them and prints a
  markdown report. Sources without credentials are reported unavailable.
`
}

func (c *analyzeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.company, "company", "", "Company name used to widen search queries")
	f.IntVar(&c.limit, "limit", 0, "Posts per source; 0 uses each source's default")
	f.StringVar(&c.sources, "sources", "", "Comma separated sources (x, reddit, youtube, finnhub, stocktwits); empty means all")
	f.IntVar(&c.topics, "topics", 0, "Number of topics to extract; 0 uses TOPIC_COUNT")
	f.BoolVar(&c.refresh, "refresh", false, "Bypass the report cache")
	f.BoolVar(&c.asJSON, "json", false, "Print the report as JSON")
	f.BoolVar(&c.raw, "raw", false, "Print markdown without terminal styling")
}

func (c *analyzeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "analyze expects exactly one ticker")
		f.Usage()
		return subcommands.ExitUsageError
	}

	req := tracker.Request{
		Ticker:      f.Arg(0),
		CompanyName: c.company,
		Limit:       c.limit,
		TopicCount:  c.topics,
		Refresh:     c.refresh,
	}
	if c.sources != "" {
		srcs, err := api.ParseSources(c.sources)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		req.Sources = srcs
	}

	container := bootstrap.NewContainer()
	container.MustInitPipeline()
	defer container.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := container.Services.Tracker.Run(ctx, req)
	if errors.Is(err, errors.ErrInvalidInput) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running analysis: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	md, err := render.MarkdownString(report, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering report: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.raw {
		fmt.Print(md)
	} else {
		printMarkdown(md)
	}
	return subcommands.ExitSuccess
}
