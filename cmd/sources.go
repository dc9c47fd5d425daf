package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"sentimenttracker/internal/adapters/config"
	"sentimenttracker/internal/domain/sentiment"
)

type sourcesCmd struct{}

func (*sourcesCmd) Name() string     { return "sources" }
func (*sourcesCmd) Synopsis() string { return "show which sources have credentials" }
func (*sourcesCmd) Usage() string {
	return `sources

  Lists every source and credential set, without printing secret values.
`
}

func (*sourcesCmd) SetFlags(*flag.FlagSet) {}

func (*sourcesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(sourcesMarkdown(cfg.Credentials))
	return subcommands.ExitSuccess
}

func sourcesMarkdown(creds config.Credentials) string {
	var b strings.Builder
	b.WriteString("# Sources\n\n| Source | State |\n|---|---|\n")
	for _, src := range sentiment.AllSources() {
		state := "missing credentials"
		if creds.Ready(src) {
			state = "ready"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", src.DisplayName(), state)
	}

	b.WriteString("\n# Credentials\n\n| Key | Configured |\n|---|---|\n")
	for _, k := range creds.Status() {
		mark := "no"
		if k.Configured {
			mark = "yes"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", k.Name, mark)
	}
	return b.String()
}
