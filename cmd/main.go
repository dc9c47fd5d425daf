package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	commander.Register(&serveCmd{}, "server")
	commander.Register(&analyzeCmd{}, "reports")
	commander.Register(&sourcesCmd{}, "reports")
	commander.Register(&eventsCmd{}, "events")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
