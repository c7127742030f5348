package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/jorenvanhee/joren.co/cmd/joren/commands"
	"github.com/jorenvanhee/joren.co/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("joren"),
		kong.Description("Static site generator for joren.co."),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("joren %s (commit %s, built %s)", version.Version, version.GitCommit, version.BuildTime)},
	)
	ctx.FatalIfErrorf(ctx.Run(&cli))
}
