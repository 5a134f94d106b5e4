package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Serve    ServeCmd         `cmd:"" help:"Run a chat-driven table for a stream"`
	Play     PlayCmd          `cmd:"" help:"Play a table locally in the terminal"`
	Simulate SimulateCmd      `cmd:"" help:"Simulate many rounds and report outcomes"`
	Config   ConfigCmd        `cmd:"" help:"Work with configuration files"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("chatjack"),
		kong.Description("Blackjack played by Twitch chat"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
