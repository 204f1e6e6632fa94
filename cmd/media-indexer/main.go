package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"media-indexer/internal/logging"
	"media-indexer/internal/startup"
)

// CLI defines the command-line interface.
type CLI struct {
	Index   IndexCmd   `cmd:"" default:"1" help:"Run one indexing pass and exit."`
	Serve   ServeCmd   `cmd:"" help:"Index in the background and serve health and metrics endpoints."`
	Version VersionCmd `cmd:"" help:"Show version information."`

	EnvFile  []string `name:"env-file" help:"Environment files to load before reading configuration." default:".env"`
	LogLevel string   `help:"Log level (debug, info, warn, error). Overrides LOG_LEVEL."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := startup.GetBuildInfo()
	fmt.Printf("media-indexer %s (commit %s, built %s, %s %s/%s)\n",
		info.Version, info.Commit, info.BuildTime, info.GoVersion, info.OS, info.Arch)
	return nil
}

// applyGlobals loads env files and applies the log level flag. It runs
// before any command so LOG_LEVEL from a .env file takes effect.
func (cli *CLI) applyGlobals() error {
	if err := startup.LoadDotEnv(cli.EnvFile...); err != nil {
		return err
	}
	if cli.LogLevel != "" {
		logging.SetLevel(logging.ParseLevel(cli.LogLevel))
	} else if level := os.Getenv("LOG_LEVEL"); level != "" {
		logging.SetLevel(logging.ParseLevel(level))
	}
	return nil
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("media-indexer"),
		kong.Description("Incremental photo and video indexer with preview generation."),
		kong.UsageOnError(),
	)

	if err := cli.applyGlobals(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load environment: %v\n", err)
		os.Exit(1)
	}

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
