package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/taskchat/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "taskchat",
		Usage:   "Task management API with an AI chat assistant",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				Value:   "taskchat.toml",
			},
		},
		Commands: []*cli.Command{
			cmd.ServeCommand(),
			cmd.MigrateCommand(),
			cmd.ConfigCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
