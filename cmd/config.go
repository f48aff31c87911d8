package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/taskchat/internal/config"
)

// ConfigCommand manages the configuration file.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a sample configuration file",
				Action: func(c *cli.Context) error {
					path := c.String("config")
					if path == "" {
						path = "taskchat.toml"
					}
					if err := config.InitConfig(path); err != nil {
						return err
					}
					fmt.Printf("Wrote sample configuration to %s\n", path)
					return nil
				},
			},
			{
				Name:  "check",
				Usage: "Load and validate the configuration",
				Action: func(c *cli.Context) error {
					cfg, err := config.LoadConfig(c.String("config"))
					if err != nil {
						return err
					}
					if err := config.Validate(cfg); err != nil {
						return err
					}
					fmt.Println("Configuration is valid")
					return nil
				},
			},
		},
	}
}
