package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/goresp/internal/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect the effective configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the merged configuration with secrets masked",
				Action: configShow,
			},
			{
				Name:      "validate",
				Usage:     "Check a config file without connecting",
				ArgsUsage: "<file>",
				Action:    configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	mgr, err := manager(c)
	if err != nil {
		return err
	}
	return render(c, config.Sanitize(mgr.Config()))
}

func configValidate(c *cli.Context) error {
	if c.NArg() != 1 {
		return usageError(c, "expects one file")
	}
	if _, err := config.Load(c.Args().First(), nil); err != nil {
		return err
	}
	return render(c, "OK")
}
