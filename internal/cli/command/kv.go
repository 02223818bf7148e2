package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/goresp/internal/core/domain"
	rcmd "github.com/yndnr/goresp/internal/redis/command"
)

// PingCommand returns the ping command.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:      "ping",
		Usage:     "Check the connection; with a message, echo it",
		ArgsUsage: "[message]",
		Action: func(c *cli.Context) error {
			rc, err := connect(c)
			if err != nil {
				return err
			}
			if c.NArg() > 0 {
				msg, err := rc.Connection.Echo(c.Args().First())
				if err != nil {
					return err
				}
				return render(c, []byte(msg))
			}
			pong, err := rc.Connection.Ping()
			if err != nil {
				return err
			}
			return render(c, pong)
		},
	}
}

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print the value of a key",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return usageError(c, "expects exactly one key")
			}
			rc, err := connect(c)
			if err != nil {
				return err
			}
			v, err := rc.String.Get(c.Args().First())
			if err != nil {
				return err
			}
			return render(c, v)
		},
	}
}

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Store a value",
		ArgsUsage: "<key> <value>",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "ex",
				Usage: "expire after this long (whole seconds use EX, otherwise PX)",
			},
			&cli.BoolFlag{
				Name:  "nx",
				Usage: "only set the key if it does not exist",
			},
			&cli.BoolFlag{
				Name:  "xx",
				Usage: "only set the key if it already exists",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return usageError(c, "expects a key and a value")
			}
			opts := rcmd.SetOptions{Expiry: c.Duration("ex")}
			switch {
			case c.Bool("nx") && c.Bool("xx"):
				return domain.InvalidArgument("condition", "--nx and --xx are mutually exclusive")
			case c.Bool("nx"):
				opts.Condition = domain.SetIfNotExists
			case c.Bool("xx"):
				opts.Condition = domain.SetIfExists
			}

			rc, err := connect(c)
			if err != nil {
				return err
			}
			stored, err := rc.String.Set(c.Args().Get(0), []byte(c.Args().Get(1)), opts)
			if err != nil {
				return err
			}
			if !stored {
				return render(c, nil)
			}
			return render(c, "OK")
		},
	}
}

// DelCommand returns the del command.
func DelCommand() *cli.Command {
	return &cli.Command{
		Name:      "del",
		Usage:     "Delete keys and print how many existed",
		ArgsUsage: "<key> [key...]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return usageError(c, "expects at least one key")
			}
			rc, err := connect(c)
			if err != nil {
				return err
			}
			n, err := rc.Key.Del(c.Args().Slice()...)
			if err != nil {
				return err
			}
			return render(c, n)
		},
	}
}

// IncrCommand returns the incr command.
func IncrCommand() *cli.Command {
	return &cli.Command{
		Name:      "incr",
		Usage:     "Increment an integer key",
		ArgsUsage: "<key>",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "by",
				Usage: "increment",
				Value: 1,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return usageError(c, "expects exactly one key")
			}
			rc, err := connect(c)
			if err != nil {
				return err
			}
			key := c.Args().First()

			var n int64
			if by := c.Int64("by"); by == 1 {
				n, err = rc.Number.Incr(key)
			} else {
				n, err = rc.Number.IncrBy(key, by)
			}
			if err != nil {
				return err
			}
			return render(c, n)
		},
	}
}

func usageError(c *cli.Context, msg string) error {
	return fmt.Errorf("%s: %s (usage: %s %s)", c.Command.Name, msg, c.Command.Name, c.Command.ArgsUsage)
}
