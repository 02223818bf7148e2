package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/goresp/internal/cli/connection"
	"github.com/yndnr/goresp/internal/cli/output"
	"github.com/yndnr/goresp/internal/config"
	"github.com/yndnr/goresp/internal/infra/buildinfo"
	rcmd "github.com/yndnr/goresp/internal/redis/command"
	"github.com/yndnr/goresp/internal/telemetry/logger"
	"github.com/yndnr/goresp/internal/telemetry/metric"
)

const (
	metaManager = "goresp.manager"
	metaFormat  = "goresp.format"
)

// closeTimeout bounds the pool shutdown in the After hook.
const closeTimeout = 5 * time.Second

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "goresp-cli",
		Usage:                "Redis command-line client",
		UsageText:            "goresp-cli [global options] command [arguments...]\n   goresp-cli [global options] REDIS-COMMAND [arguments...]",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			PingCommand(),
			GetCommand(),
			SetCommand(),
			DelCommand(),
			IncrCommand(),
			PublishCommand(),
			SubscribeCommand(),
			ExecCommand(),
			PipelineCommand(),
			BenchCommand(),
			ReplCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: setup,
		After:  teardown,
		Action: rawAction,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML config file",
			EnvVars: []string{"GORESP_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "host",
			Aliases: []string{"H"},
			Usage:   "server host",
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "server port",
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"a"},
			Usage:   "password sent with AUTH after connecting",
		},
		&cli.IntFlag{
			Name:    "db",
			Aliases: []string{"n"},
			Usage:   "database number",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
			Value:   "table",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "serve Prometheus metrics on this address during subscribe and bench",
		},
	}
}

// overrides maps the global flags that were given to config keys.
func overrides(c *cli.Context) map[string]any {
	o := make(map[string]any)
	for flag, key := range map[string]string{
		"host":         "redis.host",
		"password":     "redis.password",
		"log-level":    "log.level",
		"metrics-addr": "metrics.addr",
	} {
		if c.IsSet(flag) {
			o[key] = c.String(flag)
		}
	}
	for flag, key := range map[string]string{
		"port": "redis.port",
		"db":   "redis.db",
	} {
		if c.IsSet(flag) {
			o[key] = c.Int(flag)
		}
	}
	return o
}

func setup(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}

	cfg, err := config.Load(c.String("config"), overrides(c))
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	c.App.Metadata[metaFormat] = format
	c.App.Metadata[metaManager] = connection.NewManager(cfg, log, metric.NewRegistry())
	log.Debug("cli ready", "endpoint", cfg.Endpoint().Addr(), "db", cfg.Redis.DB)
	return nil
}

func teardown(c *cli.Context) error {
	mgr, ok := c.App.Metadata[metaManager].(*connection.Manager)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return mgr.Close(ctx)
}

func manager(c *cli.Context) (*connection.Manager, error) {
	if mgr, ok := c.App.Metadata[metaManager].(*connection.Manager); ok {
		return mgr, nil
	}
	return nil, fmt.Errorf("connection manager not initialized")
}

// connect returns the shared client of this invocation.
func connect(c *cli.Context) (*rcmd.Context, error) {
	mgr, err := manager(c)
	if err != nil {
		return nil, err
	}
	return mgr.Connect(c.Context)
}

func format(c *cli.Context) output.Format {
	if f, ok := c.App.Metadata[metaFormat].(output.Format); ok {
		return f
	}
	return output.FormatTable
}

// render writes data to the app's writer in the selected format.
func render(c *cli.Context, data any) error {
	return output.NewFormatter(format(c)).Format(c.App.Writer, data)
}

// rawAction sends the arguments as one command, or starts the REPL when
// there are none.
func rawAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return runREPL(c)
	}
	return execArgs(c, c.Args().Slice())
}
