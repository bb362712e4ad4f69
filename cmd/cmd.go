package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/urfave/cli/v2"

	"github.com/webitel/webpush-connection-engine/config"
	"github.com/webitel/webpush-connection-engine/internal/monitor"
)

const (
	ServiceName      = "webpush-connection-engine"
	ServiceNamespace = "webitel"
)

var (
	version        = "0.0.0"
	commit         = "hash"
	commitDate     = time.Now().String()
	branch         = "branch"
	buildTimestamp = ""
)

func Run() error {
	app := &cli.App{
		Name:  ServiceName,
		Usage: "WebPush connection engine for Webitel",
		Commands: []*cli.Command{
			serverCmd(),
			monitorCmd(),
		},
	}

	return app.Run(os.Args)
}

func serverCmd() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Run the websocket connection engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config_file",
				Usage: "Path to the configuration file",
			},
		},
		Action: func(c *cli.Context) error {
			flags := pflag.NewFlagSet("server", pflag.ContinueOnError)
			_, cfg, err := config.Load(c.String("config_file"), flags)
			if err != nil {
				return err
			}

			app := NewApp(cfg)
			if err := app.Start(c.Context); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			slog.Info("shutting down...")
			return app.Stop(context.Background())
		},
	}
}

func monitorCmd() *cli.Command {
	return &cli.Command{
		Name:  "monitor",
		Usage: "Run the terminal dashboard against a running instance's /stats endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "stats_url",
				Usage: "URL of the /stats endpoint to poll",
				Value: "http://localhost:8080/stats",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "poll interval",
				Value: time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			return monitor.Run(c.Context, c.String("stats_url"), c.Duration("interval"))
		},
	}
}
