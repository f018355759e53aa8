// Package main is the tangram command line tool. It filters and groups a
// submission snapshot file offline, the same way the dashboard does.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dukex/tangram/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	err := newApp().Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  "tangram",
		Usage:                 "Filter, group and move submissions in a snapshot file",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"))

			return log.ContextWithLogger(ctx, log.WithModule("cli")), nil
		},
		Commands: []*cli.Command{
			filterCommand(),
			boardCommand(),
			applyCommand(),
		},
	}
}
