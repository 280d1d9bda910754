package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/coursehub/course-online-server/internal/client"
	"github.com/coursehub/course-online-server/internal/logger"
	"github.com/urfave/cli/v2"
)

var readPasswordFunc = readPassword // mockable

// consoleNavigator prints the view the user lands on.
type consoleNavigator struct {
	out io.Writer
}

func (n consoleNavigator) Navigate(_ context.Context, route string) error {
	_, err := fmt.Fprintf(n.out, "-> %s\n", route)
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	var session *client.Session

	return &cli.App{
		Name:      "coursectl",
		Usage:     "command line front end for the course server",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Usage:   "server base URL",
				Value:   "http://localhost:3000",
				EnvVars: []string{"COURSECTL_SERVER"},
			},
			&cli.StringFlag{
				Name:    "store",
				Usage:   "credential file (defaults to the user config dir)",
				EnvVars: []string{"COURSECTL_STORE"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
			},
		},
		Before: func(c *cli.Context) error {
			var store client.TokenStore
			if path := c.String("store"); path != "" {
				store = client.NewFileStore(path)
			} else {
				fs, err := client.DefaultFileStore()
				if err != nil {
					return err
				}
				store = fs
			}

			log := logger.Setup(c.String("log-level"), "pretty")
			session = client.NewSession(c.String("server"), store, consoleNavigator{out: out}, nil, log)
			_, err := session.Restore()
			return err
		},
		Commands: commands(func() *client.Session { return session }),
	}
}
