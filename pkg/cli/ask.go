package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/urfave/cli/v3"
)

func askCommand() *cli.Command {
	var (
		cfg   config
		query string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Question to answer",
			Sources:     cli.EnvVars("STAFFRAG_QUERY"),
			Destination: &query,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "ask",
		Usage: "Answer a single question and exit",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx, c)
			if err != nil {
				return err
			}

			session, err := cfg.newSession(ctx)
			if err != nil {
				return err
			}

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
				spinner.WithWriter(os.Stderr))
			sp.Suffix = " generating..."
			sp.Start()
			reply := session.Answer(ctx, query)
			sp.Stop()

			fmt.Fprintf(c.Root().Writer, "%s\n", reply)
			return nil
		},
	}
}
