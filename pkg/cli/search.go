package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"staffrag/pkg/usecase/chat"
)

func searchCommand() *cli.Command {
	var (
		cfg   config
		query string
		limit int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Query to find matching documents for",
			Sources:     cli.EnvVars("STAFFRAG_QUERY"),
			Destination: &query,
			Required:    true,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"l"},
			Usage:       "Maximum number of documents to show",
			Value:       5,
			Sources:     cli.EnvVars("STAFFRAG_SEARCH_LIMIT"),
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "search",
		Usage: "Show the documents nearest to a query, without generating an answer",
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

			w := c.Root().Writer
			retrievals, err := session.Retrieve(ctx, query)
			if err != nil {
				fmt.Fprintf(w, "%s\n", chat.Diagnostic(err))
				return nil
			}
			if limit > 0 && int(limit) < len(retrievals) {
				retrievals = retrievals[:limit]
			}

			fmt.Fprintf(w, "Query: %s\n\n", query)
			for i, r := range retrievals {
				fmt.Fprintf(w, "%d. (distance=%.4f) %s\n\n", i+1, r.Distance, r.Document.Text)
			}
			return nil
		},
	}
}
