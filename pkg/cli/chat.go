package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive chat over the corpus, streaming tokens as they arrive",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx, c)
			if err != nil {
				return err
			}

			session, err := cfg.newSession(ctx)
			if err != nil {
				return err
			}

			rl, err := readline.New("You: ")
			if err != nil {
				return goerr.Wrap(err, "failed to open terminal")
			}
			defer rl.Close()

			w := c.Root().Writer
			fmt.Fprintf(w, "Ask a question about the staff (type 'exit' to quit)\n\n")

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					continue
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				query := strings.TrimSpace(line)
				if query == "" {
					continue
				}
				switch strings.ToLower(query) {
				case "exit", "quit", "bye":
					fmt.Fprintf(w, "\nGoodbye!\n")
					return nil
				}

				fmt.Fprintf(w, "\nAssistant: ")

				// Tokens stream straight to the terminal; the returned text
				// is only needed when the query failed and nothing streamed.
				var streamed bool
				reply := session.AnswerStream(ctx, query, func(token string) {
					streamed = true
					fmt.Fprint(w, token)
				})
				if !streamed {
					fmt.Fprint(w, reply)
				}
				fmt.Fprintf(w, "\n\n")
			}

			return nil
		},
	}
}
