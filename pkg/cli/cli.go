package cli

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"staffrag/pkg/utils/logging"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	// .env is optional; env vars feed the flag sources below.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "staffrag",
		Usage: "Question answering over employee records with local models",
		Commands: []*cli.Command{
			chatCommand(),
			askCommand(),
			searchCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.Default().Error("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
