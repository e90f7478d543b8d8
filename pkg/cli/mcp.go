package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v3"

	"staffrag/pkg/service/mcp"
)

func mcpCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the pipeline as MCP tools over stdio",
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

			server := mcp.New(session)
			if err := server.Run(ctx, &mcpsdk.StdioTransport{}); err != nil {
				return goerr.Wrap(err, "failed to run MCP server")
			}
			return nil
		},
	}
}
