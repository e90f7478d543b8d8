// Package mcp exposes the question-answering pipeline as MCP tools, so an
// MCP-capable client can ask questions and inspect retrieval over stdio.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"staffrag/pkg/usecase/chat"
)

type askParams struct {
	Query string `json:"query" jsonschema:"The question to answer using the staff records"`
}

type searchParams struct {
	Query string `json:"query" jsonschema:"The query to find matching staff records for"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of records to return (optional)"`
}

// New builds an MCP server backed by the given session. Failures follow the
// same policy as the other surfaces: they come back as plain-text
// diagnostics, not protocol errors.
func New(session *chat.Session) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "staffrag",
		Version: "0.1.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_staff",
		Description: "Answer a question about employees using the indexed staff records",
	}, func(ctx context.Context, req *mcp.CallToolRequest, params *askParams) (*mcp.CallToolResult, any, error) {
		if params.Query == "" {
			return nil, nil, fmt.Errorf("query is required")
		}

		return textResult(session.Answer(ctx, params.Query)), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_staff",
		Description: "Return the staff records most similar to a query, nearest first",
	}, func(ctx context.Context, req *mcp.CallToolRequest, params *searchParams) (*mcp.CallToolResult, any, error) {
		if params.Query == "" {
			return nil, nil, fmt.Errorf("query is required")
		}

		retrievals, err := session.Retrieve(ctx, params.Query)
		if err != nil {
			return textResult(chat.Diagnostic(err)), nil, nil
		}
		if params.Limit > 0 && params.Limit < len(retrievals) {
			retrievals = retrievals[:params.Limit]
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Found %d records:\n", len(retrievals))
		for i, r := range retrievals {
			fmt.Fprintf(&b, "%d. (distance=%.4f) %s\n", i+1, r.Distance, r.Document.Text)
		}
		return textResult(b.String()), nil, nil
	})

	return server
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
