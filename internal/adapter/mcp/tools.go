package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ringo380/pgadvisor/internal/core/service"
)

// Server metadata
const serverName = "pgadvisor"

// Tool descriptions
const (
	descAdviseIndexes = "Analyze the database workload (pg_stat_statements) against catalog metadata and " +
		"return a ranked list of index candidates. Nothing is created; each candidate carries its " +
		"table, columns, priority score, reasoning, and estimated benefit. " +
		"Call this first to see what the advisor would do."

	descCreateIndexes = "Analyze the workload, then build the top-ranked index candidates with " +
		"CREATE INDEX CONCURRENTLY, strictly one at a time. Returns a per-candidate outcome " +
		"(CREATED, ALREADY_EXISTS, or FAILED with the error). Safe to re-run: candidates whose " +
		"generated name already exists are skipped. Index builds can take minutes on large tables."

	descCreateIndexesMax = "Maximum number of indexes to create in this run. Defaults to the server's configured cap."

	descIndexUsage = "Read live scan statistics for every index in the analyzed schemas and classify each as " +
		"UNUSED, LOW_USAGE, LOW_SELECTIVITY, or GOOD, with an advisory note. " +
		"Use this after indexes have been in place for a while to see whether they earn their keep. " +
		"The advisor never drops indexes; act on the notes yourself."
)

func RegisterTools(s *server.MCPServer, advisor *service.Advisor, maxCreate int) {
	s.AddTool(
		mcp.NewTool("advise_indexes",
			mcp.WithDescription(descAdviseIndexes),
		),
		adviseIndexesHandler(advisor),
	)

	s.AddTool(
		mcp.NewTool("create_indexes",
			mcp.WithDescription(descCreateIndexes),
			mcp.WithNumber("max",
				mcp.Description(descCreateIndexesMax),
			),
		),
		createIndexesHandler(advisor, maxCreate),
	)

	s.AddTool(
		mcp.NewTool("index_usage",
			mcp.WithDescription(descIndexUsage),
		),
		indexUsageHandler(advisor),
	)
}

func adviseIndexesHandler(advisor *service.Advisor) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		candidates, err := advisor.Analyze(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
		}

		data, err := json.Marshal(candidates)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

func createIndexesHandler(advisor *service.Advisor, maxCreate int) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		max := maxCreate
		if v, ok := request.GetArguments()["max"].(float64); ok && int(v) > 0 {
			max = int(v)
		}

		report, err := advisor.Run(ctx, service.RunOptions{Create: true, MaxCreate: max})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("creation run failed: %v", err)), nil
		}

		data, err := json.Marshal(report)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

func indexUsageHandler(advisor *service.Advisor) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		records, err := advisor.MonitorEffectiveness(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read index usage: %v", err)), nil
		}

		data, err := json.Marshal(records)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}
