package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ringo380/pgadvisor/internal/core/port"
	"github.com/ringo380/pgadvisor/internal/core/service"
	"go.opentelemetry.io/otel/trace"
)

// NewServer creates an MCPServer exposing the advisor as tools, with
// logging hooks.
func NewServer(version string, advisor *service.Advisor, maxCreate int, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithHooks(ToolCallHooks(logger, tracer, inst)),
	)

	RegisterTools(s, advisor, maxCreate)

	return s
}
