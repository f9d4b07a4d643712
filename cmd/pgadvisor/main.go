package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ringo380/pgadvisor/internal/adapter/mcp"
	"github.com/ringo380/pgadvisor/internal/adapter/patterns"
	"github.com/ringo380/pgadvisor/internal/adapter/postgres"
	"github.com/ringo380/pgadvisor/internal/audit"
	"github.com/ringo380/pgadvisor/internal/config"
	"github.com/ringo380/pgadvisor/internal/core/domain"
	"github.com/ringo380/pgadvisor/internal/core/port"
	"github.com/ringo380/pgadvisor/internal/core/service"
	"github.com/ringo380/pgadvisor/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var version = "dev"

const usageText = `Usage: pgadvisor <command> [flags]

Commands:
  analyze      sample the workload and print ranked index suggestions
  report-only  analyze plus effectiveness stats for existing indexes
  create       analyze, create the top suggestions, and report results
  mcp          serve the advisor as MCP tools over stdio

Run "pgadvisor <command> -h" for command flags.
`

// exitError carries an explicit process exit code out of run.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usageText)
		return exitError{code: 2}
	}

	command := args[0]
	switch command {
	case "analyze", "report-only", "create", "mcp":
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usageText)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usageText)
		return exitError{code: 2}
	}

	overrides, err := parseFlags(command, args[1:])
	if err != nil {
		return err
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Logs go to stderr: stdout carries the JSON report, or the MCP
	// stdio transport when serving.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	logger.Info("starting pgadvisor",
		slog.String("version", version),
		slog.String("command", command),
		slog.Any("schemas", cfg.Schemas),
		slog.String("extractor", cfg.Extractor),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracer := telemetry.NoopTracer()
	instruments := telemetry.NoopInstruments()
	if cfg.OTelEnabled {
		provider, err := telemetry.Init(ctx, "pgadvisor", version)
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logger.Warn("telemetry shutdown failed", slog.String("error.message", err.Error()))
			}
		}()
		tracer = otel.Tracer("github.com/ringo380/pgadvisor")
		instruments = telemetry.NewInstruments()
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	logger.Info("database pool connected", slog.String("db.system", "postgresql"))

	advisor, auditor, err := buildAdvisor(pool, cfg, logger, tracer, instruments)
	if err != nil {
		return err
	}
	defer func() {
		if err := auditor.Close(); err != nil {
			logger.Warn("closing audit log failed", slog.String("error.message", err.Error()))
		}
	}()

	if command == "mcp" {
		mcpServer := mcp.NewServer(version, advisor, cfg.MaxCreate, logger, tracer, instruments)
		stdioServer := server.NewStdioServer(mcpServer)

		logger.Info("serving MCP over stdio")
		if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil {
			return fmt.Errorf("stdio server: %w", err)
		}
		logger.Info("shutdown complete")
		return nil
	}

	opts := runOptions(command, cfg)
	report, err := advisor.Run(ctx, opts)
	if err != nil {
		if errors.Is(err, postgres.ErrStatementsUnavailable) {
			logger.Error("pg_stat_statements is not installed",
				slog.String("hint", "run CREATE EXTENSION pg_stat_statements and add it to shared_preload_libraries"))
		}
		return err
	}

	if err := writeReport(os.Stdout, report); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if report.CreationFailed() {
		logger.Error("one or more index creations failed",
			slog.Int("failures", report.Summary.CreationFailures))
		return exitError{code: 1}
	}
	return nil
}

// parseFlags parses the per-command flag set into config overrides. Only
// flags the user actually set become overrides, so env vars keep their
// precedence below flags and above defaults.
func parseFlags(command string, args []string) (config.Overrides, error) {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)

	databaseURL := fs.String("database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	schemas := fs.String("schemas", "", "comma-separated schemas to analyze")
	minCalls := fs.Int64("min-calls", 0, "minimum call count for a sampled statement")
	minMeanTime := fs.Float64("min-mean-time", 0, "minimum mean execution time in ms for a sampled statement")
	sampleLimit := fs.Int("sample-limit", 0, "maximum number of statements to sample")
	patternsFile := fs.String("patterns", "", "path to composite index pattern YAML")
	top := fs.Int("top", 0, "maximum number of suggestions to report")
	extractor := fs.String("extractor", "", "column extraction backend: heuristic or parser")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, or error")
	otelEnabled := fs.Bool("otel", false, "enable OpenTelemetry tracing and metrics")
	auditLog := fs.String("audit-log", "", "append DDL outcomes to this NDJSON file")

	var maxIndexes *int
	var statementTimeout *time.Duration
	if command == "create" || command == "mcp" {
		maxIndexes = fs.Int("max-indexes", 0, "maximum number of indexes to create in one run")
		statementTimeout = fs.Duration("statement-timeout", 0, "per-statement timeout for index builds (0 disables)")
	}

	if err := fs.Parse(args); err != nil {
		return config.Overrides{}, err
	}
	if fs.NArg() > 0 {
		return config.Overrides{}, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	o := config.Overrides{
		OTelEnabled: *otelEnabled,
		AuditLog:    *auditLog,
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "database-url":
			o.DatabaseURL = databaseURL
		case "schemas":
			o.Schemas = schemas
		case "min-calls":
			o.MinCalls = minCalls
		case "min-mean-time":
			o.MinMeanTimeMS = minMeanTime
		case "sample-limit":
			o.SampleLimit = sampleLimit
		case "patterns":
			o.PatternsFile = patternsFile
		case "top":
			o.TopSuggestions = top
		case "max-indexes":
			o.MaxCreate = maxIndexes
		case "statement-timeout":
			o.StatementTimeout = statementTimeout
		case "extractor":
			o.Extractor = extractor
		case "log-level":
			o.LogLevel = logLevel
		}
	})
	return o, nil
}

// runOptions maps a report-producing command to pipeline phases.
func runOptions(command string, cfg *config.Config) service.RunOptions {
	switch command {
	case "create":
		return service.RunOptions{Create: true, MaxCreate: cfg.MaxCreate, Monitor: true}
	case "report-only":
		return service.RunOptions{Monitor: true}
	default: // analyze
		return service.RunOptions{}
	}
}

// buildAdvisor wires the ports and adapters into the advisor service.
func buildAdvisor(pool *pgxpool.Pool, cfg *config.Config, logger *slog.Logger, tracer trace.Tracer, instruments *telemetry.Instruments) (*service.Advisor, port.DDLAuditor, error) {
	var extractor domain.Extractor
	switch cfg.Extractor {
	case config.ExtractorParser:
		extractor = domain.NewParserExtractor(cfg.Schemas)
	default:
		extractor = domain.NewHeuristicExtractor(cfg.Schemas)
	}

	policy := domain.DefaultScoringPolicy()
	policy.RowCountAssumption = cfg.RowCountAssumption
	policy.MaxSuggestions = cfg.TopSuggestions

	var compositePatterns []domain.CompositePattern
	if cfg.PatternsFile != "" {
		catalog, err := patterns.LoadFromFile(cfg.PatternsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading patterns: %w", err)
		}
		compositePatterns = catalog.Patterns
		logger.Info("composite patterns loaded",
			slog.String("file", cfg.PatternsFile),
			slog.Int("patterns", len(compositePatterns)),
		)
	}

	var auditor port.DDLAuditor = audit.NoopAuditor{}
	if cfg.AuditLog != "" {
		fileAuditor, err := audit.NewFileAuditor(cfg.AuditLog)
		if err != nil {
			return nil, nil, fmt.Errorf("opening audit log: %w", err)
		}
		auditor = fileAuditor
		logger.Info("audit log enabled", slog.String("file", cfg.AuditLog))
	}

	advisor := service.NewAdvisor(
		postgres.NewStatementSampler(pool, cfg.MinCalls, cfg.MinMeanTimeMS, cfg.SampleLimit),
		postgres.NewCatalogReader(pool, cfg.Schemas),
		postgres.NewConcurrentCreator(pool, cfg.StatementTimeout),
		postgres.NewUsageReader(pool, cfg.Schemas),
		extractor,
		domain.NewGenerator(policy, compositePatterns),
		auditor,
		logger,
		tracer,
		instruments,
	)
	return advisor, auditor, nil
}

func writeReport(w io.Writer, report *service.RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
