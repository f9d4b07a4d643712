package main

import (
	"testing"
	"time"

	"github.com/ringo380/pgadvisor/internal/config"
	"github.com/ringo380/pgadvisor/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		command string
		args    []string
		wantErr bool
		check   func(t *testing.T, o config.Overrides)
	}{
		{
			name:    "no flags",
			command: "analyze",
			args:    []string{},
			check: func(t *testing.T, o config.Overrides) {
				assert.Nil(t, o.DatabaseURL)
				assert.Nil(t, o.Schemas)
				assert.Nil(t, o.MaxCreate)
				assert.False(t, o.OTelEnabled)
				assert.Empty(t, o.AuditLog)
			},
		},
		{
			name:    "database-url",
			command: "analyze",
			args:    []string{"--database-url", "postgres://localhost:5432/test"},
			check: func(t *testing.T, o config.Overrides) {
				require.NotNil(t, o.DatabaseURL)
				assert.Equal(t, "postgres://localhost:5432/test", *o.DatabaseURL)
			},
		},
		{
			name:    "schemas",
			command: "analyze",
			args:    []string{"--schemas", "sales,hr"},
			check: func(t *testing.T, o config.Overrides) {
				require.NotNil(t, o.Schemas)
				assert.Equal(t, "sales,hr", *o.Schemas)
			},
		},
		{
			name:    "sampling thresholds",
			command: "analyze",
			args:    []string{"--min-calls", "25", "--min-mean-time", "250", "--sample-limit", "200"},
			check: func(t *testing.T, o config.Overrides) {
				require.NotNil(t, o.MinCalls)
				assert.Equal(t, int64(25), *o.MinCalls)
				require.NotNil(t, o.MinMeanTimeMS)
				assert.Equal(t, float64(250), *o.MinMeanTimeMS)
				require.NotNil(t, o.SampleLimit)
				assert.Equal(t, 200, *o.SampleLimit)
			},
		},
		{
			name:    "patterns and top",
			command: "analyze",
			args:    []string{"--patterns", "patterns.yaml", "--top", "10"},
			check: func(t *testing.T, o config.Overrides) {
				require.NotNil(t, o.PatternsFile)
				assert.Equal(t, "patterns.yaml", *o.PatternsFile)
				require.NotNil(t, o.TopSuggestions)
				assert.Equal(t, 10, *o.TopSuggestions)
			},
		},
		{
			name:    "create flags",
			command: "create",
			args:    []string{"--max-indexes", "5", "--statement-timeout", "10m"},
			check: func(t *testing.T, o config.Overrides) {
				require.NotNil(t, o.MaxCreate)
				assert.Equal(t, 5, *o.MaxCreate)
				require.NotNil(t, o.StatementTimeout)
				assert.Equal(t, 10*time.Minute, *o.StatementTimeout)
			},
		},
		{
			name:    "max-indexes rejected outside create",
			command: "analyze",
			args:    []string{"--max-indexes", "5"},
			wantErr: true,
		},
		{
			name:    "extractor",
			command: "analyze",
			args:    []string{"--extractor", "parser"},
			check: func(t *testing.T, o config.Overrides) {
				require.NotNil(t, o.Extractor)
				assert.Equal(t, "parser", *o.Extractor)
			},
		},
		{
			name:    "otel and audit-log",
			command: "create",
			args:    []string{"--otel", "--audit-log", "/tmp/audit.ndjson"},
			check: func(t *testing.T, o config.Overrides) {
				assert.True(t, o.OTelEnabled)
				assert.Equal(t, "/tmp/audit.ndjson", o.AuditLog)
			},
		},
		{
			name:    "log-level",
			command: "analyze",
			args:    []string{"--log-level", "debug"},
			check: func(t *testing.T, o config.Overrides) {
				require.NotNil(t, o.LogLevel)
				assert.Equal(t, "debug", *o.LogLevel)
			},
		},
		{
			name:    "unknown flag returns error",
			command: "analyze",
			args:    []string{"--unknown-flag"},
			wantErr: true,
		},
		{
			name:    "positional argument returns error",
			command: "analyze",
			args:    []string{"extra"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overrides, err := parseFlags(tt.command, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, overrides)
			}
		})
	}
}

func TestRunOptions(t *testing.T) {
	cfg := &config.Config{MaxCreate: 7}

	assert.Equal(t, service.RunOptions{}, runOptions("analyze", cfg))
	assert.Equal(t, service.RunOptions{Monitor: true}, runOptions("report-only", cfg))
	assert.Equal(t, service.RunOptions{Create: true, MaxCreate: 7, Monitor: true}, runOptions("create", cfg))
}

func TestRun_UnknownCommand(t *testing.T) {
	err := run([]string{"bogus"})
	require.Error(t, err)

	var ee exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 2, ee.code)
}

func TestRun_Help(t *testing.T) {
	require.NoError(t, run([]string{"help"}))
}
