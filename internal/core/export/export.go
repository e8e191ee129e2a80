package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/databridge/sql-gcs-etl/internal/core/schema"
	"github.com/databridge/sql-gcs-etl/internal/core/sink"
	"github.com/databridge/sql-gcs-etl/internal/core/source"
)

// ConnectionHook resolves a connection id to a live database handle.
// Implemented by source.Hook.
type ConnectionHook interface {
	Connection(ctx context.Context, connectionID string) (*sql.DB, error)
}

// Config describes one export job: which connection to query, the
// statement to run, and where the chunks and schema file go. Both
// ConnectionID and SQL are pass-through strings; the statement defines
// the output schema by itself.
type Config struct {
	ConnectionID string            `json:"connection_id"`
	SQL          string            `json:"sql"`
	Writer       sink.WriterConfig `json:"writer"`
}

// Result reports what one export attempt produced.
type Result struct {
	JobID        string   `json:"job_id"`
	Rows         int64    `json:"rows"`
	Objects      []string `json:"objects"`
	SchemaObject string   `json:"schema_object,omitempty"`
}

// Pipeline streams query results into chunked, uploaded files. The
// field builder, value converter and uploader are injected
// collaborators; the pipeline owns only the control flow. Any failure
// is fatal to the attempt and returned to the caller, which decides on
// job-level retry.
type Pipeline struct {
	hook     ConnectionHook
	uploader sink.Uploader
	convert  schema.Converter
	log      *slog.Logger
}

func NewPipeline(hook ConnectionHook, uploader sink.Uploader, convert schema.Converter, log *slog.Logger) *Pipeline {
	if convert == nil {
		convert = schema.Identity
	}

	return &Pipeline{
		hook:     hook,
		uploader: uploader,
		convert:  convert,
		log:      log,
	}
}

// Run executes one export job: acquire a cursor, derive the field
// descriptors from its column metadata, then drain the rows through the
// converter into the chunk writer.
func (p *Pipeline) Run(ctx context.Context, cfg Config) (*Result, error) {
	jobID := uuid.NewString()
	log := p.log.With(slog.String("job_id", jobID), slog.String("connection_id", cfg.ConnectionID))

	db, err := p.hook.Connection(ctx, cfg.ConnectionID)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}

	cursor, err := source.Acquire(ctx, db, cfg.SQL)
	if err != nil {
		return nil, fmt.Errorf("acquire cursor: %w", err)
	}
	defer cursor.Close()

	fields := schema.Fields(cursor.Columns())
	log.Info("resolved export schema", slog.Int("fields", len(fields)))

	writer, err := sink.NewChunkWriter(cfg.Writer, fields, p.uploader, log)
	if err != nil {
		return nil, fmt.Errorf("create chunk writer: %w", err)
	}

	for {
		row, err := cursor.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		converted := make([]any, len(row))
		for i, value := range row {
			converted[i] = p.convert(value, fields[i].Type)
		}

		if err := writer.WriteRow(ctx, converted); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}

	if err := writer.Close(ctx); err != nil {
		return nil, fmt.Errorf("close chunk writer: %w", err)
	}

	result := &Result{
		JobID:   jobID,
		Rows:    writer.Rows(),
		Objects: writer.Objects(),
	}

	if cfg.Writer.SchemaObject != "" {
		object, err := writer.WriteSchema(ctx)
		if err != nil {
			return nil, fmt.Errorf("write schema file: %w", err)
		}
		result.SchemaObject = object
	}

	log.Info("export finished",
		slog.Int64("rows", result.Rows),
		slog.Int("chunks", len(result.Objects)),
	)

	return result, nil
}
