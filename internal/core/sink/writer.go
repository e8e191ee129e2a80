package sink

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/databridge/sql-gcs-etl/internal/core/schema"
)

// Format selects the serialization of data chunks.
type Format string

const (
	FormatJSON Format = "json" // newline-delimited JSON, one object per row
	FormatCSV  Format = "csv"  // header row of field names, then data rows
)

type WriterConfig struct {
	Format        Format `json:"format" default:"json"`
	Object        string `json:"object"`
	SchemaObject  string `json:"schema_object"`
	MaxChunkBytes int64  `json:"max_chunk_bytes" default:"104857600"`
	Gzip          bool   `json:"gzip"`
}

// ChunkWriter serializes converted rows into bounded chunks and uploads
// each finished chunk as its own object. Chunk size is tracked on the
// serialized (pre-compression) bytes, so MaxChunkBytes is approximate
// when gzip is on. One chunk at most is buffered in memory.
type ChunkWriter struct {
	cfg      WriterConfig
	fields   []schema.FieldDescriptor
	uploader Uploader
	log      *slog.Logger

	buf        bytes.Buffer
	gz         *gzip.Writer
	counter    *countingWriter
	jsonEnc    *json.Encoder
	csvEnc     *csv.Writer
	chunkIndex int
	chunkRows  int64
	rows       int64
	objects    []string
}

func NewChunkWriter(cfg WriterConfig, fields []schema.FieldDescriptor, uploader Uploader, log *slog.Logger) (*ChunkWriter, error) {
	if cfg.Object == "" {
		return nil, fmt.Errorf("destination object name is empty")
	}
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	if cfg.Format != FormatJSON && cfg.Format != FormatCSV {
		return nil, fmt.Errorf("unsupported format: %q", cfg.Format)
	}
	if cfg.MaxChunkBytes <= 0 {
		cfg.MaxChunkBytes = 100 << 20
	}

	w := &ChunkWriter{
		cfg:      cfg,
		fields:   fields,
		uploader: uploader,
		log:      log,
	}

	if err := w.startChunk(); err != nil {
		return nil, err
	}

	return w, nil
}

func (w *ChunkWriter) startChunk() error {
	w.buf.Reset()
	w.chunkRows = 0

	var out io.Writer = &w.buf
	if w.cfg.Gzip {
		w.gz = gzip.NewWriter(&w.buf)
		out = w.gz
	} else {
		w.gz = nil
	}

	w.counter = &countingWriter{w: out}

	switch w.cfg.Format {
	case FormatJSON:
		w.jsonEnc = json.NewEncoder(w.counter)
	case FormatCSV:
		w.csvEnc = csv.NewWriter(w.counter)
		header := make([]string, len(w.fields))
		for i, f := range w.fields {
			header[i] = f.Name
		}
		if err := w.csvEnc.Write(header); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}

	return nil
}

// WriteRow serializes one converted row into the current chunk,
// rotating to a new chunk once the size threshold is crossed.
func (w *ChunkWriter) WriteRow(ctx context.Context, row []any) error {
	if len(row) != len(w.fields) {
		return fmt.Errorf("row arity %d does not match schema arity %d", len(row), len(w.fields))
	}

	switch w.cfg.Format {
	case FormatJSON:
		record := make(map[string]any, len(w.fields))
		for i, f := range w.fields {
			record[f.Name] = row[i]
		}
		if err := w.jsonEnc.Encode(record); err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
	case FormatCSV:
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = csvCell(v)
		}
		if err := w.csvEnc.Write(cells); err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
		w.csvEnc.Flush()
		if err := w.csvEnc.Error(); err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
	}

	w.chunkRows++
	w.rows++

	if w.counter.n >= w.cfg.MaxChunkBytes {
		if err := w.rotate(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (w *ChunkWriter) rotate(ctx context.Context) error {
	if err := w.uploadChunk(ctx); err != nil {
		return err
	}
	w.chunkIndex++
	return w.startChunk()
}

func (w *ChunkWriter) uploadChunk(ctx context.Context) error {
	if w.cfg.Format == FormatCSV {
		w.csvEnc.Flush()
		if err := w.csvEnc.Error(); err != nil {
			return fmt.Errorf("flush csv chunk: %w", err)
		}
	}
	if w.gz != nil {
		if err := w.gz.Close(); err != nil {
			return fmt.Errorf("finish gzip chunk: %w", err)
		}
	}

	object := chunkObject(w.cfg.Object, w.chunkIndex, w.cfg.Gzip)
	if err := w.uploader.Upload(ctx, object, bytes.NewReader(w.buf.Bytes())); err != nil {
		return fmt.Errorf("upload chunk %q: %w", object, err)
	}

	w.objects = append(w.objects, object)
	w.log.Info("uploaded data chunk",
		slog.String("object", object),
		slog.Int64("rows", w.chunkRows),
		slog.Int("bytes", w.buf.Len()),
	)

	return nil
}

// Close uploads the final chunk. An export with zero rows still
// produces one data object (header only for CSV, empty for JSON).
func (w *ChunkWriter) Close(ctx context.Context) error {
	if w.chunkRows == 0 && len(w.objects) > 0 {
		return nil
	}
	return w.uploadChunk(ctx)
}

// WriteSchema uploads the schema file: a JSON array of field
// descriptors in column order.
func (w *ChunkWriter) WriteSchema(ctx context.Context) (string, error) {
	if w.cfg.SchemaObject == "" {
		return "", fmt.Errorf("schema object name is empty")
	}

	data, err := json.Marshal(w.fields)
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}

	if err := w.uploader.Upload(ctx, w.cfg.SchemaObject, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("upload schema %q: %w", w.cfg.SchemaObject, err)
	}

	w.log.Info("uploaded schema file",
		slog.String("object", w.cfg.SchemaObject),
		slog.Int("fields", len(w.fields)),
	)

	return w.cfg.SchemaObject, nil
}

// Rows returns the number of rows written across all chunks.
func (w *ChunkWriter) Rows() int64 {
	return w.rows
}

// Objects returns the uploaded data object names in upload order.
func (w *ChunkWriter) Objects() []string {
	return w.objects
}

// chunkObject derives the object name for one chunk: the part number is
// inserted before the file extension, and ".gz" appended when the chunk
// is compressed.
func chunkObject(object string, index int, gzipped bool) string {
	ext := path.Ext(object)
	base := strings.TrimSuffix(object, ext)

	name := fmt.Sprintf("%s_%03d%s", base, index, ext)
	if gzipped {
		name += ".gz"
	}
	return name
}

func csvCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
