package sink

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/databridge/sql-gcs-etl/internal/core/schema"
	"github.com/databridge/sql-gcs-etl/tests/testutils"
)

func orderFields() []schema.FieldDescriptor {
	return []schema.FieldDescriptor{
		{Name: "OrderID", Type: schema.TypeInteger, Mode: schema.ModeRequired},
		{Name: "Customer_ID", Type: schema.TypeString, Mode: schema.ModeNullable},
		{Name: "Total", Type: schema.TypeNumeric, Mode: schema.ModeRequired},
	}
}

func TestChunkWriterJSON(t *testing.T) {
	uploader := NewMemoryUploader()
	ctx := context.Background()

	w, err := NewChunkWriter(WriterConfig{
		Format: FormatJSON,
		Object: "data/orders/export.json",
	}, orderFields(), uploader, testutils.NewTestLogger())
	require.NoError(t, err)

	require.NoError(t, w.WriteRow(ctx, []any{int64(1), "c-100", "19.90"}))
	require.NoError(t, w.WriteRow(ctx, []any{int64(2), nil, "5.00"}))
	require.NoError(t, w.Close(ctx))

	assert.Equal(t, int64(2), w.Rows())
	require.Equal(t, []string{"data/orders/export_000.json"}, w.Objects())

	data, ok := uploader.Object("data/orders/export_000.json")
	require.True(t, ok)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, float64(1), first["OrderID"])
	assert.Equal(t, "c-100", first["Customer_ID"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Nil(t, second["Customer_ID"])
}

func TestChunkWriterCSV(t *testing.T) {
	uploader := NewMemoryUploader()
	ctx := context.Background()

	w, err := NewChunkWriter(WriterConfig{
		Format: FormatCSV,
		Object: "export.csv",
	}, orderFields(), uploader, testutils.NewTestLogger())
	require.NoError(t, err)

	require.NoError(t, w.WriteRow(ctx, []any{int64(1), "c-100", "19.90"}))
	require.NoError(t, w.WriteRow(ctx, []any{int64(2), nil, "5.00"}))
	require.NoError(t, w.Close(ctx))

	data, ok := uploader.Object("export_000.csv")
	require.True(t, ok)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "OrderID,Customer_ID,Total", lines[0])
	assert.Equal(t, "1,c-100,19.90", lines[1])
	assert.Equal(t, "2,,5.00", lines[2])
}

func TestChunkWriterRotation(t *testing.T) {
	uploader := NewMemoryUploader()
	ctx := context.Background()

	w, err := NewChunkWriter(WriterConfig{
		Format:        FormatJSON,
		Object:        "export.json",
		MaxChunkBytes: 1, // every row crosses the threshold
	}, orderFields(), uploader, testutils.NewTestLogger())
	require.NoError(t, err)

	require.NoError(t, w.WriteRow(ctx, []any{int64(1), "a", "1"}))
	require.NoError(t, w.WriteRow(ctx, []any{int64(2), "b", "2"}))
	require.NoError(t, w.WriteRow(ctx, []any{int64(3), "c", "3"}))
	require.NoError(t, w.Close(ctx))

	assert.Equal(t, []string{"export_000.json", "export_001.json", "export_002.json"}, w.Objects())
	assert.Equal(t, int64(3), w.Rows())
}

func TestChunkWriterGzip(t *testing.T) {
	uploader := NewMemoryUploader()
	ctx := context.Background()

	w, err := NewChunkWriter(WriterConfig{
		Format: FormatJSON,
		Object: "export.json",
		Gzip:   true,
	}, orderFields(), uploader, testutils.NewTestLogger())
	require.NoError(t, err)

	require.NoError(t, w.WriteRow(ctx, []any{int64(1), "c-100", "19.90"}))
	require.NoError(t, w.Close(ctx))

	data, ok := uploader.Object("export_000.json.gz")
	require.True(t, ok)

	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"OrderID":1`)
}

func TestChunkWriterEmptyResultStillUploads(t *testing.T) {
	uploader := NewMemoryUploader()
	ctx := context.Background()

	w, err := NewChunkWriter(WriterConfig{
		Format: FormatCSV,
		Object: "export.csv",
	}, orderFields(), uploader, testutils.NewTestLogger())
	require.NoError(t, err)

	require.NoError(t, w.Close(ctx))

	data, ok := uploader.Object("export_000.csv")
	require.True(t, ok)
	assert.Equal(t, "OrderID,Customer_ID,Total\n", string(data))
}

func TestChunkWriterArityMismatch(t *testing.T) {
	w, err := NewChunkWriter(WriterConfig{
		Format: FormatJSON,
		Object: "export.json",
	}, orderFields(), NewMemoryUploader(), testutils.NewTestLogger())
	require.NoError(t, err)

	err = w.WriteRow(context.Background(), []any{int64(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arity")
}

func TestWriteSchema(t *testing.T) {
	uploader := NewMemoryUploader()

	w, err := NewChunkWriter(WriterConfig{
		Format:       FormatJSON,
		Object:       "export.json",
		SchemaObject: "schemas/export.json",
	}, orderFields(), uploader, testutils.NewTestLogger())
	require.NoError(t, err)

	object, err := w.WriteSchema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "schemas/export.json", object)

	data, ok := uploader.Object("schemas/export.json")
	require.True(t, ok)
	assert.JSONEq(t, `[
		{"name":"OrderID","type":"INTEGER","mode":"REQUIRED"},
		{"name":"Customer_ID","type":"STRING","mode":"NULLABLE"},
		{"name":"Total","type":"NUMERIC","mode":"REQUIRED"}
	]`, string(data))
}
