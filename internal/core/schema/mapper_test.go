package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapType(t *testing.T) {
	expected := map[string]FieldType{
		"int":           TypeInteger,
		"tinyint":       TypeInteger,
		"smallint":      TypeInteger,
		"bigint":        TypeInteger,
		"bit":           TypeBoolean,
		"bool":          TypeBoolean,
		"char":          TypeString,
		"varchar":       TypeString,
		"text":          TypeString,
		"nchar":         TypeString,
		"nvarchar":      TypeString,
		"ntext":         TypeString,
		"uuid":          TypeString,
		"str":           TypeString,
		"money":         TypeNumeric,
		"numeric":       TypeNumeric,
		"smallmoney":    TypeNumeric,
		"decimal":       TypeNumeric,
		"datetime":      TypeDateTime,
		"datetime2":     TypeDateTime,
		"smalldatetime": TypeDateTime,
		"date":          TypeDate,
		"time":          TypeTime,
		"float":         TypeFloat,
		"real":          TypeFloat,
		"double":        TypeFloat,
	}

	for tag, want := range expected {
		assert.Equal(t, want, MapType(tag), "tag %q", tag)
	}
}

func TestMapTypeCaseInsensitive(t *testing.T) {
	for tag := range typeMap {
		assert.Equal(t, MapType(tag), MapType(strings.ToUpper(tag)), "tag %q", tag)
	}
}

func TestMapTypeUnknownFallsBackToString(t *testing.T) {
	for _, tag := range []string{"xml", "geography", "hierarchyid", "sql_variant", ""} {
		assert.Equal(t, TypeString, MapType(tag), "tag %q", tag)
	}
}

func TestBuildField(t *testing.T) {
	t.Run("nullable column", func(t *testing.T) {
		field := BuildField(ColumnMetadata{Name: "Order Date", TypeName: "datetime2", Nullable: true})

		assert.Equal(t, "Order_Date", field.Name)
		assert.Equal(t, TypeDateTime, field.Type)
		assert.Equal(t, ModeNullable, field.Mode)
	})

	t.Run("required column", func(t *testing.T) {
		field := BuildField(ColumnMetadata{Name: "Total", TypeName: "decimal", Nullable: false})

		assert.Equal(t, "Total", field.Name)
		assert.Equal(t, TypeNumeric, field.Type)
		assert.Equal(t, ModeRequired, field.Mode)
	})

	t.Run("unregistered type", func(t *testing.T) {
		field := BuildField(ColumnMetadata{Name: "Notes", TypeName: "xml", Nullable: true})

		assert.Equal(t, "Notes", field.Name)
		assert.Equal(t, TypeString, field.Type)
		assert.Equal(t, ModeNullable, field.Mode)
	})

	t.Run("only spaces are sanitized", func(t *testing.T) {
		field := BuildField(ColumnMetadata{Name: "Customer ID", TypeName: "int", Nullable: false})
		assert.Equal(t, "Customer_ID", field.Name)

		// hyphens and other odd characters pass through unchanged
		field = BuildField(ColumnMetadata{Name: "order-total (gross)", TypeName: "money", Nullable: false})
		assert.Equal(t, "order-total_(gross)", field.Name)
	})

	t.Run("deterministic", func(t *testing.T) {
		meta := ColumnMetadata{Name: "Order Date", TypeName: "datetime2", Nullable: true}
		assert.Equal(t, BuildField(meta), BuildField(meta))
	})
}

func TestFieldsPreservesOrderAndArity(t *testing.T) {
	metas := []ColumnMetadata{
		{Name: "id", TypeName: "bigint", Nullable: false},
		{Name: "Customer ID", TypeName: "nvarchar", Nullable: true},
		{Name: "Order Date", TypeName: "datetime2", Nullable: true},
	}

	fields := Fields(metas)
	require.Len(t, fields, len(metas))

	assert.Equal(t, "id", fields[0].Name)
	assert.Equal(t, "Customer_ID", fields[1].Name)
	assert.Equal(t, "Order_Date", fields[2].Name)
}

func TestFieldDescriptorJSON(t *testing.T) {
	field := BuildField(ColumnMetadata{Name: "Order Date", TypeName: "datetime2", Nullable: true})

	data, err := json.Marshal(field)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Order_Date","type":"DATETIME","mode":"NULLABLE"}`, string(data))
}
