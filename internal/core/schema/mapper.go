package schema

import "strings"

// typeMap translates source-database type tags to destination field types.
// Lookup keys are lower case; MapType folds its input before the lookup.
var typeMap = map[string]FieldType{
	"int":      TypeInteger,
	"tinyint":  TypeInteger,
	"smallint": TypeInteger,
	"bigint":   TypeInteger,

	"bit":  TypeBoolean,
	"bool": TypeBoolean,

	"char":     TypeString,
	"varchar":  TypeString,
	"text":     TypeString,
	"nchar":    TypeString,
	"nvarchar": TypeString,
	"ntext":    TypeString,
	"uuid":     TypeString,
	"str":      TypeString,

	"money":      TypeNumeric,
	"numeric":    TypeNumeric,
	"smallmoney": TypeNumeric,
	"decimal":    TypeNumeric,

	"datetime":      TypeDateTime,
	"datetime2":     TypeDateTime,
	"smalldatetime": TypeDateTime,

	"date": TypeDate,
	"time": TypeTime,

	"float":  TypeFloat,
	"real":   TypeFloat,
	"double": TypeFloat,
}

// MapType maps a source column type tag to a destination field type.
// The mapping is total: unregistered tags fall back to STRING so an
// unknown driver type never fails an export.
func MapType(sourceType string) FieldType {
	if t, ok := typeMap[strings.ToLower(sourceType)]; ok {
		return t
	}
	return TypeString
}

// BuildField derives the destination field descriptor for one source
// column. Spaces in the column name are replaced with underscores; no
// other characters are rewritten, so field names stay as close to the
// source schema as the loader allows.
func BuildField(meta ColumnMetadata) FieldDescriptor {
	mode := ModeRequired
	if meta.Nullable {
		mode = ModeNullable
	}

	return FieldDescriptor{
		Name: strings.ReplaceAll(meta.Name, " ", "_"),
		Type: MapType(meta.TypeName),
		Mode: mode,
	}
}

// Fields builds descriptors for a full column metadata sequence,
// preserving order and arity.
func Fields(metas []ColumnMetadata) []FieldDescriptor {
	fields := make([]FieldDescriptor, len(metas))
	for i, meta := range metas {
		fields[i] = BuildField(meta)
	}
	return fields
}
