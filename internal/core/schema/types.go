package schema

// FieldType is a destination-schema primitive type tag, matching the
// closed set accepted by the warehouse loader.
type FieldType string

const (
	TypeInteger  FieldType = "INTEGER"
	TypeBoolean  FieldType = "BOOLEAN"
	TypeString   FieldType = "STRING"
	TypeNumeric  FieldType = "NUMERIC"
	TypeDateTime FieldType = "DATETIME"
	TypeDate     FieldType = "DATE"
	TypeTime     FieldType = "TIME"
	TypeFloat    FieldType = "FLOAT"
)

// FieldMode marks a destination field as nullable or required.
type FieldMode string

const (
	ModeNullable FieldMode = "NULLABLE"
	ModeRequired FieldMode = "REQUIRED"
)

// ColumnMetadata describes one source column as reported by the cursor.
// The nullable flag is carried as a named field rather than a positional
// slot, so a short metadata tuple from a nonstandard driver cannot
// silently misreport nullability.
type ColumnMetadata struct {
	Name     string `json:"name"`
	TypeName string `json:"type_name"`
	Nullable bool   `json:"nullable"`
}

// FieldDescriptor is the normalized description of one output column,
// emitted as a single object of the schema file.
type FieldDescriptor struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
	Mode FieldMode `json:"mode"`
}
