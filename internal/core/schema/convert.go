package schema

import "time"

// Converter transforms one raw cursor value into its output
// representation before serialization. A converter must accept any
// input without failing; a nil or unexpected value passes through.
type Converter func(value any, fieldType FieldType) any

// Identity returns the value unchanged. It is the default converter.
func Identity(value any, _ FieldType) any {
	return value
}

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04:05"
	dateTimeLayout = "2006-01-02T15:04:05"
)

// SerializableValue normalizes driver-native values into forms the JSON
// and CSV encoders can emit directly: byte slices become strings (the
// drivers return text, decimal and money columns as []byte) and
// time.Time values are rendered in the layout the destination type
// expects. Everything else passes through unchanged.
func SerializableValue(value any, fieldType FieldType) any {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case time.Time:
		switch fieldType {
		case TypeDate:
			return v.Format(dateLayout)
		case TypeTime:
			return v.Format(timeLayout)
		case TypeDateTime:
			return v.Format(dateTimeLayout)
		default:
			return v.Format(time.RFC3339)
		}
	default:
		return value
	}
}
