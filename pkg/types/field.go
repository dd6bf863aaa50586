package types

import "time"

// DataType names the semantic type of a custom field's values.
type DataType string

// Recognized field data types. Date is stored and exported but never
// produced by column type inference.
const (
	DataTypeString  DataType = "string"
	DataTypeNumber  DataType = "number"
	DataTypeBoolean DataType = "boolean"
	DataTypeDate    DataType = "date"
)

// validDataTypes is the set of recognized data types.
var validDataTypes = map[DataType]bool{
	DataTypeString:  true,
	DataTypeNumber:  true,
	DataTypeBoolean: true,
	DataTypeDate:    true,
}

// IsValid reports whether dt is a recognized data type.
func (dt DataType) IsValid() bool {
	return validDataTypes[dt]
}

// ParseDataType converts a CSV type token into a DataType. A blank token
// means string. Returns ErrInvalidDataType for anything else.
func ParseDataType(token string) (DataType, error) {
	if token == "" {
		return DataTypeString, nil
	}
	dt := DataType(token)
	if !dt.IsValid() {
		return "", ErrInvalidDataType
	}
	return dt, nil
}

// CustomField is a named, typed attribute that items carry values for.
// FieldName is unique across a store.
type CustomField struct {
	FieldID   string    `json:"field_id"`   // UUID v7 once committed, placeholder while parsed.
	FieldName string    `json:"field_name"` // Unique name (required, non-empty).
	DataType  DataType  `json:"data_type"`  // One of the DataType constants.
	CreatedAt time.Time `json:"created_at"` // Zero until committed.
}
