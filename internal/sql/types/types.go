package types

import (
	"bytes"
	"fmt"
)

// DataType describes a column type understood by the execution engine.
// The engine only needs enough of a type system to carry values through
// columnar batches and to build group keys; anything richer (coercion,
// SQL type modifiers, decimals) lives outside this module.
type DataType interface {
	// Name returns the SQL name of the type (e.g., "BIGINT", "TEXT")
	Name() string

	// Size returns the storage size in bytes (-1 for variable size)
	Size() int

	// IsValid checks if a value is valid for this type
	IsValid(v Value) bool

	// Zero returns the zero value for this type
	Zero() Value
}

// Value represents a column value that can be NULL
type Value struct {
	Data interface{}
	Null bool
}

// NewValue creates a non-null value
func NewValue(data interface{}) Value {
	return Value{Data: data, Null: false}
}

// NewNullValue creates a null value
func NewNullValue() Value {
	return Value{Data: nil, Null: true}
}

// IsNull returns true if the value is NULL
func (v Value) IsNull() bool {
	return v.Null
}

// String returns a string representation of the value
func (v Value) String() string {
	if v.Null {
		return "NULL"
	}
	return fmt.Sprintf("%v", v.Data)
}

// AsInt64 returns the value as an int64
func (v Value) AsInt64() (int64, error) {
	if v.Null {
		return 0, fmt.Errorf("cannot convert NULL to int64")
	}
	switch val := v.Data.(type) {
	case int64:
		return val, nil
	case int32:
		return int64(val), nil
	case int:
		return int64(val), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", v.Data)
	}
}

// AsString returns the value as a string
func (v Value) AsString() (string, error) {
	if v.Null {
		return "", fmt.Errorf("cannot convert NULL to string")
	}
	if s, ok := v.Data.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("cannot convert %T to string", v.Data)
}

// Type returns the DataType of the value based on its underlying type
func (v Value) Type() DataType {
	if v.Null {
		return Unknown
	}
	switch v.Data.(type) {
	case bool:
		return Boolean
	case int32:
		return Integer
	case int64:
		return BigInt
	case float64:
		return Double
	case string:
		return Text
	case []byte:
		return Bytea
	default:
		return Unknown
	}
}

// Equal returns true if two values are equal, treating NULL as equal to NULL.
func (v Value) Equal(other Value) bool {
	if v.Null || other.Null {
		return v.Null == other.Null
	}
	if a, ok := v.Data.([]byte); ok {
		b, ok := other.Data.([]byte)
		return ok && bytes.Equal(a, b)
	}
	return v.Data == other.Data
}
