package types

// Singleton instances of the scalar types the engine carries in batches.
var (
	Boolean DataType = booleanType{}
	Integer DataType = integerType{}
	BigInt  DataType = bigintType{}
	Double  DataType = doubleType{}
	Text    DataType = textType{}
	Bytea   DataType = byteaType{}
	Unknown DataType = unknownType{}
)

type booleanType struct{}

func (booleanType) Name() string { return "BOOLEAN" }
func (booleanType) Size() int    { return 1 }
func (booleanType) IsValid(v Value) bool {
	if v.Null {
		return true
	}
	_, ok := v.Data.(bool)
	return ok
}
func (booleanType) Zero() Value { return NewValue(false) }

type integerType struct{}

func (integerType) Name() string { return "INTEGER" }
func (integerType) Size() int    { return 4 }
func (integerType) IsValid(v Value) bool {
	if v.Null {
		return true
	}
	_, ok := v.Data.(int32)
	return ok
}
func (integerType) Zero() Value { return NewValue(int32(0)) }

type bigintType struct{}

func (bigintType) Name() string { return "BIGINT" }
func (bigintType) Size() int    { return 8 }
func (bigintType) IsValid(v Value) bool {
	if v.Null {
		return true
	}
	_, ok := v.Data.(int64)
	return ok
}
func (bigintType) Zero() Value { return NewValue(int64(0)) }

type doubleType struct{}

func (doubleType) Name() string { return "DOUBLE" }
func (doubleType) Size() int    { return 8 }
func (doubleType) IsValid(v Value) bool {
	if v.Null {
		return true
	}
	_, ok := v.Data.(float64)
	return ok
}
func (doubleType) Zero() Value { return NewValue(float64(0)) }

type textType struct{}

func (textType) Name() string { return "TEXT" }
func (textType) Size() int    { return -1 }
func (textType) IsValid(v Value) bool {
	if v.Null {
		return true
	}
	_, ok := v.Data.(string)
	return ok
}
func (textType) Zero() Value { return NewValue("") }

type byteaType struct{}

func (byteaType) Name() string { return "BYTEA" }
func (byteaType) Size() int    { return -1 }
func (byteaType) IsValid(v Value) bool {
	if v.Null {
		return true
	}
	_, ok := v.Data.([]byte)
	return ok
}
func (byteaType) Zero() Value { return NewValue([]byte(nil)) }

type unknownType struct{}

func (unknownType) Name() string         { return "UNKNOWN" }
func (unknownType) Size() int            { return -1 }
func (unknownType) IsValid(v Value) bool { return v.Null }
func (unknownType) Zero() Value          { return NewNullValue() }
