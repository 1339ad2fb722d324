// Package dtype defines the closed set of element types an array container can
// store, together with the element-size table shared by the reader and the
// decode engine.
//
// Values match the on-disk type tags, so a DataType can be written to and read
// from a container without translation. Adding a type means extending the
// constants, the size table, and the name table together.
package dtype

import (
	"fmt"
	"strings"
)

// DataType identifies how raw element bytes are interpreted.
type DataType uint8

const (
	None DataType = iota
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
	String
	Int8Array
	Uint8Array
	Int16Array
	Uint16Array
	Int32Array
	Uint32Array
	Int64Array
	Uint64Array
	Float32Array
	Float64Array
	StringArray
)

// sizes holds the fixed element size in bytes for scalar numeric types.
// Variable-length types (string, array-of) and None have size 0.
var sizes = [...]uint64{
	None:    0,
	Int8:    1,
	Uint8:   1,
	Int16:   2,
	Uint16:  2,
	Int32:   4,
	Uint32:  4,
	Int64:   8,
	Uint64:  8,
	Float32: 4,
	Float64: 8,
}

var names = [...]string{
	None:         "none",
	Int8:         "int8",
	Uint8:        "uint8",
	Int16:        "int16",
	Uint16:       "uint16",
	Int32:        "int32",
	Uint32:       "uint32",
	Int64:        "int64",
	Uint64:       "uint64",
	Float32:      "float32",
	Float64:      "float64",
	String:       "string",
	Int8Array:    "int8[]",
	Uint8Array:   "uint8[]",
	Int16Array:   "int16[]",
	Uint16Array:  "uint16[]",
	Int32Array:   "int32[]",
	Uint32Array:  "uint32[]",
	Int64Array:   "int64[]",
	Uint64Array:  "uint64[]",
	Float32Array: "float32[]",
	Float64Array: "float64[]",
	StringArray:  "string[]",
}

// Valid reports whether t is a member of the enumeration.
func (t DataType) Valid() bool {
	return t <= StringArray
}

// Size returns the element size in bytes, or 0 if t has no fixed size.
func (t DataType) Size() uint64 {
	if int(t) < len(sizes) {
		return sizes[t]
	}
	return 0
}

// Numeric reports whether t is a fixed-size scalar numeric type.
func (t DataType) Numeric() bool {
	return t.Size() > 0
}

// IsArray reports whether t is one of the array-of variants.
func (t DataType) IsArray() bool {
	return t >= Int8Array && t <= StringArray
}

// Element returns the scalar type of an array-of variant. For scalar types it
// returns t unchanged.
func (t DataType) Element() DataType {
	if !t.IsArray() {
		return t
	}
	return t - Int8Array + Int8
}

// String returns the canonical lowercase name.
func (t DataType) String() string {
	if t.Valid() {
		return names[t]
	}
	return fmt.Sprintf("dtype(%d)", uint8(t))
}

// Parse returns the DataType with the given name. "float" and "double" are
// accepted as aliases for float32 and float64.
func Parse(name string) (DataType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "float":
		return Float32, nil
	case "double":
		return Float64, nil
	}
	for i, candidate := range names {
		if candidate == n {
			return DataType(i), nil
		}
	}
	return None, fmt.Errorf("unknown data type %q", name)
}
