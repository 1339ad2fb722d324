package omfile

import (
	"reflect"

	"github.com/discochess/omfile/internal/dtype"
)

// DataType identifies the element type of a stored array.
type DataType = dtype.DataType

// Data types. Values match the on-disk type tags.
const (
	DataTypeNone         = dtype.None
	DataTypeInt8         = dtype.Int8
	DataTypeUint8        = dtype.Uint8
	DataTypeInt16        = dtype.Int16
	DataTypeUint16       = dtype.Uint16
	DataTypeInt32        = dtype.Int32
	DataTypeUint32       = dtype.Uint32
	DataTypeInt64        = dtype.Int64
	DataTypeUint64       = dtype.Uint64
	DataTypeFloat32      = dtype.Float32
	DataTypeFloat64      = dtype.Float64
	DataTypeString       = dtype.String
	DataTypeInt8Array    = dtype.Int8Array
	DataTypeUint8Array   = dtype.Uint8Array
	DataTypeInt16Array   = dtype.Int16Array
	DataTypeUint16Array  = dtype.Uint16Array
	DataTypeInt32Array   = dtype.Int32Array
	DataTypeUint32Array  = dtype.Uint32Array
	DataTypeInt64Array   = dtype.Int64Array
	DataTypeUint64Array  = dtype.Uint64Array
	DataTypeFloat32Array = dtype.Float32Array
	DataTypeFloat64Array = dtype.Float64Array
	DataTypeStringArray  = dtype.StringArray
)

// ParseDataType returns the DataType with the given name, e.g. "float32".
func ParseDataType(name string) (DataType, error) {
	return dtype.Parse(name)
}

// Numeric is the set of Go types Read can decode into.
type Numeric interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// dataTypeOf returns the DataType stored for T. Named types map through their
// underlying kind.
func dataTypeOf[T Numeric]() DataType {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Int8:
		return dtype.Int8
	case reflect.Uint8:
		return dtype.Uint8
	case reflect.Int16:
		return dtype.Int16
	case reflect.Uint16:
		return dtype.Uint16
	case reflect.Int32:
		return dtype.Int32
	case reflect.Uint32:
		return dtype.Uint32
	case reflect.Int64:
		return dtype.Int64
	case reflect.Uint64:
		return dtype.Uint64
	case reflect.Float32:
		return dtype.Float32
	case reflect.Float64:
		return dtype.Float64
	}
	return dtype.None
}
