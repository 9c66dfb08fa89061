package fragments

import (
	"encoding/binary"
	"math"
)

// Primitive is the set of Go types that correspond directly to a CDR
// arithmetic primitive. Enums and bitmasks ride on top of these via
// their bit-bound integer representation; see the cdr package.
type Primitive interface {
	~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | ~bool
}

// SizeOf returns the wire size, in bytes, of a Primitive type. This
// is also the alignment CDR requires before encoding a value of that
// type (capped by the dialect's max alignment).
func SizeOf[T Primitive]() int {
	var z T
	switch any(z).(type) {
	case bool, uint8:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	case int64, uint64, float64:
		return 8
	default:
		panic("fragments: unsupported primitive type")
	}
}

// ToBytes renders v in the host's native in-memory byte
// representation, the same representation a C memcpy of the value
// would produce. Callers swap the result with byteSwap before
// writing it to a stream of non-native endianness.
func ToBytes[T Primitive](v T) []byte {
	n := SizeOf[T]()
	out := make([]byte, n)
	switch x := any(v).(type) {
	case bool:
		if x {
			out[0] = 1
		}
	case uint8:
		out[0] = x
	case int16:
		binary.NativeEndian.PutUint16(out, uint16(x))
	case uint16:
		binary.NativeEndian.PutUint16(out, x)
	case int32:
		binary.NativeEndian.PutUint32(out, uint32(x))
	case uint32:
		binary.NativeEndian.PutUint32(out, x)
	case float32:
		binary.NativeEndian.PutUint32(out, math.Float32bits(x))
	case int64:
		binary.NativeEndian.PutUint64(out, uint64(x))
	case uint64:
		binary.NativeEndian.PutUint64(out, x)
	case float64:
		binary.NativeEndian.PutUint64(out, math.Float64bits(x))
	default:
		panic("fragments: unsupported primitive type")
	}
	return out
}

// FromBytes is the inverse of ToBytes: it interprets bs (of length
// SizeOf[T]()) as the host's native in-memory representation of T.
func FromBytes[T Primitive](bs []byte) T {
	var z T
	switch any(z).(type) {
	case bool:
		return any(bs[0] != 0).(T)
	case uint8:
		return any(bs[0]).(T)
	case int16:
		return any(int16(binary.NativeEndian.Uint16(bs))).(T)
	case uint16:
		return any(binary.NativeEndian.Uint16(bs)).(T)
	case int32:
		return any(int32(binary.NativeEndian.Uint32(bs))).(T)
	case uint32:
		return any(binary.NativeEndian.Uint32(bs)).(T)
	case float32:
		return any(math.Float32frombits(binary.NativeEndian.Uint32(bs))).(T)
	case int64:
		return any(int64(binary.NativeEndian.Uint64(bs))).(T)
	case uint64:
		return any(binary.NativeEndian.Uint64(bs)).(T)
	case float64:
		return any(math.Float64frombits(binary.NativeEndian.Uint64(bs))).(T)
	default:
		panic("fragments: unsupported primitive type")
	}
}

// ByteSwapBytes reverses bs in place. len(bs) must be 1, 2, 4, or 8.
func ByteSwapBytes(bs []byte) {
	byteSwap(bs)
}
