package fragments

import (
	"encoding/binary"

	"golang.org/x/sys/cpu"
)

// Endianness is the byte order a CDR stream is encoded in. Unlike
// DBus, CDR has no native/third option: every stream is explicitly
// big or little endian on the wire.
type Endianness bool

const (
	LittleEndian Endianness = false
	BigEndian    Endianness = true
)

// NativeEndianness returns the host's byte order.
func NativeEndianness() Endianness {
	if cpu.IsBigEndian {
		return BigEndian
	}
	return LittleEndian
}

// SwapNeeded reports whether values encoded in remote need their
// bytes swapped to be read in host order.
func SwapNeeded(remote Endianness) bool {
	return remote != NativeEndianness()
}

func (e Endianness) order() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (e Endianness) String() string {
	if e == BigEndian {
		return "big-endian"
	}
	return "little-endian"
}

// byteSwap reverses the bytes of bs in place. len(bs) must be 1, 2,
// 4, or 8; any other size is a programming error, matching the
// original implementation's behavior of raising on unsupported
// widths rather than silently doing the wrong thing.
func byteSwap(bs []byte) {
	switch len(bs) {
	case 1:
	case 2:
		bs[0], bs[1] = bs[1], bs[0]
	case 4:
		bs[0], bs[1], bs[2], bs[3] = bs[3], bs[2], bs[1], bs[0]
	case 8:
		bs[0], bs[1], bs[2], bs[3], bs[4], bs[5], bs[6], bs[7] =
			bs[7], bs[6], bs[5], bs[4], bs[3], bs[2], bs[1], bs[0]
	default:
		panic("byte_swap on variable of unsupported size")
	}
}

// ByteSwap reverses the in-memory byte representation of v. T must be
// a fixed-width arithmetic type (size 1, 2, 4, or 8 bytes); any other
// size is a programming error.
func ByteSwap[T Primitive](v T) T {
	bs := ToBytes(v)
	byteSwap(bs)
	return FromBytes[T](bs)
}
