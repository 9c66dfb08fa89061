package fragments

import "testing"

func TestSizeOf(t *testing.T) {
	cases := []struct {
		name string
		got  int
		want int
	}{
		{"bool", SizeOf[bool](), 1},
		{"uint8", SizeOf[uint8](), 1},
		{"int16", SizeOf[int16](), 2},
		{"uint32", SizeOf[uint32](), 4},
		{"float32", SizeOf[float32](), 4},
		{"int64", SizeOf[int64](), 8},
		{"float64", SizeOf[float64](), 8},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("SizeOf[%s]() = %d, want %d", c.name, c.got, c.want)
		}
	}
}

func TestToBytesFromBytesRoundTrip(t *testing.T) {
	v := int32(-1234567)
	bs := ToBytes(v)
	if len(bs) != 4 {
		t.Fatalf("expected 4 bytes, got %d", len(bs))
	}
	got := FromBytes[int32](bs)
	if got != v {
		t.Fatalf("round trip mismatch: got %d want %d", got, v)
	}
}

func TestByteSwapInvolution(t *testing.T) {
	v := uint64(0x0123456789ABCDEF)
	swapped := ByteSwap(v)
	if swapped == v {
		t.Fatalf("byte swap of a non-palindromic value should change it")
	}
	if ByteSwap(swapped) != v {
		t.Fatalf("byte swap should be its own inverse")
	}
}

func TestByteSwapBytesReversesInPlace(t *testing.T) {
	bs := []byte{1, 2, 3, 4}
	ByteSwapBytes(bs)
	want := []byte{4, 3, 2, 1}
	for i := range bs {
		if bs[i] != want[i] {
			t.Fatalf("ByteSwapBytes: got %v want %v", bs, want)
		}
	}
}
