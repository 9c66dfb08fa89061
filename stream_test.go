package cdr

import (
	"testing"

	"github.com/nikolov99/cdr/fragments"
)

func TestAlignNoopWhenWidthUnchanged(t *testing.T) {
	var b Base
	b = NewBase(fragments.BigEndian, 8, 0)
	b.SetBuffer(make([]byte, 16))
	b.SetPosition(1)
	b.Align(4, false) // first request at width 4: pads 1->4
	if b.Position() != 4 {
		t.Fatalf("expected position 4 after first align, got %d", b.Position())
	}
	b.SetPosition(5)
	b.Align(4, false) // same width as current_alignment: no-op, per original semantics
	if b.Position() != 5 {
		t.Fatalf("align with unchanged width should be a no-op even off-boundary, got position %d", b.Position())
	}
}

func TestAlignCapsAtMaxAlignment(t *testing.T) {
	b := NewBase(fragments.BigEndian, 4, 0)
	b.SetBuffer(make([]byte, 16))
	b.SetPosition(1)
	b.Align(8, false)
	if b.Alignment() != 4 {
		t.Fatalf("alignment should cap at max_alignment=4, got %d", b.Alignment())
	}
	if b.Position() != 4 {
		t.Fatalf("expected position 4, got %d", b.Position())
	}
}

func TestRaiseStatusAborts(t *testing.T) {
	b := NewBase(fragments.BigEndian, 8, 0)
	if b.AbortStatus() {
		t.Fatalf("fresh stream should not be aborted")
	}
	if !b.RaiseStatus(BufferSizeExceeded) {
		t.Fatalf("raising a fatal fault should abort the stream")
	}
	if !b.AbortStatus() {
		t.Fatalf("stream should remain aborted")
	}
}

func TestIgnoredFaultDoesNotAbort(t *testing.T) {
	b := NewBase(fragments.BigEndian, 8, ReadBoundExceeded)
	aborted := b.RaiseStatus(ReadBoundExceeded)
	if aborted {
		t.Fatalf("an explicitly ignored fault should not abort the stream")
	}
	if b.Status()&ReadBoundExceeded == 0 {
		t.Fatalf("ignored fault should still be recorded in status")
	}
}

func TestPrimitiveWriteReadRoundTrip(t *testing.T) {
	buf := make([]byte, 16)
	ws := NewBasicCDRStream(fragments.BigEndian, 0)
	ws.SetBuffer(buf)
	ws.SetMode(ModeWrite)
	v := int32(-12345)
	Primitive(ws, &v)
	if ws.AbortStatus() {
		t.Fatalf("write aborted: %s", ws.Status())
	}

	rs := NewBasicCDRStream(fragments.BigEndian, 0)
	rs.SetBuffer(buf[:ws.Position()])
	rs.SetMode(ModeRead)
	var got int32
	Primitive(rs, &got)
	if rs.AbortStatus() {
		t.Fatalf("read aborted: %s", rs.Status())
	}
	if got != v {
		t.Fatalf("round trip mismatch: got %d want %d", got, v)
	}
}

func TestPrimitiveByteSwapOnEndiannessMismatch(t *testing.T) {
	buf := make([]byte, 16)
	ws := NewBasicCDRStream(fragments.LittleEndian, 0)
	ws.SetBuffer(buf)
	ws.SetMode(ModeWrite)
	v := uint32(0x01020304)
	Primitive(ws, &v)

	rs := NewBasicCDRStream(fragments.BigEndian, 0)
	rs.SetBuffer(buf[:ws.Position()])
	rs.SetMode(ModeRead)
	var got uint32
	Primitive(rs, &got)
	if got == v {
		t.Fatalf("reading a little-endian stream as big-endian should byte-swap, not match verbatim")
	}
	if got != fragments.ByteSwap(v) {
		t.Fatalf("expected byte-swapped value %x, got %x", fragments.ByteSwap(v), got)
	}
}

func TestStringRejectsZeroLengthOnRead(t *testing.T) {
	buf := []byte{0x00, 0x00, 0x00, 0x00}
	s := NewBasicCDRStream(fragments.BigEndian, 0)
	s.SetBuffer(buf)
	s.SetMode(ModeRead)
	var got string
	String(s, &got, 0)
	if !s.Status().Has(IllegalFieldValue) {
		t.Fatalf("expected illegal_field_value for a zero-length string, got %s", s.Status())
	}
}

func TestStringWriteBoundExceeded(t *testing.T) {
	buf := make([]byte, 32)
	s := NewBasicCDRStream(fragments.BigEndian, 0)
	s.SetBuffer(buf)
	s.SetMode(ModeWrite)
	v := "this string is too long"
	String(s, &v, 4)
	if !s.Status().Has(WriteBoundExceeded) {
		t.Fatalf("expected write_bound_exceeded, got %s", s.Status())
	}
}

func TestPrimitiveSequenceUnboundedMaxIsSizeMax(t *testing.T) {
	s := NewBasicCDRStream(fragments.BigEndian, 0)
	s.SetMode(ModeMax)
	v := []int32{1, 2, 3}
	PrimitiveSequence(s, &v, 0)
	if s.Position() != SizeMax {
		t.Fatalf("unbounded sequence max should be SizeMax, got %d", s.Position())
	}
}

func TestPrimitiveSequenceReadBoundExceeded(t *testing.T) {
	buf := []byte{0x00, 0x00, 0x00, 0x05} // claims 5 elements
	s := NewBasicCDRStream(fragments.BigEndian, 0)
	s.SetBuffer(buf)
	s.SetMode(ModeRead)
	var v []int32
	PrimitiveSequence(s, &v, 2)
	if !s.Status().Has(ReadBoundExceeded) {
		t.Fatalf("expected read_bound_exceeded, got %s", s.Status())
	}
}

func TestBufferSizeExceededOnUndersizedWrite(t *testing.T) {
	s := NewBasicCDRStream(fragments.BigEndian, 0)
	s.SetBuffer(make([]byte, 2))
	s.SetMode(ModeWrite)
	v := int64(42)
	Primitive(s, &v)
	if !s.Status().Has(BufferSizeExceeded) {
		t.Fatalf("expected buffer_size_exceeded, got %s", s.Status())
	}
}

func TestAbortedStreamSkipsSubsequentOps(t *testing.T) {
	s := NewBasicCDRStream(fragments.BigEndian, 0)
	s.SetBuffer(make([]byte, 2))
	s.SetMode(ModeWrite)
	var a int64 = 1
	Primitive(s, &a) // too small: aborts
	posAfterAbort := s.Position()

	var b int32 = 2
	Primitive(s, &b) // must be a no-op now
	if s.Position() != posAfterAbort {
		t.Fatalf("operations after abort must be no-ops: position moved from %d to %d", posAfterAbort, s.Position())
	}
}
