package calibration

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nikolov99/cdr"
	"github.com/nikolov99/cdr/fragments"
)

func sampleValue() Sample {
	return Sample{L: 123456, C: 'g', Str: "abcdef", D: 654.321}
}

// basicGolden is the exact 32-byte encoding from §6: a big-endian
// Basic CDR stream of Sample{123456, 'g', "abcdef", 654.321}.
var basicGolden = []byte{
	0x00, 0x01, 0xE2, 0x40, // l
	0x67,                   // c
	0x00, 0x00, 0x00, // pad to 4
	0x00, 0x00, 0x00, 0x07, 'a', 'b', 'c', 'd', 'e', 'f', 0x00, // str
	0x00, 0x00, 0x00, 0x00, 0x00, // pad to 8
	0x40, 0x84, 0x72, 0x91, 0x68, 0x72, 0xB0, 0x21, // d
}

func TestBasicCDRGolden(t *testing.T) {
	v := sampleValue()
	buf := make([]byte, 64)
	s := cdr.NewBasicCDRStream(fragments.BigEndian, 0)
	s.SetBuffer(buf)
	s.SetMode(cdr.ModeWrite)
	StreamSample(s, BasicProps, &v)
	if s.AbortStatus() {
		t.Fatalf("write aborted: %s", s.Status())
	}
	got := buf[:s.Position()]
	if !bytes.Equal(got, basicGolden) {
		t.Fatalf("basic CDR encoding mismatch:\n got  % X\n want % X", got, basicGolden)
	}

	var back Sample
	s.SetBuffer(got)
	s.SetMode(cdr.ModeRead)
	StreamSample(s, BasicProps, &back)
	if s.AbortStatus() {
		t.Fatalf("read aborted: %s", s.Status())
	}
	if diff := cmp.Diff(v, back); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBasicCDRKeyProjection(t *testing.T) {
	v := sampleValue()
	buf := make([]byte, 8)
	s := cdr.NewBasicCDRStream(fragments.BigEndian, 0)
	s.SetBuffer(buf)
	s.SetMode(cdr.ModeWrite)
	s.SetKey(true)
	StreamSample(s, BasicProps, &v)
	if s.AbortStatus() {
		t.Fatalf("write aborted: %s", s.Status())
	}
	got := buf[:s.Position()]
	want := []byte{'g'}
	if !bytes.Equal(got, want) {
		t.Fatalf("key projection mismatch: got % X want % X", got, want)
	}
}

// appendableGolden is the XCDR v2 appendable encoding: the same body
// as basicGolden but with a 4-byte DHEADER and 4-byte max alignment,
// which shrinks the pre-double pad from 5 bytes to 1.
var appendableGolden = []byte{
	0x00, 0x00, 0x00, 0x1C, // DHEADER, body length 28
	0x00, 0x01, 0xE2, 0x40, // l
	0x67,             // c
	0x00, 0x00, 0x00, // pad to 4
	0x00, 0x00, 0x00, 0x07, 'a', 'b', 'c', 'd', 'e', 'f', 0x00, // str
	0x00,                                           // pad to 4
	0x40, 0x84, 0x72, 0x91, 0x68, 0x72, 0xB0, 0x21, // d
}

func TestXCDR2AppendableGolden(t *testing.T) {
	v := sampleValue()
	buf := make([]byte, 64)
	s := cdr.NewXCDR2Stream(fragments.BigEndian, 0)
	s.SetBuffer(buf)
	s.SetMode(cdr.ModeWrite)
	StreamSample(s, AppendableProps, &v)
	if s.AbortStatus() {
		t.Fatalf("write aborted: %s", s.Status())
	}
	got := buf[:s.Position()]
	if !bytes.Equal(got, appendableGolden) {
		t.Fatalf("XCDR v2 appendable encoding mismatch:\n got  % X\n want % X", got, appendableGolden)
	}

	var back Sample
	s.SetBuffer(got)
	s.SetMode(cdr.ModeRead)
	StreamSample(s, AppendableProps, &back)
	if s.AbortStatus() {
		t.Fatalf("read aborted: %s", s.Status())
	}
	if diff := cmp.Diff(v, back); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

// TestXCDR1MutableRoundTrip exercises the PL-encoded mutable layout.
// The exact byte positions of each PID header depend on the
// interaction between per-member and per-primitive alignment calls
// (see the original align() quirk: a request for the same alignment
// width as the immediately preceding one is a no-op even mid-buffer),
// so this asserts structure and round-trip fidelity rather than a
// hand-derived byte-exact sequence.
func TestXCDR1MutableRoundTrip(t *testing.T) {
	v := sampleValue()
	buf := make([]byte, 128)
	s := cdr.NewXCDR1Stream(fragments.BigEndian, 0)
	s.SetBuffer(buf)
	s.SetMode(cdr.ModeWrite)
	StreamSample(s, MutableProps, &v)
	if s.AbortStatus() {
		t.Fatalf("write aborted: %s", s.Status())
	}
	got := buf[:s.Position()]
	if len(got) < 4 || !bytes.Equal(got[len(got)-4:], []byte{0x7F, 0x02, 0x00, 0x00}) {
		t.Fatalf("missing PID_LIST_END terminator: % X", got)
	}

	var back Sample
	s.SetBuffer(got)
	s.SetMode(cdr.ModeRead)
	StreamSample(s, MutableProps, &back)
	if s.AbortStatus() {
		t.Fatalf("read aborted: %s", s.Status())
	}
	if diff := cmp.Diff(v, back); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestXCDR2MutableRoundTrip(t *testing.T) {
	v := sampleValue()
	buf := make([]byte, 128)
	s := cdr.NewXCDR2Stream(fragments.BigEndian, 0)
	s.SetBuffer(buf)
	s.SetMode(cdr.ModeWrite)
	StreamSample(s, MutableProps, &v)
	if s.AbortStatus() {
		t.Fatalf("write aborted: %s", s.Status())
	}
	got := buf[:s.Position()]
	dheader := fragments.FromBytes[uint32](got[0:4])
	if fragments.SwapNeeded(fragments.BigEndian) {
		dheader = fragments.ByteSwap(dheader)
	}
	if dheader != uint32(len(got)-4) {
		t.Fatalf("DHEADER %d does not match body length %d", dheader, len(got)-4)
	}

	var back Sample
	s.SetBuffer(got)
	s.SetMode(cdr.ModeRead)
	StreamSample(s, MutableProps, &back)
	if s.AbortStatus() {
		t.Fatalf("read aborted: %s", s.Status())
	}
	if diff := cmp.Diff(v, back); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMoveMatchesWriteLength(t *testing.T) {
	for _, tc := range []struct {
		name  string
		props *cdr.Property
		newS  func() cdr.Stream
	}{
		{"basic", BasicProps, func() cdr.Stream { return cdr.NewBasicCDRStream(fragments.BigEndian, 0) }},
		{"xcdr2-appendable", AppendableProps, func() cdr.Stream { return cdr.NewXCDR2Stream(fragments.BigEndian, 0) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			v := sampleValue()
			mv := tc.newS()
			mv.SetMode(cdr.ModeMove)
			StreamSample(mv, tc.props, &v)
			if mv.AbortStatus() {
				t.Fatalf("move aborted: %s", mv.Status())
			}

			buf := make([]byte, mv.Position())
			ws := tc.newS()
			ws.SetBuffer(buf)
			ws.SetMode(cdr.ModeWrite)
			StreamSample(ws, tc.props, &v)
			if ws.AbortStatus() {
				t.Fatalf("write aborted: %s", ws.Status())
			}
			if ws.Position() != mv.Position() {
				t.Fatalf("move position %d != write position %d", mv.Position(), ws.Position())
			}
		})
	}
}

func TestMaxUnboundedStringIsSizeMax(t *testing.T) {
	props := buildSampleProps(cdr.Final)
	v := sampleValue()
	s := cdr.NewBasicCDRStream(fragments.BigEndian, 0)
	s.SetMode(cdr.ModeMax)
	StreamSample(s, props, &v)
	if s.Position() != cdr.SizeMax {
		t.Fatalf("Sample.Str is an unbounded string, max should be SizeMax, got %d", s.Position())
	}
}
