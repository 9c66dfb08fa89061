package cdr

import "github.com/nikolov99/cdr/fragments"

// This file holds the stream operations (§C5) that generated
// stream_op procedures are built from: primitives, bounded strings,
// bounded sequences, and fixed arrays. Nested struct/union members
// are not handled here — generated code calls the nested type's own
// stream_op directly, bracketed by Member.

// Primitive reads, writes, moves, or maxes one primitive-width value,
// aligning to its natural width first. It is a no-op if the stream
// has already aborted.
func Primitive[T fragments.Primitive](s Stream, v *T) {
	if s.AbortStatus() {
		return
	}
	width := fragments.SizeOf[T]()
	s.Align(width, s.Mode() == ModeWrite)

	switch s.Mode() {
	case ModeRead:
		cur := s.Cursor()
		if len(cur) < width {
			s.RaiseStatus(BufferSizeExceeded)
			return
		}
		bs := cur[:width]
		val := fragments.FromBytes[T](bs)
		if s.SwapEndianness() {
			val = fragments.ByteSwap(val)
		}
		*v = val
		s.IncrPosition(uint64(width))

	case ModeWrite:
		bs := fragments.ToBytes(*v)
		if s.SwapEndianness() {
			fragments.ByteSwapBytes(bs)
		}
		if buf := s.Buffer(); buf != nil {
			off := int(s.Position())
			if off+width > len(buf) {
				s.RaiseStatus(BufferSizeExceeded)
				return
			}
			copy(buf[off:off+width], bs)
		}
		s.IncrPosition(uint64(width))

	case ModeMove, ModeMax:
		s.IncrPosition(uint64(width))
	}
}

// String reads, writes, moves, or maxes a bounded or unbounded (bound
// == 0) CDR string: a uint32 byte count (including the trailing NUL),
// the characters, and a trailing NUL byte.
func String(s Stream, v *string, bound uint32) {
	if s.AbortStatus() {
		return
	}

	switch s.Mode() {
	case ModeRead:
		var length uint32
		Primitive(s, &length)
		if s.AbortStatus() {
			return
		}
		if length == 0 {
			s.RaiseStatus(IllegalFieldValue)
			return
		}
		if bound > 0 && length-1 > bound {
			s.RaiseStatus(ReadBoundExceeded)
			return
		}
		cur := s.Cursor()
		if uint32(len(cur)) < length {
			s.RaiseStatus(BufferSizeExceeded)
			return
		}
		*v = string(cur[:length-1])
		s.IncrPosition(uint64(length))

	case ModeWrite:
		n := uint32(len(*v))
		if bound > 0 && n > bound {
			s.RaiseStatus(WriteBoundExceeded)
			return
		}
		length := n + 1
		Primitive(s, &length)
		if buf := s.Buffer(); buf != nil {
			off := int(s.Position())
			if off+int(length) > len(buf) {
				s.RaiseStatus(BufferSizeExceeded)
				return
			}
			copy(buf[off:off+int(n)], *v)
			buf[off+int(n)] = 0
		}
		s.IncrPosition(uint64(length))

	case ModeMove:
		n := uint32(len(*v))
		if bound > 0 && n > bound {
			s.RaiseStatus(MoveBoundExceeded)
			return
		}
		var length uint32
		Primitive(s, &length)
		s.IncrPosition(uint64(n) + 1)

	case ModeMax:
		if bound == 0 {
			s.SetPosition(SizeMax)
			return
		}
		var length uint32
		Primitive(s, &length)
		s.IncrPosition(uint64(bound) + 1)
	}
}

// PrimitiveSequence reads, writes, moves, or maxes a bounded or
// unbounded (bound == 0) sequence of primitive-width elements: a
// uint32 element count followed by the elements themselves.
func PrimitiveSequence[T fragments.Primitive](s Stream, v *[]T, bound uint32) {
	if s.AbortStatus() {
		return
	}

	switch s.Mode() {
	case ModeRead:
		var n uint32
		Primitive(s, &n)
		if s.AbortStatus() {
			return
		}
		if bound > 0 && n > bound {
			s.RaiseStatus(ReadBoundExceeded)
			return
		}
		out := make([]T, n)
		for i := range out {
			Primitive(s, &out[i])
			if s.AbortStatus() {
				return
			}
		}
		*v = out

	case ModeWrite, ModeMove:
		n := uint32(len(*v))
		if bound > 0 && n > bound {
			if s.Mode() == ModeWrite {
				s.RaiseStatus(WriteBoundExceeded)
			} else {
				s.RaiseStatus(MoveBoundExceeded)
			}
			return
		}
		Primitive(s, &n)
		for i := range *v {
			Primitive(s, &(*v)[i])
			if s.AbortStatus() {
				return
			}
		}

	case ModeMax:
		if bound == 0 {
			s.SetPosition(SizeMax)
			return
		}
		var n uint32
		Primitive(s, &n)
		width := fragments.SizeOf[T]()
		s.Align(width, false)
		s.IncrPosition(uint64(bound) * uint64(width))
	}
}

// PrimitiveArray reads, writes, moves, or maxes a fixed-length array
// of primitive-width elements: no length prefix, since the element
// count is part of the type.
func PrimitiveArray[T fragments.Primitive](s Stream, v []T) {
	for i := range v {
		Primitive(s, &v[i])
		if s.AbortStatus() {
			return
		}
	}
}

// Member brackets a single member's stream_op with the dialect's
// framing (StartMember/FinishMember). present indicates whether an
// optional member's value is being carried; op is skipped and the
// member reported absent for an optional member that is not present
// while writing. While reading, a member whose presence StartMember
// reports false is left untouched.
func Member(s Stream, prop *Property, present bool, op func()) {
	if s.AbortStatus() {
		return
	}
	ok := s.StartMember(prop, s.Mode(), present)
	if ok {
		op()
	}
	s.FinishMember(prop, s.Mode(), ok)
}

// Struct brackets a constructed type's member loop with the
// dialect's struct-level framing (StartStruct/FinishStruct: a
// DHEADER for XCDR v2 appendable/mutable types, a PID sentinel for
// XCDR v1 mutable types, or nothing for everything else).
func Struct(s Stream, props *Property, body func()) {
	s.StartStruct(props, s.Mode())
	if !s.AbortStatus() {
		body()
	}
	s.FinishStruct(props, s.Mode())
}

// ReadDispatch drives a mutable or appendable struct's read loop:
// it repeatedly asks the dialect for the next known member (already
// filtered for must-understand failures and unknown-member skipping)
// and invokes dispatch with that member's id, which the generated
// stream_op uses to decode into the right Go field. The loop stops
// when NextEntity returns the list terminator or the stream aborts.
func ReadDispatch(s Stream, props *Property, asKey bool, dispatch func(memberID uint32)) {
	firstCall := true
	for {
		if s.AbortStatus() {
			return
		}
		m := s.NextEntity(props, asKey, ModeRead, &firstCall)
		if !m.Ok() {
			return
		}
		dispatch(m.MemberID)
	}
}

// WriteEach drives a struct's write/move/max member loop in
// declaration order: generated code supplies visit, which is
// expected to call Member around each field's stream_op itself (so
// it can compute that field's present flag from the Go value).
func WriteEach(props *Property, asKey bool, visit func(prop *Property)) {
	list := BySeq
	if asKey {
		list = KeysBySeq
	}
	for _, m := range props.Members(list) {
		visit(m)
	}
}
