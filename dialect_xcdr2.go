package cdr

import "github.com/nikolov99/cdr/fragments"

const emHeaderMustUnderstand uint32 = 1 << 31
const emHeaderLCShift = 28
const emHeaderLCMask uint32 = 0x7
const emHeaderIDMask uint32 = (1 << 28) - 1

// emHeaderLCExplicit is the EMHEADER length-code value meaning "an
// explicit 4-byte NEXTINT length follows the header". It is always
// valid regardless of the member's actual shape, so this
// implementation always emits it rather than also supporting the
// compact length codes 0-3 (whose byte count is inferred from the
// member's primitive width) or the sequence-oriented codes 5-7.
const emHeaderLCExplicit uint32 = 4

// XCDR2Stream implements XTypes' second-generation extended CDR:
// appendable and mutable structs are prefixed with a DHEADER (a
// 4-byte byte length of the struct's body), letting a reader stop
// before trailing members it doesn't recognize; final structs have
// no such prefix. Mutable members are additionally prefixed with a
// 4-byte EMHEADER1 carrying the member id and a must-understand bit.
type XCDR2Stream struct {
	Base

	// dheaderOffsets stacks the buffer offset of each open DHEADER
	// placeholder (write/move/max), one per nesting level.
	dheaderOffsets []uint64
	// bodyLimits stacks, per open appendable/mutable struct being
	// read, the buffer offset at which its DHEADER body ends.
	bodyLimits []uint64

	pendingMemberEnd uint64
	havePendingEnd   bool
}

// NewXCDR2Stream constructs an XCDR v2 stream for the given wire
// endianness. XCDR v2 aligns up to 4 bytes; 8-byte primitives are
// aligned as if 4 bytes wide, per the XTypes v2 wire format.
func NewXCDR2Stream(end fragments.Endianness, ignoreFaults Status) *XCDR2Stream {
	return &XCDR2Stream{Base: NewBase(end, 4, ignoreFaults)}
}

var _ Stream = (*XCDR2Stream)(nil)

// StartStruct opens a DHEADER for appendable/mutable structs: writes
// a length placeholder (non-read modes) or reads the declared body
// length and records its end (read mode). Final structs are
// positional with no prefix.
func (s *XCDR2Stream) StartStruct(props *Property, mode Mode) {
	if props.EntityExt == Final {
		return
	}
	s.Align(4, true)
	if mode == ModeRead {
		cur := s.Cursor()
		if len(cur) < 4 {
			s.RaiseStatus(InvalidDLEntry)
			s.bodyLimits = append(s.bodyLimits, s.Position())
			return
		}
		length := fragments.FromBytes[uint32](cur[0:4])
		if s.SwapEndianness() {
			length = fragments.ByteSwap(length)
		}
		s.IncrPosition(4)
		s.bodyLimits = append(s.bodyLimits, s.Position()+uint64(length))
		return
	}
	s.dheaderOffsets = append(s.dheaderOffsets, s.Position())
	s.writeUint32(0)
}

// FinishStruct closes the DHEADER opened by StartStruct: patches the
// body length (non-read modes) or, in read mode, skips any trailing
// members this reader doesn't know about by jumping to the recorded
// body end.
func (s *XCDR2Stream) FinishStruct(props *Property, mode Mode) {
	if props.EntityExt == Final {
		return
	}
	if mode == ModeRead {
		n := len(s.bodyLimits)
		if n == 0 {
			return
		}
		limit := s.bodyLimits[n-1]
		s.bodyLimits = s.bodyLimits[:n-1]
		if s.Position() != SizeMax && limit > s.Position() {
			s.SetPosition(limit)
		}
		return
	}
	n := len(s.dheaderOffsets)
	if n == 0 {
		return
	}
	off := s.dheaderOffsets[n-1]
	s.dheaderOffsets = s.dheaderOffsets[:n-1]
	if s.Position() == SizeMax {
		return
	}
	length := s.Position() - off - 4
	if mode == ModeWrite && s.Buffer() != nil {
		b := fragments.ToBytes(uint32(length))
		if s.SwapEndianness() {
			fragments.ByteSwapBytes(b)
		}
		o := int(off)
		if o+4 <= len(s.Buffer()) {
			copy(s.Buffer()[o:o+4], b)
		}
	}
}

// StartMember frames one member. Final and appendable members are
// positional: nothing is written, and an optional member gets no
// presence byte (it is streamed like any other member). Mutable members get an
// EMHEADER1 in non-read modes (or, if absent-optional, nothing at
// all); in read mode the header has already been parsed by
// NextEntity.
func (s *XCDR2Stream) StartMember(prop *Property, mode Mode, present bool) bool {
	if prop.ParentExt != Mutable {
		return present
	}
	if mode == ModeRead {
		return present
	}
	if !present {
		return false
	}
	s.Align(4, true)
	header := uint32(prop.MemberID) & emHeaderIDMask
	header |= emHeaderLCExplicit << emHeaderLCShift
	if prop.MustUnderstand {
		header |= emHeaderMustUnderstand
	}
	s.writeUint32(header)
	prop.EntityOffset = s.Position()
	s.writeUint32(0) // NEXTINT length placeholder
	return present
}

// FinishMember patches a mutable member's NEXTINT length placeholder
// (non-read modes) or skips to its declared end (read mode).
func (s *XCDR2Stream) FinishMember(prop *Property, mode Mode, present bool) {
	if !present || prop.ParentExt != Mutable {
		return
	}
	if mode == ModeRead {
		if s.havePendingEnd {
			if s.pendingMemberEnd > s.Position() {
				s.SetPosition(s.pendingMemberEnd)
			}
			s.havePendingEnd = false
		}
		return
	}
	if s.Position() == SizeMax {
		return
	}
	length := s.Position() - prop.EntityOffset - 4
	if mode == ModeWrite && s.Buffer() != nil {
		b := fragments.ToBytes(uint32(length))
		if s.SwapEndianness() {
			fragments.ByteSwapBytes(b)
		}
		off := int(prop.EntityOffset)
		if off+4 <= len(s.Buffer()) {
			copy(s.Buffer()[off:off+4], b)
		}
	}
}

// SkipEntity advances past an unknown or ignored member by its
// recorded declared end, falling back to its last-measured size.
func (s *XCDR2Stream) SkipEntity(prop *Property) {
	if s.havePendingEnd {
		s.SetPosition(s.pendingMemberEnd)
		s.havePendingEnd = false
		return
	}
	s.IncrPosition(uint64(prop.EntitySize))
}

// NextEntity walks props' member list. Final structs are purely
// positional. Appendable structs are positional too, but reads stop
// early once the DHEADER body is exhausted, even if declared members
// remain (the sender appended members this reader predates). Mutable
// structs parse an EMHEADER1 per member while reading, dispatching by
// id exactly as XCDR1Stream does with its PID headers.
func (s *XCDR2Stream) NextEntity(props *Property, asKey bool, mode Mode, firstCall *bool) *Property {
	if mode != ModeRead || props.EntityExt == Final {
		list := BySeq
		if asKey {
			list = KeysBySeq
		}
		return s.nextProp(props, list, firstCall)
	}

	if props.EntityExt == Appendable {
		if n := len(s.bodyLimits); n > 0 && s.Position() >= s.bodyLimits[n-1] {
			return finalEntry()
		}
		list := BySeq
		if asKey {
			list = KeysBySeq
		}
		return s.nextProp(props, list, firstCall)
	}

	// Mutable: dispatch by id, bounded by the enclosing DHEADER.
	idList := ByID
	if asKey {
		idList = KeysByID
	}
	if *firstCall {
		*firstCall = false
	}

	for {
		if n := len(s.bodyLimits); n > 0 && s.Position() >= s.bodyLimits[n-1] {
			return finalEntry()
		}
		s.Align(4, false)
		cur := s.Cursor()
		if len(cur) < 4 {
			s.RaiseStatus(InvalidDLEntry)
			return finalEntry()
		}
		header := fragments.FromBytes[uint32](cur[0:4])
		if s.SwapEndianness() {
			header = fragments.ByteSwap(header)
		}
		s.IncrPosition(4)

		mustUnderstand := header&emHeaderMustUnderstand != 0
		lc := (header >> emHeaderLCShift) & emHeaderLCMask
		id := header & emHeaderIDMask

		var length uint32
		switch lc {
		case 0:
			length = 1
		case 1:
			length = 2
		case 2:
			length = 4
		case 3:
			length = 8
		default:
			lenCur := s.Cursor()
			if len(lenCur) < 4 {
				s.RaiseStatus(InvalidDLEntry)
				return finalEntry()
			}
			length = fragments.FromBytes[uint32](lenCur[0:4])
			if s.SwapEndianness() {
				length = fragments.ByteSwap(length)
			}
			switch lc {
			case 4:
				// NEXTINT is the member length and precedes the member.
				s.IncrPosition(4)
			case 5:
				// Codes 5-7: NEXTINT is the member's own leading count,
				// scaled by 1, 4 or 8, and stays part of the member.
				length = 4 + length
			case 6:
				length = 4 + length*4
			case 7:
				length = 4 + length*8
			}
		}
		end := s.Position() + uint64(length)

		member := props.ByMemberID(idList, id)
		if member == nil {
			if mustUnderstand {
				s.RaiseStatus(MustUnderstandFail)
				return finalEntry()
			}
			s.SetPosition(end)
			continue
		}

		member.EntitySize = length
		s.pendingMemberEnd = end
		s.havePendingEnd = true
		return member
	}
}

func (s *XCDR2Stream) writeUint32(v uint32) {
	if s.Buffer() == nil || s.Mode() != ModeWrite {
		s.IncrPosition(4)
		return
	}
	b := fragments.ToBytes(v)
	if s.SwapEndianness() {
		fragments.ByteSwapBytes(b)
	}
	off := int(s.Position())
	if off+4 <= len(s.Buffer()) {
		copy(s.Buffer()[off:off+4], b)
	} else {
		s.RaiseStatus(BufferSizeExceeded)
	}
	s.IncrPosition(4)
}
