package cdr

import "github.com/nikolov99/cdr/fragments"

const (
	pidFlagMustUnderstand uint16 = 0x4000
	pidFlagImplExtension  uint16 = 0x8000
	pidIDMask             uint16 = 0x3FFF
	pidSentinel           uint16 = 0x3F02
)

// XCDR1Stream implements XTypes' first-generation extended CDR:
// final and appendable structs stay positional, exactly like Basic
// CDR; mutable structs switch to parameter-list (PL) framing, where
// each member is preceded by a 2-byte id/flags word and a 2-byte
// byte length, and the member list is closed by a sentinel PID.
type XCDR1Stream struct {
	Base

	// pendingMemberEnd is the buffer offset at which the member
	// currently being read is declared to end, set by NextEntity
	// when it parses a PL header and consumed by FinishMember to
	// skip any bytes this reader's stream_op didn't account for.
	pendingMemberEnd uint64
	havePendingEnd   bool
}

// NewXCDR1Stream constructs an XCDR v1 stream for the given wire
// endianness. XCDR v1 shares Basic CDR's 8-byte maximum alignment.
func NewXCDR1Stream(end fragments.Endianness, ignoreFaults Status) *XCDR1Stream {
	return &XCDR1Stream{Base: NewBase(end, 8, ignoreFaults)}
}

var _ Stream = (*XCDR1Stream)(nil)

func (s *XCDR1Stream) StartStruct(props *Property, mode Mode) {}

// FinishStruct closes a mutable struct's parameter list by writing
// the sentinel PID. Final and appendable structs have no trailer.
func (s *XCDR1Stream) FinishStruct(props *Property, mode Mode) {
	if props.EntityExt != Mutable || mode == ModeRead {
		return
	}
	s.Align(4, true)
	s.writeUint16(pidSentinel | pidFlagMustUnderstand)
	s.writeUint16(0)
}

// StartMember frames one member. Under final/appendable extensibility
// it writes nothing and reports presence; an optional member raises
// UnsupportedProperty outside read mode, since no presence header is
// emitted for it. Under mutable extensibility and a non-read mode, it writes the PID
// header (or, for an absent optional member, emits nothing and
// returns false). Under mutable extensibility in read mode, the
// header has already been parsed by NextEntity; StartMember only
// reports presence.
func (s *XCDR1Stream) StartMember(prop *Property, mode Mode, present bool) bool {
	if prop.ParentExt != Mutable {
		if prop.IsOptional && mode != ModeRead {
			s.RaiseStatus(UnsupportedProperty)
		}
		return present
	}
	if mode == ModeRead {
		return present
	}
	if !present {
		return false
	}
	s.Align(4, true)
	pid := prop.MemberID
	if pid >= uint32(pidIDMask) {
		s.RaiseStatus(InvalidPLEntry)
		return present
	}
	word := uint16(pid)
	if prop.MustUnderstand {
		word |= pidFlagMustUnderstand
	}
	s.writeUint16(word)
	prop.EntityOffset = s.Position()
	s.writeUint16(0) // length placeholder, patched in FinishMember
	return present
}

// FinishMember patches a mutable member's length placeholder (for
// non-read modes) or skips to the declared end of the member (for
// read mode), so that a member this reader decoded with a shorter
// shape than the sender's doesn't desynchronize the stream.
func (s *XCDR1Stream) FinishMember(prop *Property, mode Mode, present bool) {
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
	length := s.Position() - prop.EntityOffset - 2
	if length > 0xFFFF {
		s.RaiseStatus(InvalidPLEntry)
		return
	}
	if mode == ModeWrite && s.Buffer() != nil {
		off := int(prop.EntityOffset)
		if off+2 <= len(s.Buffer()) {
			b := fragments.ToBytes(uint16(length))
			if s.SwapEndianness() {
				fragments.ByteSwapBytes(b)
			}
			copy(s.Buffer()[off:off+2], b)
		}
	}
}

// SkipEntity advances past an unknown or ignored mutable member by
// the length already recorded from its PL header.
func (s *XCDR1Stream) SkipEntity(prop *Property) {
	if s.havePendingEnd {
		s.SetPosition(s.pendingMemberEnd)
		s.havePendingEnd = false
		return
	}
	s.IncrPosition(uint64(prop.EntitySize))
}

// NextEntity walks props' member list. For final/appendable
// extensibility this is purely positional, like Basic CDR. For
// mutable extensibility it parses the next PL header off the wire,
// looks the member up by id, and either returns it (recording its
// declared end for FinishMember/SkipEntity), raises
// MustUnderstandFail for an unknown must-understand member, or skips
// an unknown non-must-understand member and tries again.
func (s *XCDR1Stream) NextEntity(props *Property, asKey bool, mode Mode, firstCall *bool) *Property {
	if props.EntityExt != Mutable || mode != ModeRead {
		list := BySeq
		if asKey {
			list = KeysBySeq
		}
		return s.nextProp(props, list, firstCall)
	}

	idList := ByID
	if asKey {
		idList = KeysByID
	}
	if *firstCall {
		*firstCall = false
	}

	for {
		s.Align(4, false)
		cur := s.Cursor()
		if len(cur) < 4 {
			s.RaiseStatus(InvalidPLEntry)
			return finalEntry()
		}
		word := fragments.FromBytes[uint16](cur[0:2])
		length := fragments.FromBytes[uint16](cur[2:4])
		if s.SwapEndianness() {
			word = fragments.ByteSwap(word)
			length = fragments.ByteSwap(length)
		}
		s.IncrPosition(4)

		if word&pidIDMask == pidSentinel && length == 0 {
			return finalEntry()
		}

		id := uint32(word & pidIDMask)
		mustUnderstand := word&pidFlagMustUnderstand != 0
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

		member.EntitySize = uint32(length)
		s.pendingMemberEnd = end
		s.havePendingEnd = true
		return member
	}
}

func (s *XCDR1Stream) writeUint16(v uint16) {
	if s.Buffer() == nil || s.Mode() != ModeWrite {
		s.IncrPosition(2)
		return
	}
	b := fragments.ToBytes(v)
	if s.SwapEndianness() {
		fragments.ByteSwapBytes(b)
	}
	off := int(s.Position())
	if off+2 <= len(s.Buffer()) {
		copy(s.Buffer()[off:off+2], b)
	} else {
		s.RaiseStatus(BufferSizeExceeded)
	}
	s.IncrPosition(2)
}
