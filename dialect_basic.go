package cdr

import "github.com/nikolov99/cdr/fragments"

// BasicCDRStream implements plain OMG CDR: positional member order,
// no headers, no delimiters. Every constructed type is effectively
// final regardless of its declared extensibility — Basic CDR predates
// XTypes and has no wire representation for appendable or mutable
// evolution.
type BasicCDRStream struct {
	Base
}

// NewBasicCDRStream constructs a Basic CDR stream for the given wire
// endianness. Basic CDR aligns up to 8 bytes (the width of a double
// or int64) and treats every fault as abort-worthy unless told
// otherwise.
func NewBasicCDRStream(end fragments.Endianness, ignoreFaults Status) *BasicCDRStream {
	return &BasicCDRStream{Base: NewBase(end, 8, ignoreFaults)}
}

var _ Stream = (*BasicCDRStream)(nil)

// StartStruct is a no-op: Basic CDR has no struct-level framing.
func (s *BasicCDRStream) StartStruct(props *Property, mode Mode) {}

// FinishStruct is a no-op: Basic CDR has no struct-level framing.
func (s *BasicCDRStream) FinishStruct(props *Property, mode Mode) {}

// StartMember writes nothing: Basic CDR has no per-member header, so
// it cannot carry an optional member's presence and raises
// UnsupportedProperty for an optional member. It returns present
// unchanged.
func (s *BasicCDRStream) StartMember(prop *Property, mode Mode, present bool) bool {
	if prop.IsOptional {
		s.RaiseStatus(UnsupportedProperty)
	}
	return present
}

// FinishMember is a no-op: Basic CDR has no per-member trailer.
func (s *BasicCDRStream) FinishMember(prop *Property, mode Mode, present bool) {}

// SkipEntity advances the cursor by prop's last-measured size. Basic
// CDR only needs this for an ignored member; it never needs to
// recover from an unknown member, since positional dispatch has none.
func (s *BasicCDRStream) SkipEntity(prop *Property) {
	s.IncrPosition(uint64(prop.EntitySize))
}

// NextEntity walks props' declaration-order member list with no
// header inspection: Basic CDR always knows, from position alone,
// which member comes next.
func (s *BasicCDRStream) NextEntity(props *Property, asKey bool, mode Mode, firstCall *bool) *Property {
	list := BySeq
	if asKey {
		list = KeysBySeq
	}
	return s.nextProp(props, list, firstCall)
}
