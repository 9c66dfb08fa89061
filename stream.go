package cdr

import "github.com/nikolov99/cdr/fragments"

// SizeMax is the sentinel position value meaning "unbounded": it is
// produced only by a ModeMax computation that encounters an unbounded
// member, and once set, no further operation may mutate Position
// (invariant 5).
const SizeMax = ^uint64(0)

// Stream is the common contract every CDR dialect implements. Dialect
// streams differ only in struct/member framing (headers, delimiters,
// dispatch-by-id); alignment, position tracking, and status
// accumulation are shared via the embedded Base.
//
// This mirrors the original C++ implementation's abstract cdr_stream
// base class with pure virtual start_struct/finish_struct/
// start_member/finish_member/skip_entity/next_entity methods: Go has
// no template specialization, so a runtime interface plays the same
// role the vtable does there.
type Stream interface {
	// Mode reports which of the four streaming operations this
	// stream is currently performing.
	Mode() Mode
	// SetMode selects the operation the next stream_op call performs.
	SetMode(m Mode)

	Endianness() fragments.Endianness
	LocalEndianness() fragments.Endianness
	SwapEndianness() bool

	Position() uint64
	SetPosition(p uint64)
	IncrPosition(n uint64) uint64
	ResetPosition()

	Buffer() []byte
	SetBuffer(buf []byte)
	Cursor() []byte

	Alignment() int
	MaxAlignment() int
	Align(newAlignment int, addZeroes bool) int

	Status() Status
	RaiseStatus(flag Status) bool
	AbortStatus() bool

	Key() bool
	SetKey(k bool)

	// StartStruct/FinishStruct bracket one constructed type's
	// members: emitting/parsing a DHEADER (v2 appendable/mutable) or
	// doing nothing (Basic CDR, v1 final/appendable, v2 final).
	StartStruct(props *Property, mode Mode)
	FinishStruct(props *Property, mode Mode)

	// StartMember/FinishMember bracket one member: emitting/parsing
	// a PL or EMHEADER1 header where the dialect requires one.
	// StartMember returns whether the member is present (relevant
	// only for optional members and, while reading, absent mutable
	// members).
	StartMember(prop *Property, mode Mode, present bool) bool
	FinishMember(prop *Property, mode Mode, present bool)

	// SkipEntity advances the cursor past an entity the caller has
	// decided not to decode (unknown non-must-understand member, or
	// ignored member), without invoking that entity's stream_op.
	SkipEntity(prop *Property)

	// NextEntity returns the next member to process from props'
	// asKey-selected list, performing whatever header
	// read/peek/dispatch the dialect needs to decide which member
	// comes next. Returns a list-terminator Property (Ok()==false)
	// when there are no more members at this nesting level.
	NextEntity(props *Property, asKey bool, mode Mode, firstCall *bool) *Property
}

// iterFrame is one level of the member-iteration stack: the list
// being walked, the next index to hand out, and an end offset.
// nextProp always records SizeMax as the end offset and nothing reads
// it back; XCDR2Stream tracks DHEADER body ends in its own bodyLimits.
type iterFrame struct {
	list  []*Property
	idx   int
	limit uint64 // SizeMax if not bounded by a DHEADER
}

// Base holds the state and default behavior shared by every dialect:
// position/alignment tracking, the status bitmask, and the default
// next_prop iterator walk. Dialect streams embed Base and override
// the framing methods Stream requires.
type Base struct {
	mode Mode

	streamEndianness fragments.Endianness
	localEndianness  fragments.Endianness

	position         uint64
	maxAlignment     int
	currentAlignment int

	buffer []byte

	status    Status
	faultMask Status

	key bool

	stack []iterFrame
}

// NewBase initializes the shared stream state for a dialect with the
// given wire endianness, maximum alignment, and fault mask (bits set
// in ignoreFaults are demoted from fatal to recoverable).
func NewBase(end fragments.Endianness, maxAlignment int, ignoreFaults Status) Base {
	return Base{
		streamEndianness: end,
		localEndianness:  fragments.NativeEndianness(),
		maxAlignment:     maxAlignment,
		faultMask:        ^ignoreFaults,
	}
}

func (b *Base) Mode() Mode { return b.mode }

// SetMode selects the streaming operation. cdrgen emits no per-mode
// entry points, so callers set the mode before calling a generated
// Stream<Type> function.
func (b *Base) SetMode(m Mode) { b.mode = m }

func (b *Base) Endianness() fragments.Endianness      { return b.streamEndianness }
func (b *Base) LocalEndianness() fragments.Endianness { return b.localEndianness }
func (b *Base) SwapEndianness() bool                  { return b.streamEndianness != b.localEndianness }

func (b *Base) Position() uint64 { return b.position }
func (b *Base) SetPosition(p uint64) {
	b.position = p
}
func (b *Base) IncrPosition(n uint64) uint64 {
	if b.position != SizeMax {
		b.position += n
	}
	return b.position
}
func (b *Base) ResetPosition() {
	b.position = 0
	b.currentAlignment = 0
	b.status = 0
	b.stack = nil
}

func (b *Base) Buffer() []byte { return b.buffer }
func (b *Base) SetBuffer(buf []byte) {
	b.buffer = buf
	b.ResetPosition()
}

// Cursor returns the unread/unwritten remainder of the buffer, or nil
// if the position is unbounded or no buffer is set.
func (b *Base) Cursor() []byte {
	if b.position == SizeMax || b.buffer == nil || b.position > uint64(len(b.buffer)) {
		return nil
	}
	return b.buffer[b.position:]
}

func (b *Base) Alignment() int    { return b.currentAlignment }
func (b *Base) MaxAlignment() int { return b.maxAlignment }

// Align brings the stream to newAlignment (capped at MaxAlignment),
// zero-filling the inserted padding when addZeroes is true, and
// returns the number of padding bytes inserted.
func (b *Base) Align(newAlignment int, addZeroes bool) int {
	if b.currentAlignment == newAlignment {
		return 0
	}
	ca := newAlignment
	if ca > b.maxAlignment {
		ca = b.maxAlignment
	}
	b.currentAlignment = ca
	if ca <= 1 || b.position == SizeMax {
		return 0
	}
	rem := int(b.position % uint64(ca))
	if rem == 0 {
		return 0
	}
	pad := ca - rem
	if addZeroes && b.buffer != nil {
		end := int(b.position) + pad
		if end <= len(b.buffer) {
			for i := int(b.position); i < end; i++ {
				b.buffer[i] = 0
			}
		}
	}
	b.IncrPosition(uint64(pad))
	return pad
}

func (b *Base) Status() Status { return b.status }
func (b *Base) RaiseStatus(flag Status) bool {
	b.status |= flag
	return b.AbortStatus()
}
func (b *Base) AbortStatus() bool { return b.status&b.faultMask != 0 }

func (b *Base) Key() bool      { return b.key }
func (b *Base) SetKey(k bool) { b.key = k }

// nextProp is the dialect-agnostic default iterator walk described in
// §4.3: push an iterator over the selected list on first call, then
// advance it on each subsequent call, popping and returning the
// terminator once the list is exhausted.
func (b *Base) nextProp(props *Property, list MemberList, firstCall *bool) *Property {
	if *firstCall {
		b.stack = append(b.stack, iterFrame{list: props.rawList(list), limit: SizeMax})
		*firstCall = false
	}
	if len(b.stack) == 0 {
		return finalEntry()
	}
	top := &b.stack[len(b.stack)-1]
	if top.idx >= len(top.list) {
		b.stack = b.stack[:len(b.stack)-1]
		return finalEntry()
	}
	cur := top.list[top.idx]
	top.idx++
	if cur.IsLast {
		b.stack = b.stack[:len(b.stack)-1]
	}
	return cur
}

// pushLimitedFrame behaves like the lazy push inside nextProp but
// records limit as the frame's end offset. No dialect calls it.
func (b *Base) pushLimitedFrame(props *Property, list MemberList, limit uint64) {
	b.stack = append(b.stack, iterFrame{list: props.rawList(list), limit: limit})
}

func (b *Base) topFrame() *iterFrame {
	if len(b.stack) == 0 {
		return nil
	}
	return &b.stack[len(b.stack)-1]
}

func (b *Base) popFrame() {
	if len(b.stack) > 0 {
		b.stack = b.stack[:len(b.stack)-1]
	}
}
