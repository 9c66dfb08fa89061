package cdr

import (
	"cmp"
	"encoding/binary"
	"slices"

	"github.com/creachadair/mds/mapset"
	"github.com/zeebo/blake3"
)

// Property is a node in a constructed type's property tree: a static
// description of one member (or, at the root, of the constructed
// type itself) produced once by generated code and never mutated
// after Finish returns.
//
// A non-root Property doubles as both "the member entry in its
// parent's list" and, if its own type is a struct or union, "the root
// of its own subtree" — the same shape the original C++
// implementation uses, where entity_properties_t is pushed by value
// into a parent's member list and itself carries four child lists.
type Property struct {
	// SeqID is this member's declaration-order index within its
	// parent.
	SeqID uint32
	// MemberID is the stable, dispatchable id of this member. It
	// defaults to SeqID when the IDL does not declare one explicitly.
	MemberID uint32

	EntityExt Extensibility // extensibility of this entity's own type
	ParentExt Extensibility // extensibility of the struct this entity is a member of
	BitBound  BitBound      // bit-bound, for enum/bitmask members only

	IsOptional      bool
	IsKey           bool
	MustUnderstand  bool
	Ignore          bool
	IsLast          bool // true only for the sentinel terminating each list
	IsPresent       bool // not set by any dialect's read path
	KeylistIsPragma bool // this tree's keys came from a #pragma keylist, not @key

	// Runtime bookkeeping, valid only during/after a single stream
	// operation; never consulted across operations.
	EntityOffset uint64
	StructOffset uint64
	EntitySize   uint32
	StructSize   uint32

	MembersBySeq []*Property
	MembersByID  []*Property
	KeysBySeq    []*Property
	KeysByID     []*Property

	finished bool
}

// finalEntry is the list terminator: IsLast is true, so Property.Ok
// reports false for it, matching the original's "operator bool()
// const {return !is_last;}".
func finalEntry() *Property {
	return &Property{IsLast: true}
}

// Ok reports whether p is a real entity rather than a list
// terminator. Iterators stop when Ok returns false.
func (p *Property) Ok() bool {
	return p != nil && !p.IsLast
}

// NewStruct starts a new, empty property tree for a constructed type
// of the given extensibility. Generated code appends members with
// AddMember/AddNested and then calls Finish.
func NewStruct(ext Extensibility) *Property {
	return &Property{EntityExt: ext}
}

// AddMember appends a primitive/string/sequence/array member (one
// with no subtree of its own) to p's declaration-order member list,
// and returns it so the caller can set BitBound or other annotations.
func (p *Property) AddMember(seqID, memberID uint32, optional bool) *Property {
	m := &Property{
		SeqID:          seqID,
		MemberID:       memberID,
		IsOptional:     optional,
		MustUnderstand: !optional,
		EntityExt:      Final,
		ParentExt:      p.EntityExt,
	}
	p.MembersBySeq = append(p.MembersBySeq, m)
	return m
}

// AddNested appends a member whose type is itself a constructed
// (struct/union) type, identified by its already-finished property
// tree sub. AddNested deep-clones sub so that the same compiled
// subtree can be embedded by multiple parents — possibly as a key in
// one and a plain member in another — without the clones interfering
// with each other.
//
// If isKey is true and none of sub's own members are already marked
// key, AddNested marks every member of the clone key and
// must-understand, per the key-all-when-none-specified propagation
// rule (invariant 4): declaring a nested struct itself as @key, with
// no @key annotations inside it, means the whole nested struct
// participates in the key.
func (p *Property) AddNested(seqID, memberID uint32, optional, isKey bool, sub *Property) *Property {
	clone := sub.clone()
	clone.SeqID = seqID
	clone.MemberID = memberID
	clone.IsOptional = optional
	clone.IsKey = isKey
	clone.MustUnderstand = !optional
	clone.ParentExt = p.EntityExt

	if isKey {
		propagateKey(clone)
	}

	p.MembersBySeq = append(p.MembersBySeq, clone)
	return clone
}

// propagateKey implements the bottom-up half of invariant 4 for a
// member that is itself marked key: if clone's own member list has no
// explicit key, the whole subtree becomes key and must-understand.
func propagateKey(clone *Property) {
	hasExplicitKey := false
	for _, m := range clone.MembersBySeq {
		if m.IsKey {
			hasExplicitKey = true
			break
		}
	}
	if hasExplicitKey {
		return
	}
	for _, m := range clone.MembersBySeq {
		m.IsKey = true
		m.MustUnderstand = true
	}
}

func (p *Property) clone() *Property {
	if p == nil {
		return nil
	}
	c := *p
	c.MembersBySeq = cloneList(p.MembersBySeq)
	c.MembersByID = cloneList(p.MembersByID)
	c.KeysBySeq = cloneList(p.KeysBySeq)
	c.KeysByID = cloneList(p.KeysByID)
	return &c
}

func cloneList(l []*Property) []*Property {
	if l == nil {
		return nil
	}
	out := make([]*Property, len(l))
	for i, m := range l {
		out[i] = m.clone()
	}
	return out
}

// generalizedID combines member id and sequence id into a single
// sortable key, matching cdr_stream::props_to_id in the original:
// member_id*2^32 + sequence_id. It is used only to make the
// by-id sort and duplicate-merge in Finish deterministic.
func generalizedID(p *Property) uint64 {
	return uint64(p.MemberID)<<32 | uint64(p.SeqID)
}

// Finish derives MembersByID and the Keys* lists from MembersBySeq
// and appends the list terminators. It must be called after all
// members have been appended, before the tree is used by any Stream;
// calls after the first are no-ops. atRoot has no effect on the derivation; it exists so
// callers can assert the root-only invariant (a pragma keylist tree
// and an annotation-driven tree must not be mixed) at the call site.
func (p *Property) Finish(atRoot bool) {
	if p.finished {
		return
	}
	p.finished = true

	p.MembersByID = sortedByID(p.MembersBySeq)

	p.KeysBySeq = deriveKeys(p.MembersBySeq)
	p.KeysByID = sortedByID(p.KeysBySeq)

	p.MembersBySeq = append(p.MembersBySeq, finalEntry())
	p.MembersByID = append(p.MembersByID, finalEntry())
	p.KeysBySeq = append(p.KeysBySeq, finalEntry())
	p.KeysByID = append(p.KeysByID, finalEntry())
}

// deriveKeys implements invariant 4: if any member is declared key,
// only those are keys; if none is, every member is a key. Selected
// keys are forced to must-understand/final per invariant 3.
func deriveKeys(members []*Property) []*Property {
	seen := mapset.New[uint32]()
	var explicit []*Property
	for _, m := range members {
		if m.IsKey {
			explicit = append(explicit, m)
			seen.Add(m.MemberID)
		}
	}
	src := members
	if len(explicit) > 0 {
		src = explicit
	}
	out := make([]*Property, len(src))
	for i, m := range src {
		k := m.clone()
		k.IsKey = true
		k.MustUnderstand = true
		k.EntityExt = Final
		k.ParentExt = Final
		out[i] = k
	}
	return out
}

// sortedByID returns members sorted by MemberID ascending, merging
// duplicates of equal (MemberID, IsLast) by concatenating their
// sub-member lists, per invariant 2.
func sortedByID(members []*Property) []*Property {
	sorted := make([]*Property, len(members))
	copy(sorted, members)
	slices.SortStableFunc(sorted, func(a, b *Property) int {
		return cmp.Compare(generalizedID(a), generalizedID(b))
	})

	out := make([]*Property, 0, len(sorted))
	for _, m := range sorted {
		if n := len(out); n > 0 && out[n-1].MemberID == m.MemberID && out[n-1].IsLast == m.IsLast {
			out[n-1] = mergeMembers(out[n-1], m)
			continue
		}
		out = append(out, m)
	}
	return out
}

func mergeMembers(a, b *Property) *Property {
	m := a.clone()
	m.MembersBySeq = append(m.MembersBySeq, b.MembersBySeq...)
	return m
}

// Members returns p's member list for the given ordering, without
// the trailing sentinel.
func (p *Property) Members(list MemberList) []*Property {
	l := p.rawList(list)
	if n := len(l); n > 0 && l[n-1].IsLast {
		return l[:n-1]
	}
	return l
}

func (p *Property) rawList(list MemberList) []*Property {
	switch list {
	case BySeq:
		return p.MembersBySeq
	case ByID:
		return p.MembersByID
	case KeysBySeq:
		return p.KeysBySeq
	case KeysByID:
		return p.KeysByID
	default:
		panic("cdr: unknown member list")
	}
}

// Fingerprint returns a content hash of p's compiled shape (member
// ids, extensibility, key flags, and nested fingerprints), suitable
// for detecting at load time whether a cached or hand-written
// property tree has drifted from its generated source. It is not
// part of the wire format and is never transmitted. Member types and
// bounds are not recorded in a property tree, so they do not enter
// the hash.
func (p *Property) Fingerprint() [32]byte {
	h := blake3.New()
	p.hashInto(h)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (p *Property) hashInto(h *blake3.Hasher) {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], p.MemberID)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(p.EntityExt))
	h.Write(buf[:])
	flags := byte(0)
	for i, b := range []bool{p.IsOptional, p.IsKey, p.MustUnderstand, p.Ignore} {
		if b {
			flags |= 1 << i
		}
	}
	h.Write([]byte{flags})
	for _, m := range p.Members(BySeq) {
		m.hashInto(h)
	}
}

// ByMemberID looks up a member of p by its wire member id within the
// given list's population (BySeq/KeysBySeq share population with
// ByID/KeysByID respectively; this helper is a convenience over the
// by-id ordering only).
func (p *Property) ByMemberID(list MemberList, id uint32) *Property {
	members := p.rawList(list)
	i, found := slices.BinarySearchFunc(members, id, func(m *Property, id uint32) int {
		if m.IsLast {
			return 1
		}
		return cmp.Compare(m.MemberID, id)
	})
	if !found || i >= len(members) {
		return nil
	}
	return members[i]
}
