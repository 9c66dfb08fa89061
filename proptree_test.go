package cdr

import "testing"

func buildPair() *Property {
	root := NewStruct(Final)
	root.AddMember(0, 10, false)
	root.AddMember(1, 5, false)
	root.Finish(true)
	return root
}

func TestFinishSortsByID(t *testing.T) {
	root := buildPair()
	ids := root.Members(ByID)
	if len(ids) != 2 {
		t.Fatalf("want 2 members, got %d", len(ids))
	}
	if ids[0].MemberID != 5 || ids[1].MemberID != 10 {
		t.Fatalf("members not sorted by id: %d, %d", ids[0].MemberID, ids[1].MemberID)
	}
}

func TestFinishIsIdempotent(t *testing.T) {
	root := buildPair()
	before := len(root.Members(BySeq))
	root.Finish(true)
	after := len(root.Members(BySeq))
	if before != after {
		t.Fatalf("second Finish call mutated member list: %d -> %d", before, after)
	}
}

func TestByMemberIDBinarySearch(t *testing.T) {
	root := buildPair()
	if m := root.ByMemberID(ByID, 5); m == nil || m.MemberID != 5 {
		t.Fatalf("expected to find member id 5")
	}
	if m := root.ByMemberID(ByID, 999); m != nil {
		t.Fatalf("expected no member for unknown id, got %+v", m)
	}
}

func TestKeyAllWhenNoneSpecified(t *testing.T) {
	root := NewStruct(Final)
	root.AddMember(0, 0, false)
	root.AddMember(1, 1, false)
	root.Finish(true)

	keys := root.Members(KeysBySeq)
	if len(keys) != 2 {
		t.Fatalf("with no explicit @key, every member should be a key; got %d", len(keys))
	}
	for _, k := range keys {
		if !k.MustUnderstand {
			t.Fatalf("key member %d should be forced must-understand", k.MemberID)
		}
	}
}

func TestExplicitKeySelectsOnlyThatMember(t *testing.T) {
	root := NewStruct(Final)
	root.AddMember(0, 0, false)
	k := root.AddMember(1, 1, false)
	k.IsKey = true
	root.Finish(true)

	keys := root.Members(KeysBySeq)
	if len(keys) != 1 || keys[0].MemberID != 1 {
		t.Fatalf("expected only member 1 to be key, got %+v", keys)
	}
}

func TestAddNestedClonesAndPropagatesKey(t *testing.T) {
	inner := NewStruct(Final)
	inner.AddMember(0, 0, false)
	inner.AddMember(1, 1, false)
	inner.Finish(true)

	outerA := NewStruct(Final)
	outerA.AddNested(0, 0, false, true, inner)
	outerA.Finish(true)

	outerB := NewStruct(Final)
	outerB.AddNested(0, 0, false, false, inner)
	outerB.Finish(true)

	aNested := outerA.Members(BySeq)[0]
	for _, m := range aNested.Members(BySeq) {
		if !m.IsKey {
			t.Fatalf("nested struct embedded as key should mark all its members key, got %+v", m)
		}
	}

	bNested := outerB.Members(BySeq)[0]
	for _, m := range bNested.Members(BySeq) {
		if m.IsKey {
			t.Fatalf("nested struct embedded as non-key should not mark its members key, got %+v", m)
		}
	}

	// The two embeddings must not alias: mutating one subtree's clone
	// must not affect the original or the other embedding.
	if len(inner.MembersBySeq) > 0 && inner.MembersBySeq[0].IsKey {
		t.Fatalf("AddNested mutated the shared source subtree")
	}
}

func TestFingerprintStableAndDistinguishing(t *testing.T) {
	a := buildPair()
	b := buildPair()
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("identical trees should fingerprint identically")
	}

	c := NewStruct(Final)
	c.AddMember(0, 10, false)
	c.Finish(true)
	if a.Fingerprint() == c.Fingerprint() {
		t.Fatalf("different trees should not fingerprint identically")
	}
}

func TestOkReportsListTerminator(t *testing.T) {
	e := finalEntry()
	if e.Ok() {
		t.Fatalf("finalEntry should report Ok()==false")
	}
	root := buildPair()
	if !root.Members(BySeq)[0].Ok() {
		t.Fatalf("a real member should report Ok()==true")
	}
}
