package packet

import "testing"

func TestRawBufferHasNoMetadata(t *testing.T) {
	b := NewRawBuffer(32)
	if b.HasMetadata() {
		t.Fatalf("a raw buffer must report HasMetadata() == false")
	}
	if _, err := b.GetID(); err == nil {
		t.Fatalf("GetID() on a buffer without metadata must fail")
	}
	if err := b.SetID(1); err == nil {
		t.Fatalf("SetID() on a buffer without metadata must fail")
	}
}

func TestFragAppendSumsLength(t *testing.T) {
	p := New("p", 3, 64)
	head, _ := p.AllocWithID(1, 0, 0)
	head.SetLen(10)
	mid, _ := p.AllocWithID(1, 0, 0)
	mid.SetLen(20)
	tail, _ := p.AllocWithID(1, 0, 0)
	tail.SetLen(5)

	FragAppend(head, mid)
	FragAppend(head, tail)

	if got := head.Len(); got != 35 {
		t.Fatalf("Len() over a 3-buffer chain = %d, want 35", got)
	}
	if head.Next() != mid || mid.Next() != tail {
		t.Fatalf("fragment chain not linked in append order")
	}

	head.Unref() // releases the whole chain: head, mid, tail
	if p.Free() != 3 {
		t.Fatalf("Free() after releasing a fragment chain = %d, want 3", p.Free())
	}
}

func TestRefKeepsBufferAliveAcrossTwoChains(t *testing.T) {
	p := New("p", 2, 64)
	shared, _ := p.AllocWithID(1, 0, 0)
	owner1, _ := p.AllocWithID(1, 0, 0)

	shared.Ref() // borrow a second reference before re-chaining elsewhere
	FragAppend(owner1, shared)

	owner1.Unref() // drops owner1's chain reference to shared, not the last one
	if shared.Refcount() != 1 {
		t.Fatalf("Refcount() after one of two owners released = %d, want 1", shared.Refcount())
	}
	shared.Unref()
}
