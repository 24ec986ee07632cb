package arena_test

import (
	"testing"

	"github.com/wsedge/minnow-go/arena"
	"github.com/wsedge/minnow-go/wserr"
)

func TestAllocAdvancesCursor(t *testing.T) {
	a := arena.New(make([]byte, 16))
	first, err := a.Alloc(4)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 4 || a.Len() != 4 {
		t.Fatalf("len=%d arena.Len=%d", len(first), a.Len())
	}
	second, err := a.Alloc(4)
	if err != nil {
		t.Fatal(err)
	}
	copy(first, "aaaa")
	copy(second, "bbbb")
	if string(first) == string(second) {
		t.Fatal("allocations overlap")
	}
}

func TestAllocOverflowReturnsErrAlloc(t *testing.T) {
	a := arena.New(make([]byte, 8))
	if _, err := a.Alloc(9); !wserr.Is(err, wserr.CodeAlloc) {
		t.Fatalf("err = %v, want ErrAlloc", err)
	}
}

func TestResetReclaimsSpace(t *testing.T) {
	a := arena.New(make([]byte, 8))
	if _, err := a.Alloc(8); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Alloc(1); err == nil {
		t.Fatal("expected overflow before Reset")
	}
	a.Reset()
	if _, err := a.Alloc(8); err != nil {
		t.Fatalf("expected room after Reset: %v", err)
	}
}
