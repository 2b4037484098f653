package oldest

import (
	"reflect"
	"testing"

	"github.com/IvanBrykalov/prefetchcache/policy"
)

func entries(seqs ...uint64) []policy.Entry[int64] {
	out := make([]policy.Entry[int64], len(seqs))
	for i, s := range seqs {
		out[i] = policy.Entry[int64]{Key: int64(100 + s), Seq: s}
	}
	return out
}

func TestOldest_PicksSmallestSeq(t *testing.T) {
	t.Parallel()

	p := New[int64]()
	got := p.Victims(entries(3, 1, 2), 2)
	if want := []int64{101, 102}; !reflect.DeepEqual(got, want) {
		t.Fatalf("victims = %v, want %v", got, want)
	}
}

func TestOldest_ClampsToLen(t *testing.T) {
	t.Parallel()

	p := New[int64]()
	got := p.Victims(entries(5), 3)
	if want := []int64{105}; !reflect.DeepEqual(got, want) {
		t.Fatalf("victims = %v, want %v", got, want)
	}
}

func TestOldest_Empty(t *testing.T) {
	t.Parallel()

	p := New[int64]()
	if got := p.Victims(nil, 1); len(got) != 0 {
		t.Fatalf("victims = %v, want none", got)
	}
}
