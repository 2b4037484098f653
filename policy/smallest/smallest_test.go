package smallest

import (
	"reflect"
	"testing"

	"github.com/IvanBrykalov/prefetchcache/policy"
)

func TestSmallest_PicksLowestCost(t *testing.T) {
	t.Parallel()

	p := New[int64]()
	resident := []policy.Entry[int64]{
		{Key: 1, Seq: 1, Cost: 10},
		{Key: 2, Seq: 2, Cost: 30},
		{Key: 3, Seq: 3, Cost: 20},
	}
	got := p.Victims(resident, 2)
	if want := []int64{1, 3}; !reflect.DeepEqual(got, want) {
		t.Fatalf("victims = %v, want %v", got, want)
	}
}

func TestSmallest_TiesOldestFirst(t *testing.T) {
	t.Parallel()

	p := New[int64]()
	resident := []policy.Entry[int64]{
		{Key: 9, Seq: 4, Cost: 0},
		{Key: 8, Seq: 3, Cost: 0},
	}
	got := p.Victims(resident, 1)
	if want := []int64{8}; !reflect.DeepEqual(got, want) {
		t.Fatalf("victims = %v, want %v", got, want)
	}
}
