package flight

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCell_FirstPublishWins(t *testing.T) {
	t.Parallel()

	c := NewCell[string]()
	c.Publish("a", nil)
	c.Publish("b", errors.New("late"))

	v, err := c.Wait(context.Background())
	if v != "a" || err != nil {
		t.Fatalf("got %q, %v", v, err)
	}
}

func TestCell_ManyWaiters(t *testing.T) {
	t.Parallel()

	c := NewCell[int]()
	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			v, err := c.Wait(context.Background())
			if v != 42 || err != nil {
				t.Errorf("got %d, %v", v, err)
			}
		}()
	}
	time.Sleep(time.Millisecond)
	c.Publish(42, nil)
	wg.Wait()
}

func TestCell_WaitHonoursContext(t *testing.T) {
	t.Parallel()

	c := NewCell[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}

	// The cell is still usable for other waiters.
	c.Publish(1, nil)
	if v, err := c.Wait(context.Background()); v != 1 || err != nil {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestCell_ErrorResult(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	c := NewCell[int]()
	c.Publish(0, boom)
	if _, err := c.Wait(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
}
