package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestQueuePushPop(t *testing.T) {
	t.Parallel()

	q := NewQueue(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := q.Push(ctx, Entry{Name: fmt.Sprintf("f%d", i)}); err != nil {
			t.Fatalf("Push %d failed: %v", i, err)
		}
	}

	if q.Len() != 3 {
		t.Errorf("Expected Len 3, got %d", q.Len())
	}
	if q.HighWater() != 3 {
		t.Errorf("Expected HighWater 3, got %d", q.HighWater())
	}

	q.Close()

	var got []string
	for {
		e, ok := q.Pop()
		if !ok {
			break
		}
		got = append(got, e.Name)
	}

	if len(got) != 3 || got[0] != "f0" || got[2] != "f2" {
		t.Errorf("Expected f0..f2 in order, got %v", got)
	}
}

func TestQueuePushAfterClose(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	q.Close()
	q.Close()

	if err := q.Push(context.Background(), Entry{}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Expected ErrQueueClosed, got %v", err)
	}
}

func TestQueuePushBlocksWhenFull(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	if err := q.Push(context.Background(), Entry{Name: "a"}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := q.Push(ctx, Entry{Name: "b"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected DeadlineExceeded from full queue, got %v", err)
	}
	if q.Len() != 1 {
		t.Errorf("Expected Len 1, got %d", q.Len())
	}
}

func TestQueueHighWaterBoundedByCapacity(t *testing.T) {
	t.Parallel()

	const capacity = 4
	q := NewQueue(capacity)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range q.Items() {
			time.Sleep(time.Microsecond)
		}
	}()

	for i := 0; i < 200; i++ {
		if err := q.Push(context.Background(), Entry{Name: fmt.Sprintf("f%d", i)}); err != nil {
			t.Fatalf("Push %d failed: %v", i, err)
		}
	}
	q.Close()
	wg.Wait()

	if hw := q.HighWater(); hw > capacity || hw < 1 {
		t.Errorf("Expected HighWater in [1, %d], got %d", capacity, hw)
	}
	if q.Cap() != capacity {
		t.Errorf("Expected Cap %d, got %d", capacity, q.Cap())
	}
}

func TestNewQueueMinimumCapacity(t *testing.T) {
	t.Parallel()

	if got := NewQueue(0).Cap(); got != 1 {
		t.Errorf("Expected capacity 1, got %d", got)
	}
}
