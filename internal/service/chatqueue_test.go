package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestChatQueue_SerializesSameChat(t *testing.T) {
	q := NewChatQueue()
	release, err := q.Acquire(context.Background(), 1)
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		r, err := q.Acquire(context.Background(), 1)
		if err == nil {
			close(acquired)
			r()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire for the same chat should wait")
	case <-time.After(20 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Acquire did not proceed after release")
	}
}

func TestChatQueue_DifferentChatsIndependent(t *testing.T) {
	q := NewChatQueue()
	r1, err := q.Acquire(context.Background(), 1)
	if err != nil {
		t.Fatalf("Acquire(1) error: %v", err)
	}
	defer r1()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r2, err := q.Acquire(ctx, 2)
	if err != nil {
		t.Fatalf("Acquire(2) should not wait on chat 1: %v", err)
	}
	r2()
}

func TestChatQueue_ContextCancelled(t *testing.T) {
	q := NewChatQueue()
	r1, _ := q.Acquire(context.Background(), 1)
	defer r1()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := q.Acquire(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire error = %v, want DeadlineExceeded", err)
	}
}

func TestChatQueue_ReleaseIdempotentAndCleansUp(t *testing.T) {
	q := NewChatQueue()
	release, _ := q.Acquire(context.Background(), 7)
	if q.Len() != 1 {
		t.Errorf("Len = %d, want 1", q.Len())
	}
	release()
	release()
	if q.Len() != 0 {
		t.Errorf("Len after release = %d, want 0", q.Len())
	}
}

func TestChatQueue_PreservesMutualExclusion(t *testing.T) {
	q := NewChatQueue()
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := q.Acquire(context.Background(), 3)
			if err != nil {
				return
			}
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxSeen)
	}
}
