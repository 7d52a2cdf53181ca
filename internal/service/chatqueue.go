package service

import (
	"context"
	"sync"
)

// ChatQueue serializes pipelines that share a chat id so replies to one chat
// go out in arrival order. Pipelines for different chats never wait on each
// other.
type ChatQueue struct {
	mu    sync.Mutex
	slots map[int64]*chatSlot
}

type chatSlot struct {
	turn chan struct{}
	refs int
}

// NewChatQueue creates an empty ChatQueue.
func NewChatQueue() *ChatQueue {
	return &ChatQueue{slots: make(map[int64]*chatSlot)}
}

// Acquire blocks until chatID is free or ctx ends. The returned release must
// be called exactly once.
func (q *ChatQueue) Acquire(ctx context.Context, chatID int64) (func(), error) {
	q.mu.Lock()
	slot, ok := q.slots[chatID]
	if !ok {
		slot = &chatSlot{turn: make(chan struct{}, 1)}
		q.slots[chatID] = slot
	}
	slot.refs++
	q.mu.Unlock()

	select {
	case slot.turn <- struct{}{}:
	case <-ctx.Done():
		q.drop(chatID, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.turn
			q.drop(chatID, slot)
		})
	}, nil
}

func (q *ChatQueue) drop(chatID int64, slot *chatSlot) {
	q.mu.Lock()
	defer q.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(q.slots, chatID)
	}
}

// Len returns the number of chats with a pipeline running or waiting.
func (q *ChatQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.slots)
}
