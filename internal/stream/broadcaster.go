package stream

import (
	"sync"
	"sync/atomic"

	"github.com/mr1hm/go-safety-feed/internal/models"
)

// SubscriberBuffer is how many updates a subscriber may fall behind before
// further updates are dropped for it.
const SubscriberBuffer = 100

type Broadcaster struct {
	subscribers map[uint64]chan *models.UnifiedIncident
	nextID      atomic.Uint64
	dropped     atomic.Uint64
	mu          sync.RWMutex
	closed      bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan *models.UnifiedIncident),
	}
}

// Subscribe registers a listener. After Close it returns an already closed
// channel.
func (b *Broadcaster) Subscribe() (uint64, <-chan *models.UnifiedIncident) {
	id := b.nextID.Add(1)
	ch := make(chan *models.UnifiedIncident, SubscriberBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return id, ch
	}
	b.subscribers[id] = ch

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

// Broadcast never blocks: a subscriber with a full buffer misses u.
func (b *Broadcaster) Broadcast(u *models.UnifiedIncident) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- u:
		default:
			b.dropped.Add(1)
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped is the number of updates skipped for slow subscribers.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Close closes all subscriber channels, causing streams to exit gracefully
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
