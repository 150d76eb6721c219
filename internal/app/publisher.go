package app

import (
	"sync"
	"sync/atomic"

	"stocksense/models"
	"stocksense/observability"
)

// DefaultSubscriberBuffer is the snapshot buffer given to subscribers that ask for none
const DefaultSubscriberBuffer = 16

// Publisher fans snapshots out to subscribers without blocking the publisher.
// A subscriber whose buffer is full loses its oldest queued snapshot.
type Publisher struct {
	mu     sync.RWMutex
	subs   map[uint64]chan models.Snapshot
	nextID uint64
	closed bool

	dropped atomic.Int64
	metrics *observability.Metrics
}

// NewPublisher creates a Publisher. metrics may be nil.
func NewPublisher(metrics *observability.Metrics) *Publisher {
	return &Publisher{
		subs:    make(map[uint64]chan models.Snapshot),
		metrics: metrics,
	}
}

// Subscribe registers a new subscriber. The returned cancel func unregisters
// it and closes the channel; it is safe to call more than once.
func (p *Publisher) Subscribe(buffer int) (<-chan models.Snapshot, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	ch := make(chan models.Snapshot, buffer)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := p.nextID
	p.nextID++
	p.subs[id] = ch
	p.metrics.SetStreamSubscribers(len(p.subs))
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if c, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(c)
			p.metrics.SetStreamSubscribers(len(p.subs))
		}
	}
	return ch, cancel
}

// Publish delivers snap to every subscriber. When a subscriber's buffer is
// full its oldest queued snapshot is evicted so the newest state always lands.
func (p *Publisher) Publish(snap models.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ch := range p.subs {
		for delivered := false; !delivered; {
			select {
			case ch <- snap:
				delivered = true
			default:
				select {
				case <-ch:
					p.dropped.Add(1)
					p.metrics.RecordStreamDrop()
				default:
				}
			}
		}
	}
}

// Subscribers returns the number of active subscribers
func (p *Publisher) Subscribers() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

// Dropped returns how many queued snapshots were evicted from full buffers
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close unregisters and closes every subscriber. Later subscriptions
// receive an already closed channel.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
	p.metrics.SetStreamSubscribers(0)
}
