package app

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"stocksense/models"
	"stocksense/observability"
)

func TestPublisher_DeliversToEverySubscriber(t *testing.T) {
	p := NewPublisher(nil)
	a, cancelA := p.Subscribe(1)
	b, cancelB := p.Subscribe(1)
	defer cancelA()
	defer cancelB()

	p.Publish(models.Snapshot{Capacity: 5})

	for i, ch := range []<-chan models.Snapshot{a, b} {
		select {
		case snap := <-ch:
			if snap.Capacity != 5 {
				t.Errorf("subscriber %d got %+v", i, snap)
			}
		default:
			t.Errorf("subscriber %d received nothing", i)
		}
	}
}

func TestPublisher_FullSubscriberKeepsLatestWithoutBlocking(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	p := NewPublisher(metrics)
	ch, cancel := p.Subscribe(1)
	defer cancel()

	p.Publish(models.Snapshot{Capacity: 1})
	p.Publish(models.Snapshot{Capacity: 2})
	p.Publish(models.Snapshot{Capacity: 3})

	if p.Dropped() != 2 {
		t.Errorf("expected 2 drops, got %d", p.Dropped())
	}
	if got := testutil.ToFloat64(metrics.StreamDroppedTotal); got != 2 {
		t.Errorf("expected 2 drops recorded, got %f", got)
	}
	if snap := <-ch; snap.Capacity != 3 {
		t.Errorf("expected the latest snapshot to be kept, got %d", snap.Capacity)
	}
	select {
	case snap := <-ch:
		t.Errorf("expected nothing else queued, got %+v", snap)
	default:
	}
}

func TestPublisher_FullBufferEvictsOldestInOrder(t *testing.T) {
	p := NewPublisher(nil)
	ch, cancel := p.Subscribe(2)
	defer cancel()

	for i := 1; i <= 4; i++ {
		p.Publish(models.Snapshot{Capacity: i})
	}

	first, second := <-ch, <-ch
	if first.Capacity != 3 || second.Capacity != 4 {
		t.Errorf("expected snapshots 3 then 4, got %d then %d", first.Capacity, second.Capacity)
	}
}

func TestPublisher_CancelClosesChannel(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	p := NewPublisher(metrics)
	ch, cancel := p.Subscribe(0)

	if cap(ch) != DefaultSubscriberBuffer {
		t.Errorf("expected default buffer %d, got %d", DefaultSubscriberBuffer, cap(ch))
	}
	if got := testutil.ToFloat64(metrics.StreamSubscribers); got != 1 {
		t.Errorf("expected 1 subscriber, got %f", got)
	}

	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
	if p.Subscribers() != 0 {
		t.Errorf("expected no subscribers, got %d", p.Subscribers())
	}
	if got := testutil.ToFloat64(metrics.StreamSubscribers); got != 0 {
		t.Errorf("expected 0 subscribers, got %f", got)
	}
}

func TestPublisher_Close(t *testing.T) {
	p := NewPublisher(nil)
	ch, cancel := p.Subscribe(1)

	p.Close()
	p.Close()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Close")
	}

	late, _ := p.Subscribe(1)
	if _, ok := <-late; ok {
		t.Error("subscriptions after Close should be closed")
	}

	p.Publish(models.Snapshot{})
}

func TestPublisher_ConcurrentPublishAndCancel(t *testing.T) {
	p := NewPublisher(nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		ch, cancel := p.Subscribe(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				p.Publish(models.Snapshot{})
			}
		}()
		go func() {
			defer wg.Done()
			cancel()
			for range ch {
			}
		}()
	}
	wg.Wait()

	if p.Subscribers() != 0 {
		t.Errorf("expected all subscribers gone, got %d", p.Subscribers())
	}
}
