// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/clipmp3/internal/log"
	"github.com/ManuGH/clipmp3/internal/metrics"
)

// ErrClosed is returned by Subscribe after Close.
var ErrClosed = errors.New("bus closed")

// SubscriberBuffer is the per-subscriber queue length.
const SubscriberBuffer = 64

const dropLogEvery = 100

// MemoryBus is an in-process fan-out. Publish never blocks: a subscriber
// whose queue is full misses the event.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[*memSub]struct{}
	closed bool

	dropped atomic.Uint64
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[*memSub]struct{})}
}

func (b *MemoryBus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		select {
		case s.ch <- ev:
		default:
			metrics.IncEventDropped()
			if n := b.dropped.Add(1); n%dropLogEvery == 1 {
				log.FromContext(ctx).Debug().
					Str(log.FieldEvent, "bus.dropped").
					Str(log.FieldPhase, ev.Phase).
					Uint64("dropped", n).
					Msg("phase event dropped for slow subscriber")
			}
		}
	}
}

func (b *MemoryBus) Subscribe(_ context.Context) (Subscriber, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	s := &memSub{b: b, ch: make(chan Event, SubscriberBuffer)}
	b.subs[s] = struct{}{}
	return s, nil
}

// Close ends every subscription.
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		delete(b.subs, s)
		close(s.ch)
	}
}

type memSub struct {
	b  *MemoryBus
	ch chan Event
}

func (s *memSub) C() <-chan Event {
	return s.ch
}

func (s *memSub) Close() error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if _, ok := s.b.subs[s]; !ok {
		return nil
	}
	delete(s.b.subs, s)
	close(s.ch)
	return nil
}

var _ Bus = (*MemoryBus)(nil)
