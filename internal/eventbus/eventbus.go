package eventbus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed публикация или подписка на закрытой шине
var ErrClosed = errors.New("шина событий закрыта")

// Envelope событие мира в шине. Payload содержит JSON полезной нагрузки типа.
type Envelope struct {
	ID        string            `json:"id"`        // UUID события
	Timestamp time.Time         `json:"timestamp"` // UTC
	Source    string            `json:"source"`    // компонент-источник
	EventType string            `json:"type"`      // block_placed, game_saved…
	Priority  int               `json:"priority"`  // PriorityLow … PriorityHigh
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Filter отбирает события для подписчика; пустой список пропускает всё
type Filter struct {
	Types   []string
	Sources []string
}

func (f Filter) match(ev *Envelope) bool {
	return contains(f.Types, ev.EventType) && contains(f.Sources, ev.Source)
}

func contains(list []string, v string) bool {
	if len(list) == 0 {
		return true
	}
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Subscription позволяет отписаться
type Subscription interface {
	Unsubscribe()
}

// Handler обработчик событий. Вызывается из горутины рассылки, по одному событию.
type Handler func(ctx context.Context, ev *Envelope)

// Stats счётчики шины
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
	InFlight  int
}

// EventBus шина событий мира
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close()
}

// dropBelow события с приоритетом ниже этого теряются при полной очереди
const dropBelow = PriorityNormal

type subscription struct {
	bus     *memoryBus
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

func (s *subscription) Unsubscribe() {
	s.cancel()
	s.bus.remove(s)
}

// memoryBus шина в памяти процесса: одна очередь и одна горутина рассылки.
// Подписчики получают события в порядке публикации.
type memoryBus struct {
	mu     sync.RWMutex // защищает запись subs, closed и закрытие queue
	subs   atomic.Pointer[[]*subscription]
	closed bool

	queue chan *Envelope
	done  chan struct{}

	published atomic.Uint64
	consumed  atomic.Uint64
	dropped   atomic.Uint64
}

// NewMemoryBus создаёт шину с очередью на capacity событий
func NewMemoryBus(capacity int) EventBus {
	if capacity <= 0 {
		capacity = 1
	}
	b := &memoryBus{
		queue: make(chan *Envelope, capacity),
		done:  make(chan struct{}),
	}
	go b.run()
	return b
}

// Publish ставит событие в очередь. При полной очереди событие с низким
// приоритетом отбрасывается, а высокий приоритет ждёт места или отмены ctx.
func (b *memoryBus) Publish(ctx context.Context, ev *Envelope) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	select {
	case b.queue <- ev:
		b.published.Add(1)
		return nil
	default:
	}

	if ev.Priority < dropBelow {
		b.dropped.Add(1)
		return nil
	}
	select {
	case b.queue <- ev:
		b.published.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	cctx, cancel := context.WithCancel(ctx)
	s := &subscription{bus: b, filter: f, handler: h, ctx: cctx, cancel: cancel}
	old := b.snapshot()
	subs := make([]*subscription, len(old), len(old)+1)
	copy(subs, old)
	subs = append(subs, s)
	// copy-on-write: рассылка читает снимок без блокировки
	b.subs.Store(&subs)
	return s, nil
}

func (b *memoryBus) remove(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	old := b.snapshot()
	subs := make([]*subscription, 0, len(old))
	for _, other := range old {
		if other != s {
			subs = append(subs, other)
		}
	}
	b.subs.Store(&subs)
}

func (b *memoryBus) snapshot() []*subscription {
	if p := b.subs.Load(); p != nil {
		return *p
	}
	return nil
}

func (b *memoryBus) Metrics() Stats {
	return Stats{
		Published: b.published.Load(),
		Consumed:  b.consumed.Load(),
		Dropped:   b.dropped.Load(),
		InFlight:  len(b.queue),
	}
}

// Close перестаёт принимать события, дорассылает очередь и ждёт окончания.
// Повторный вызов безопасен.
func (b *memoryBus) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()
	<-b.done
}

func (b *memoryBus) run() {
	defer close(b.done)
	for ev := range b.queue {
		for _, s := range b.snapshot() {
			if s.ctx.Err() != nil || !s.filter.match(ev) {
				continue
			}
			s.handler(s.ctx, ev)
			b.consumed.Add(1)
		}
	}
}
