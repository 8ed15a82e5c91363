package eventbus

import (
	"context"
	"sync"
)

// History хранит последние события шины в кольцевом буфере.
// Админ-API отдаёт их как ленту событий мира.
type History struct {
	mu    sync.RWMutex
	items []Envelope
	next  int
	full  bool
}

// NewHistory создаёт буфер на capacity событий
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1
	}
	return &History{items: make([]Envelope, capacity)}
}

// Attach подписывает историю на шину
func (h *History) Attach(ctx context.Context, bus EventBus, f Filter) (Subscription, error) {
	return bus.Subscribe(ctx, f, func(_ context.Context, ev *Envelope) {
		h.Add(*ev)
	})
}

// Add записывает событие, вытесняя самое старое
func (h *History) Add(ev Envelope) {
	h.mu.Lock()
	h.items[h.next] = ev
	h.next = (h.next + 1) % len(h.items)
	if h.next == 0 {
		h.full = true
	}
	h.mu.Unlock()
}

// Len число сохранённых событий
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.full {
		return len(h.items)
	}
	return h.next
}

// Recent возвращает до limit последних событий от старых к новым.
// Непустой eventType оставляет только события этого типа.
func (h *History) Recent(limit int, eventType string) []Envelope {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := h.next
	start := 0
	if h.full {
		n = len(h.items)
		start = h.next
	}

	out := make([]Envelope, 0, n)
	for i := 0; i < n; i++ {
		ev := h.items[(start+i)%len(h.items)]
		if eventType != "" && ev.EventType != eventType {
			continue
		}
		out = append(out, ev)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
