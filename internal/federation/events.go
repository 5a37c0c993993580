package federation

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fedindex/internal/model"
)

// bus fans events out to subscriber channels. Sends never block the write
// path: a subscriber whose buffer is full loses the event.
type bus struct {
	mu     sync.Mutex
	subs   map[string]chan model.Event
	buffer int
	logger *zap.Logger
	closed bool
}

func newBus(buffer int, logger *zap.Logger) *bus {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &bus{
		subs:   map[string]chan model.Event{},
		buffer: buffer,
		logger: logger,
	}
}

func (b *bus) subscribe() (string, <-chan model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan model.Event, b.buffer)
	if b.closed {
		close(ch)
		return id, ch
	}
	b.subs[id] = ch
	return id, ch
}

func (b *bus) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *bus) publish(ev model.Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Debug("dropping event for slow subscriber",
				zap.String("subscriber", id), zap.String("type", string(ev.Type)))
		}
	}
}

func (b *bus) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
