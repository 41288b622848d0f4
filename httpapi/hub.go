package httpapi

import (
	"context"
	"sync"
	"time"

	"pkt.systems/hapticnote/schema"
	"pkt.systems/pslog"
)

// Stream event types.
const (
	EventActuation = "actuation"
	EventHighlight = "highlight"
)

// StreamEvent is sent to SSE clients.
type StreamEvent struct {
	Seq       uint64                  `json:"seq"`
	Type      string                  `json:"type"`
	Actuation *schema.ActuationEvent  `json:"actuation,omitempty"`
	Highlight *schema.HighlightRecord `json:"highlight,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}

// Hub broadcasts actuation and highlight events to stream subscribers and
// keeps a bounded history for reconnecting clients.
type Hub struct {
	mu          sync.Mutex
	seq         uint64
	history     []StreamEvent
	subs        map[chan StreamEvent]struct{}
	historySize int
}

// NewHub constructs a hub with the given history size.
func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = 256
	}
	return &Hub{
		subs:        make(map[chan StreamEvent]struct{}),
		historySize: historySize,
	}
}

// OnActuation implements haptic.Observer.
func (h *Hub) OnActuation(event schema.ActuationEvent) {
	pslog.Ctx(context.Background()).Trace("hub actuation event", "phase", event.Phase, "devices", len(event.Devices))
	h.publish(StreamEvent{
		Type:      EventActuation,
		Actuation: &event,
		Timestamp: time.Now(),
	})
}

// OnHighlight implements core.EventSink.
func (h *Hub) OnHighlight(record schema.HighlightRecord) {
	pslog.Ctx(context.Background()).Trace("hub highlight event", "record", record.ID, "kind", record.Kind)
	h.publish(StreamEvent{
		Type:      EventHighlight,
		Highlight: &record,
		Timestamp: time.Now(),
	})
}

// Subscribe registers a subscriber and returns its channel, an unsubscribe
// func and the current sequence number.
func (h *Hub) Subscribe() (<-chan StreamEvent, func(), uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan StreamEvent, 256)
	h.subs[ch] = struct{}{}
	seq := h.seq
	log := pslog.Ctx(context.Background())
	log.Info("hub subscribe", "subs", len(h.subs), "history", len(h.history))
	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			remaining := len(h.subs)
			h.mu.Unlock()
			log.Info("hub unsubscribe", "subs", remaining)
		})
	}
	return ch, unsub, seq
}

// Replay returns retained events with a sequence number in (after, upto].
func (h *Hub) Replay(after, upto uint64) []StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := make([]StreamEvent, 0, len(h.history))
	for _, event := range h.history {
		if event.Seq > after && event.Seq <= upto {
			events = append(events, event)
		}
	}
	pslog.Ctx(context.Background()).Debug("hub replay", "after", after, "count", len(events))
	return events
}

func (h *Hub) publish(event StreamEvent) {
	h.mu.Lock()
	h.seq++
	event.Seq = h.seq
	h.history = append(h.history, event)
	if len(h.history) > h.historySize {
		h.history = h.history[len(h.history)-h.historySize:]
	}
	dropped := 0
	for sub := range h.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	h.mu.Unlock()

	if dropped > 0 {
		pslog.Ctx(context.Background()).Warn("hub event dropped", "type", event.Type, "dropped", dropped)
	}
}
