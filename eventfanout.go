package hapticnote

import (
	"pkt.systems/hapticnote/core"
	"pkt.systems/hapticnote/internal/haptic"
	"pkt.systems/hapticnote/schema"
)

type eventFanout struct {
	sinks     []core.EventSink
	observers []haptic.Observer
}

func (f eventFanout) OnHighlight(record schema.HighlightRecord) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnHighlight(record)
	}
}

func (f eventFanout) OnActuation(event schema.ActuationEvent) {
	for _, observer := range f.observers {
		if observer == nil {
			continue
		}
		observer.OnActuation(event)
	}
}
