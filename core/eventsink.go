package core

import "pkt.systems/hapticnote/schema"

// EventSink receives records as they are appended.
type EventSink interface {
	OnHighlight(record schema.HighlightRecord)
}
