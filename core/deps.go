package core

import (
	"context"
	"time"

	"pkt.systems/hapticnote/internal/emotion"
	"pkt.systems/hapticnote/internal/haptic"
	"pkt.systems/hapticnote/schema"
	"pkt.systems/pslog"
)

// Classifier labels free text.
type Classifier interface {
	Analyze(ctx context.Context, text string) emotion.Result
}

// Sequencer runs one exclusive actuation over a device set.
type Sequencer interface {
	Trigger(ctx context.Context, d schema.Descriptor, devices []haptic.Device) (haptic.Report, error)
}

// RecordStore keeps triggered highlights for replay.
type RecordStore interface {
	Append(record schema.HighlightRecord) error
	FindByText(query string) (schema.HighlightRecord, bool)
	FindByNote(query string) (schema.HighlightRecord, bool)
	List() []schema.HighlightRecord
}

// ServiceConfig tunes the service.
type ServiceConfig struct {
	// DeviceCount is the maximum number of devices driven per trigger.
	DeviceCount int
}

// ServiceDeps captures the collaborators of the core service. Discoverer is
// required; the rest have defaults.
type ServiceDeps struct {
	Classifier Classifier
	Discoverer haptic.Discoverer
	Sequencer  Sequencer
	Store      RecordStore
	EventSink  EventSink
	Logger     pslog.Logger
	Now        func() time.Time
}
