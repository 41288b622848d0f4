package haptic

import (
	"fmt"
	"time"

	"pkt.systems/hapticnote/schema"
)

// DeviceFailure records the first failing command of one device in one
// phase. Err wraps schema.ErrDeviceCommand.
type DeviceFailure struct {
	Device  string
	Phase   schema.ActuationPhase
	Command string
	Err     error
}

func (f DeviceFailure) Error() string {
	return fmt.Sprintf("device %s %s during %s: %v", f.Device, f.Command, f.Phase, f.Err)
}

func (f DeviceFailure) Unwrap() error { return f.Err }

// Report summarises one actuation.
type Report struct {
	Descriptor  schema.Descriptor
	Devices     []string
	Started     time.Time
	Finished    time.Time
	Interrupted bool
	Failures    []DeviceFailure
}

// Partial reports whether any device command failed.
func (r Report) Partial() bool { return len(r.Failures) > 0 }

// Warnings renders the failures for callers that surface them to users.
func (r Report) Warnings() []string {
	if len(r.Failures) == 0 && !r.Interrupted {
		return nil
	}
	out := make([]string, 0, len(r.Failures)+1)
	for _, f := range r.Failures {
		out = append(out, f.Error())
	}
	if r.Interrupted {
		out = append(out, "actuation interrupted before the full dwell")
	}
	return out
}
