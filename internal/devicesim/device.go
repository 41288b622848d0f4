// Package devicesim provides in-memory haptic devices that record every
// command they receive. It backs the default device pool and the tests.
package devicesim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pkt.systems/hapticnote/internal/haptic"
	"pkt.systems/hapticnote/schema"
)

// Call is one command received by a simulated device.
type Call struct {
	Device  string
	Command string
	Value   any
}

// State is the last value written through each command.
type State struct {
	LED         schema.RGB           `json:"led"`
	Mode        haptic.VibrationMode `json:"mode"`
	FrequencyHz uint16               `json:"frequency_hz"`
	Intensity   float32              `json:"intensity"`
	Thermal     float32              `json:"thermal"`
}

// Journal is an ordered log of calls shared by several devices.
type Journal struct {
	mu    sync.Mutex
	calls []Call
}

func (j *Journal) record(c Call) {
	if j == nil {
		return
	}
	j.mu.Lock()
	j.calls = append(j.calls, c)
	j.mu.Unlock()
}

// Calls returns a copy of the recorded calls in arrival order.
func (j *Journal) Calls() []Call {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Call(nil), j.calls...)
}

// Device is a simulated haptic device.
type Device struct {
	id      string
	latency time.Duration
	journal *Journal

	mu     sync.Mutex
	calls  []Call
	state  State
	failOn map[string]error
}

// Option configures a Device.
type Option func(*Device)

// WithLatency delays every command by d, honouring ctx.
func WithLatency(d time.Duration) Option {
	return func(dev *Device) { dev.latency = d }
}

// WithJournal also records calls into j.
func WithJournal(j *Journal) Option {
	return func(dev *Device) { dev.journal = j }
}

// NewDevice constructs a Device.
func NewDevice(id string, opts ...Option) *Device {
	d := &Device{id: id, failOn: make(map[string]error)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ID returns the device identifier.
func (d *Device) ID() string { return d.id }

// FailOn makes every later call of command return err. A nil err clears
// the injected failure.
func (d *Device) FailOn(command string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.failOn, command)
		return
	}
	d.failOn[command] = err
}

// Calls returns a copy of the commands this device accepted.
func (d *Device) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// State returns the current simulated output state.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Device) SetLED(ctx context.Context, color schema.RGB) error {
	return d.exec(ctx, haptic.CommandSetLED, color, func(s *State) { s.LED = color })
}

func (d *Device) SetVibrationMode(ctx context.Context, mode haptic.VibrationMode) error {
	return d.exec(ctx, haptic.CommandSetVibrationMode, mode, func(s *State) { s.Mode = mode })
}

func (d *Device) SetVibrationFrequency(ctx context.Context, hz uint16) error {
	return d.exec(ctx, haptic.CommandSetVibrationFrequency, hz, func(s *State) { s.FrequencyHz = hz })
}

func (d *Device) SetVibrationIntensity(ctx context.Context, intensity float32) error {
	if intensity < 0 || intensity > 1 {
		return fmt.Errorf("vibration intensity %v out of range", intensity)
	}
	return d.exec(ctx, haptic.CommandSetVibrationIntensity, intensity, func(s *State) { s.Intensity = intensity })
}

func (d *Device) SetThermalIntensity(ctx context.Context, intensity float32) error {
	if intensity < -1 || intensity > 1 {
		return fmt.Errorf("thermal intensity %v out of range", intensity)
	}
	return d.exec(ctx, haptic.CommandSetThermalIntensity, intensity, func(s *State) { s.Thermal = intensity })
}

func (d *Device) exec(ctx context.Context, command string, value any, apply func(*State)) error {
	if d.latency > 0 {
		timer := time.NewTimer(d.latency)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	if err := d.failOn[command]; err != nil {
		d.mu.Unlock()
		return err
	}
	call := Call{Device: d.id, Command: command, Value: value}
	d.calls = append(d.calls, call)
	apply(&d.state)
	d.mu.Unlock()
	d.journal.record(call)
	return nil
}
