package haptic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pkt.systems/hapticnote/internal/descriptor"
	"pkt.systems/hapticnote/internal/logx"
	"pkt.systems/hapticnote/schema"
	"pkt.systems/pslog"
)

const (
	DefaultDwell          = 1500 * time.Millisecond
	DefaultCommandTimeout = 2 * time.Second
)

// Observer receives phase transitions. Calls are made synchronously from the
// triggering goroutine and must not block.
type Observer interface {
	OnActuation(event schema.ActuationEvent)
}

// Config tunes a Sequencer. Zero durations select the defaults.
type Config struct {
	Dwell          time.Duration
	CommandTimeout time.Duration
	Observer       Observer
}

// Sequencer serialises actuations over one device pool. At most one
// actuation is in flight; later callers wait for the slot.
type Sequencer struct {
	slot           chan struct{}
	dwell          time.Duration
	commandTimeout time.Duration
	observer       Observer

	mu    sync.Mutex
	state schema.ActuationPhase
}

// NewSequencer constructs a Sequencer.
func NewSequencer(cfg Config) *Sequencer {
	s := &Sequencer{
		slot:           make(chan struct{}, 1),
		dwell:          cfg.Dwell,
		commandTimeout: cfg.CommandTimeout,
		observer:       cfg.Observer,
		state:          schema.PhaseIdle,
	}
	if s.dwell <= 0 {
		s.dwell = DefaultDwell
	}
	if s.commandTimeout <= 0 {
		s.commandTimeout = DefaultCommandTimeout
	}
	return s
}

// State reports the current phase.
func (s *Sequencer) State() schema.ActuationPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Trigger actuates devices with d, holds for the dwell and releases them.
// An empty device list fails with schema.ErrNoDevicesFound. If ctx ends
// while waiting for the slot, ctx.Err() is returned and no device is
// touched. Once actuation has begun the release phase always runs, even if
// ctx is cancelled. Device command failures are reported in the Report,
// not as an error.
func (s *Sequencer) Trigger(ctx context.Context, d schema.Descriptor, devices []Device) (Report, error) {
	if len(devices) == 0 {
		return Report{}, schema.ErrNoDevicesFound
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
	defer func() { <-s.slot }()

	log := pslog.Ctx(ctx)
	report := Report{
		Descriptor: d,
		Devices:    deviceIDs(devices),
		Started:    time.Now(),
	}
	log.Info("haptic actuation started", "color", d.ColorName, "vibration_hz", d.VibrationHz, "devices", len(devices))

	s.transition(schema.PhaseActuating, &report)
	actuate := actuateCommands(d)
	for _, dev := range devices {
		if ctx.Err() != nil {
			report.Interrupted = true
			break
		}
		if f := s.apply(ctx, dev, schema.PhaseActuating, actuate); f != nil {
			report.Failures = append(report.Failures, *f)
			logx.WithDevice(log, f.Device).Warn("haptic device command failed", "phase", f.Phase, "command", f.Command, "err", f.Err)
		}
	}

	s.transition(schema.PhaseHolding, &report)
	if !report.Interrupted {
		timer := time.NewTimer(s.dwell)
		select {
		case <-timer.C:
		case <-ctx.Done():
			report.Interrupted = true
		}
		timer.Stop()
	}

	s.transition(schema.PhaseReleasing, &report)
	releaseCtx := context.WithoutCancel(ctx)
	release := releaseCommands(descriptor.Released(), descriptor.NeutralThermal())
	for _, dev := range devices {
		if f := s.apply(releaseCtx, dev, schema.PhaseReleasing, release); f != nil {
			report.Failures = append(report.Failures, *f)
			logx.WithDevice(log, f.Device).Warn("haptic device command failed", "phase", f.Phase, "command", f.Command, "err", f.Err)
		}
	}

	report.Finished = time.Now()
	s.transition(schema.PhaseIdle, &report)
	log.Info("haptic actuation finished",
		"duration", report.Finished.Sub(report.Started),
		"failures", len(report.Failures),
		"interrupted", report.Interrupted,
	)
	return report, nil
}

// apply runs commands on dev in order and stops at the first failure.
func (s *Sequencer) apply(ctx context.Context, dev Device, phase schema.ActuationPhase, commands []command) *DeviceFailure {
	for _, cmd := range commands {
		cmdCtx, cancel := context.WithTimeout(ctx, s.commandTimeout)
		err := cmd.run(cmdCtx, dev)
		cancel()
		if err != nil {
			return &DeviceFailure{
				Device:  dev.ID(),
				Phase:   phase,
				Command: cmd.name,
				Err:     fmt.Errorf("%w: %w", schema.ErrDeviceCommand, err),
			}
		}
	}
	return nil
}

func (s *Sequencer) transition(phase schema.ActuationPhase, report *Report) {
	s.mu.Lock()
	s.state = phase
	s.mu.Unlock()
	if s.observer == nil {
		return
	}
	s.observer.OnActuation(schema.ActuationEvent{
		Phase:      phase,
		Descriptor: report.Descriptor,
		Devices:    append([]string(nil), report.Devices...),
		Failures:   len(report.Failures),
		At:         time.Now().UTC(),
	})
}

func deviceIDs(devices []Device) []string {
	ids := make([]string, len(devices))
	for i, dev := range devices {
		ids[i] = dev.ID()
	}
	return ids
}
