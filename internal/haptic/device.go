// Package haptic drives the timed actuation of a set of haptic devices:
// light and vibrate, hold, then release to the neutral state.
package haptic

import (
	"context"

	"pkt.systems/hapticnote/schema"
)

// VibrationMode selects how a device's motor is driven.
type VibrationMode uint8

const (
	VibrationOff    VibrationMode = 0
	VibrationManual VibrationMode = 1
)

// Device is the per-device command surface. Implementations must honour ctx
// deadlines.
type Device interface {
	ID() string
	SetLED(ctx context.Context, color schema.RGB) error
	SetVibrationMode(ctx context.Context, mode VibrationMode) error
	SetVibrationFrequency(ctx context.Context, hz uint16) error
	SetVibrationIntensity(ctx context.Context, intensity float32) error
	SetThermalIntensity(ctx context.Context, intensity float32) error
}

// Discoverer finds up to count reachable devices. Finding none is not an
// error; the caller decides what an empty set means.
type Discoverer interface {
	Discover(ctx context.Context, count int) ([]Device, error)
}

// Command names used in failure reports and on the device bridge.
const (
	CommandSetLED                = "set_led"
	CommandSetVibrationMode      = "set_vibration_mode"
	CommandSetVibrationFrequency = "set_vibration_frequency"
	CommandSetVibrationIntensity = "set_vibration_intensity"
	CommandSetThermalIntensity   = "set_thermal_intensity"
)

type command struct {
	name string
	run  func(context.Context, Device) error
}

func actuateCommands(d schema.Descriptor) []command {
	return []command{
		{CommandSetLED, func(ctx context.Context, dev Device) error { return dev.SetLED(ctx, d.Color) }},
		{CommandSetVibrationMode, func(ctx context.Context, dev Device) error { return dev.SetVibrationMode(ctx, VibrationManual) }},
		{CommandSetVibrationFrequency, func(ctx context.Context, dev Device) error { return dev.SetVibrationFrequency(ctx, d.VibrationHz) }},
		{CommandSetVibrationIntensity, func(ctx context.Context, dev Device) error { return dev.SetVibrationIntensity(ctx, 1.0) }},
	}
}

func releaseCommands(color schema.RGB, thermal float32) []command {
	return []command{
		{CommandSetVibrationIntensity, func(ctx context.Context, dev Device) error { return dev.SetVibrationIntensity(ctx, 0) }},
		{CommandSetLED, func(ctx context.Context, dev Device) error { return dev.SetLED(ctx, color) }},
		{CommandSetThermalIntensity, func(ctx context.Context, dev Device) error { return dev.SetThermalIntensity(ctx, thermal) }},
	}
}
