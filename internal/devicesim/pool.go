package devicesim

import (
	"context"
	"fmt"

	"pkt.systems/hapticnote/internal/haptic"
)

// Pool is a fixed set of simulated devices that implements
// haptic.Discoverer.
type Pool struct {
	devices []*Device
	journal *Journal
}

// NewPool creates size devices named dot-1..dot-N sharing one journal.
func NewPool(size int, opts ...Option) *Pool {
	journal := &Journal{}
	p := &Pool{journal: journal}
	opts = append(opts, WithJournal(journal))
	for i := 1; i <= size; i++ {
		p.devices = append(p.devices, NewDevice(fmt.Sprintf("dot-%d", i), opts...))
	}
	return p
}

// Discover returns up to count devices in pool order.
func (p *Pool) Discover(ctx context.Context, count int) ([]haptic.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if count <= 0 || count > len(p.devices) {
		count = len(p.devices)
	}
	out := make([]haptic.Device, 0, count)
	for _, dev := range p.devices[:count] {
		out = append(out, dev)
	}
	return out, nil
}

// Devices returns the simulated devices.
func (p *Pool) Devices() []*Device {
	return append([]*Device(nil), p.devices...)
}

// Device returns the device with id.
func (p *Pool) Device(id string) (*Device, bool) {
	for _, dev := range p.devices {
		if dev.id == id {
			return dev, true
		}
	}
	return nil, false
}

// Journal returns the ordered calls of every device in the pool.
func (p *Pool) Journal() *Journal { return p.journal }
