package devicegrpc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"pkt.systems/hapticnote/internal/haptic"
	"pkt.systems/hapticnote/schema"
	"pkt.systems/pslog"
)

// Server serves a device pool over gRPC.
type Server struct {
	cfg        Config
	discoverer haptic.Discoverer

	mu      sync.Mutex
	devices map[string]haptic.Device
	owner   string
	seen    time.Time
	now     func() time.Time
}

// NewServer constructs a bridge server over discoverer.
func NewServer(cfg Config, discoverer haptic.Discoverer) *Server {
	return &Server{cfg: cfg, discoverer: discoverer, devices: make(map[string]haptic.Device), now: time.Now}
}

// claim binds the bridge to client. The pool is driven by one client at a
// time; another client is refused until the owner has been idle for the
// lease TTL.
func (s *Server) claim(ctx context.Context, client string) error {
	if client == "" {
		return status.Error(codes.InvalidArgument, "client id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if s.owner != "" && s.owner != client && now.Sub(s.seen) < s.cfg.leaseTTL() {
		return status.Errorf(codes.FailedPrecondition, "device pool is leased to another client")
	}
	if s.owner != client {
		pslog.Ctx(ctx).Info("device bridge leased", "client", client, "previous", s.owner)
		s.owner = client
	}
	s.seen = now
	return nil
}

// ListenAndServe serves until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	network, address, err := splitAddr(s.cfg.Addr)
	if err != nil {
		return err
	}
	if network == "unix" {
		if err := os.MkdirAll(filepath.Dir(address), 0o755); err != nil {
			return err
		}
		_ = os.Remove(address)
	}
	listener, err := net.Listen(network, address)
	if err != nil {
		return err
	}
	grpcServer := grpc.NewServer()
	registerBridgeServer(grpcServer, s)
	pslog.Ctx(ctx).Info("device bridge listening", "network", network, "addr", address)

	errCh := make(chan error, 1)
	go func() {
		errCh <- grpcServer.Serve(listener)
	}()
	select {
	case <-ctx.Done():
		grpcServer.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Discover runs discovery on the pool and remembers the devices by id.
func (s *Server) Discover(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	count := int(in.GetFields()[fieldCount].GetNumberValue())
	if count < 0 {
		return nil, status.Error(codes.InvalidArgument, "count must not be negative")
	}
	if err := s.claim(ctx, in.GetFields()[fieldClient].GetStringValue()); err != nil {
		return nil, err
	}
	devices, err := s.discoverer.Discover(ctx, count)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "discover: %v", err)
	}
	ids := make([]any, 0, len(devices))
	s.mu.Lock()
	for _, dev := range devices {
		s.devices[dev.ID()] = dev
		ids = append(ids, dev.ID())
	}
	s.mu.Unlock()
	pslog.Ctx(ctx).Debug("device bridge discover", "requested", count, "found", len(ids))
	out, err := structpb.NewStruct(map[string]any{fieldDevices: ids})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode devices: %v", err)
	}
	return out, nil
}

// Command applies one device command.
func (s *Server) Command(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	fields := in.GetFields()
	id := fields[fieldDevice].GetStringValue()
	name := fields[fieldCommand].GetStringValue()
	if id == "" || name == "" {
		return nil, status.Error(codes.InvalidArgument, "device and command are required")
	}
	if err := s.claim(ctx, fields[fieldClient].GetStringValue()); err != nil {
		return nil, err
	}
	s.mu.Lock()
	dev, ok := s.devices[id]
	s.mu.Unlock()
	if !ok {
		return nil, status.Errorf(codes.NotFound, "device %q not discovered", id)
	}
	if err := applyCommand(ctx, dev, name, fields); err != nil {
		pslog.Ctx(ctx).Warn("device bridge command failed", "device", id, "command", name, "err", err)
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

var errBadArgument = errors.New("bad argument")

func applyCommand(ctx context.Context, dev haptic.Device, name string, fields map[string]*structpb.Value) error {
	number := func(key string, min, max float64) (float64, error) {
		v, ok := fields[key]
		if !ok {
			return 0, fmt.Errorf("%w: %s is required", errBadArgument, key)
		}
		n := v.GetNumberValue()
		if math.IsNaN(n) || n < min || n > max {
			return 0, fmt.Errorf("%w: %s=%v out of range", errBadArgument, key, n)
		}
		return n, nil
	}
	switch name {
	case haptic.CommandSetLED:
		var rgb [3]uint8
		for i, key := range []string{fieldR, fieldG, fieldB} {
			n, err := number(key, 0, math.MaxUint8)
			if err != nil {
				return err
			}
			rgb[i] = uint8(n)
		}
		return dev.SetLED(ctx, schema.RGB{R: rgb[0], G: rgb[1], B: rgb[2]})
	case haptic.CommandSetVibrationMode:
		n, err := number(fieldMode, 0, math.MaxUint8)
		if err != nil {
			return err
		}
		return dev.SetVibrationMode(ctx, haptic.VibrationMode(n))
	case haptic.CommandSetVibrationFrequency:
		n, err := number(fieldHz, 0, math.MaxUint16)
		if err != nil {
			return err
		}
		return dev.SetVibrationFrequency(ctx, uint16(n))
	case haptic.CommandSetVibrationIntensity:
		n, err := number(fieldIntensity, 0, 1)
		if err != nil {
			return err
		}
		return dev.SetVibrationIntensity(ctx, float32(n))
	case haptic.CommandSetThermalIntensity:
		n, err := number(fieldIntensity, -1, 1)
		if err != nil {
			return err
		}
		return dev.SetThermalIntensity(ctx, float32(n))
	default:
		return fmt.Errorf("%w: unknown command %q", errBadArgument, name)
	}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, errBadArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Aborted, err.Error())
	}
}
