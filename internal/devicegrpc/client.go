package devicegrpc

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"pkt.systems/hapticnote/internal/haptic"
	"pkt.systems/hapticnote/schema"
	"pkt.systems/pslog"
)

// Client implements haptic.Discoverer against a remote bridge.
type Client struct {
	conn *grpc.ClientConn
	id   string
}

// Dial creates a bridge client. The connection is established lazily on the
// first call.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	network, address, err := splitAddr(cfg.Addr)
	if err != nil {
		return nil, err
	}
	dialer := func(ctx context.Context, addr string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, network, addr)
	}
	conn, err := grpc.NewClient(
		"passthrough:///"+address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(dialer),
	)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, id: uuid.NewString()}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Discover asks the bridge for up to count devices.
func (c *Client) Discover(ctx context.Context, count int) ([]haptic.Device, error) {
	if c.conn == nil {
		return nil, errors.New("device bridge client not initialized")
	}
	in, err := structpb.NewStruct(map[string]any{fieldClient: c.id, fieldCount: float64(count)})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodDiscover, in, out); err != nil {
		logGRPCError(pslog.Ctx(ctx), "device bridge discover failed", err)
		return nil, fmt.Errorf("device bridge discover: %w", err)
	}
	values := out.GetFields()[fieldDevices].GetListValue().GetValues()
	devices := make([]haptic.Device, 0, len(values))
	for _, v := range values {
		if id := v.GetStringValue(); id != "" {
			devices = append(devices, &remoteDevice{client: c, id: id})
		}
	}
	return devices, nil
}

func (c *Client) command(ctx context.Context, id, name string, args map[string]any) error {
	payload := map[string]any{fieldClient: c.id, fieldDevice: id, fieldCommand: name}
	for k, v := range args {
		payload[k] = v
	}
	in, err := structpb.NewStruct(payload)
	if err != nil {
		return err
	}
	if err := c.conn.Invoke(ctx, methodCommand, in, new(emptypb.Empty)); err != nil {
		logGRPCError(pslog.Ctx(ctx), "device bridge command failed", err)
		return err
	}
	return nil
}

type remoteDevice struct {
	client *Client
	id     string
}

func (d *remoteDevice) ID() string { return d.id }

func (d *remoteDevice) SetLED(ctx context.Context, color schema.RGB) error {
	return d.client.command(ctx, d.id, haptic.CommandSetLED, map[string]any{
		fieldR: float64(color.R), fieldG: float64(color.G), fieldB: float64(color.B),
	})
}

func (d *remoteDevice) SetVibrationMode(ctx context.Context, mode haptic.VibrationMode) error {
	return d.client.command(ctx, d.id, haptic.CommandSetVibrationMode, map[string]any{fieldMode: float64(mode)})
}

func (d *remoteDevice) SetVibrationFrequency(ctx context.Context, hz uint16) error {
	return d.client.command(ctx, d.id, haptic.CommandSetVibrationFrequency, map[string]any{fieldHz: float64(hz)})
}

func (d *remoteDevice) SetVibrationIntensity(ctx context.Context, intensity float32) error {
	return d.client.command(ctx, d.id, haptic.CommandSetVibrationIntensity, map[string]any{fieldIntensity: float64(intensity)})
}

func (d *remoteDevice) SetThermalIntensity(ctx context.Context, intensity float32) error {
	return d.client.command(ctx, d.id, haptic.CommandSetThermalIntensity, map[string]any{fieldIntensity: float64(intensity)})
}

func logGRPCError(log pslog.Logger, msg string, err error) {
	if log == nil || err == nil {
		return
	}
	if st, ok := status.FromError(err); ok {
		log.Warn(msg, "err", err, "code", st.Code().String(), "message", st.Message())
		return
	}
	log.Warn(msg, "err", err)
}
