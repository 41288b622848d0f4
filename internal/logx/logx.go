package logx

import (
	"context"

	"pkt.systems/hapticnote/schema"
	"pkt.systems/pslog"
)

type contextKey int

const (
	requestKey contextKey = iota
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithRequest annotates the logger with the request id if present.
func WithRequest(ctx context.Context, requestID string) pslog.Logger {
	log := pslog.Ctx(ctx)
	if requestID != "" {
		if current, ok := ctx.Value(requestKey).(string); ok && current == requestID {
			return log
		}
		log = log.With("request_id", requestID)
	}
	return log
}

// WithDescriptor annotates the logger with the actuation target.
func WithDescriptor(log pslog.Logger, d schema.Descriptor) pslog.Logger {
	if d.ColorName != "" {
		log = log.With("color", d.ColorName)
	}
	if d.VibrationHz != 0 {
		log = log.With("vibration_hz", d.VibrationHz)
	}
	return log
}

// WithDevice annotates the logger with a device id.
func WithDevice(log pslog.Logger, id string) pslog.Logger {
	if id == "" {
		return log
	}
	return log.With("device", id)
}

// WithRecord annotates the logger with highlight record metadata.
func WithRecord(log pslog.Logger, r schema.HighlightRecord) pslog.Logger {
	if r.ID != "" {
		log = log.With("record", r.ID)
	}
	if r.Kind != "" {
		log = log.With("kind", r.Kind)
	}
	if r.Emotion != "" {
		log = log.With("emotion", r.Emotion)
	}
	return log
}

// ContextWithRequest stores the request marker on the context for log de-duplication.
func ContextWithRequest(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestKey, requestID)
}

// ContextWithRequestLogger attaches the logger and request marker to the context.
func ContextWithRequestLogger(ctx context.Context, log pslog.Logger, requestID string) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithRequest(ctx, requestID)
}

// RequestID returns the request marker stored on ctx.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestKey).(string)
	return id
}
