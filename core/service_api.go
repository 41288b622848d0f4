package core

import (
	"context"

	"pkt.systems/hapticnote/schema"
)

// Service is the transport-agnostic API for highlights, analyzed notes and
// replays.
type Service interface {
	HapticFeedback(ctx context.Context, req schema.HapticFeedbackRequest) (schema.HapticFeedbackResponse, error)
	AnalyzeSentiment(ctx context.Context, req schema.AnalyzeSentimentRequest) (schema.AnalyzeSentimentResponse, error)
	Replay(ctx context.Context, req schema.ReplayRequest) (schema.ReplayResponse, error)
	Highlights(ctx context.Context) ([]schema.HighlightRecord, error)
	Classify(ctx context.Context, req schema.ClassifyRequest) (schema.ClassifyResponse, error)
}
