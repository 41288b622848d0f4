package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pkt.systems/hapticnote/internal/descriptor"
	"pkt.systems/hapticnote/internal/emotion"
	"pkt.systems/hapticnote/internal/haptic"
	"pkt.systems/hapticnote/internal/highlight"
	"pkt.systems/hapticnote/internal/logx"
	"pkt.systems/hapticnote/schema"
	"pkt.systems/pslog"
)

const defaultDeviceCount = 4

// service implements the core service behavior.
type service struct {
	cfg        ServiceConfig
	classifier Classifier
	discoverer haptic.Discoverer
	sequencer  Sequencer
	store      RecordStore
	sink       EventSink
	logger     pslog.Logger
	now        func() time.Time
}

// NewService constructs the core service implementation.
func NewService(cfg ServiceConfig, deps ServiceDeps) (Service, error) {
	if deps.Discoverer == nil {
		return nil, errors.New("device discoverer is required")
	}
	if cfg.DeviceCount <= 0 {
		cfg.DeviceCount = defaultDeviceCount
	}
	if deps.Classifier == nil {
		deps.Classifier = emotion.New(nil)
	}
	if deps.Sequencer == nil {
		deps.Sequencer = haptic.NewSequencer(haptic.Config{})
	}
	if deps.Store == nil {
		deps.Store = highlight.NewStore()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{
		cfg:        cfg,
		classifier: deps.Classifier,
		discoverer: deps.Discoverer,
		sequencer:  deps.Sequencer,
		store:      deps.Store,
		sink:       deps.EventSink,
		logger:     deps.Logger,
		now:        deps.Now,
	}, nil
}

func (s *service) HapticFeedback(ctx context.Context, req schema.HapticFeedbackRequest) (schema.HapticFeedbackResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return schema.HapticFeedbackResponse{}, fmt.Errorf("%w: text is required", schema.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Color) == "" {
		return schema.HapticFeedbackResponse{}, fmt.Errorf("%w: color is required", schema.ErrInvalidInput)
	}
	d, ok := descriptor.ForColor(req.Color)
	if !ok {
		return schema.HapticFeedbackResponse{}, fmt.Errorf("%w: %q", schema.ErrUnknownColor, req.Color)
	}
	log := logx.WithDescriptor(s.log(ctx), d)
	log.Info("service highlight trigger start", "text_len", len(text))

	report, err := s.actuate(ctx, d)
	if err != nil {
		log.Warn("service highlight trigger failed", "err", err)
		return schema.HapticFeedbackResponse{}, err
	}
	record := schema.HighlightRecord{
		ID:          uuid.NewString(),
		Text:        req.Text,
		ColorName:   d.ColorName,
		VibrationHz: d.VibrationHz,
		Kind:        schema.RecordNormal,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.appendRecord(ctx, record); err != nil {
		return schema.HapticFeedbackResponse{}, err
	}
	return schema.HapticFeedbackResponse{
		Message:  fmt.Sprintf("Haptic feedback triggered for %s, then turned off.", d.ColorName),
		Record:   record,
		Warnings: report.Warnings(),
	}, nil
}

func (s *service) AnalyzeSentiment(ctx context.Context, req schema.AnalyzeSentimentRequest) (schema.AnalyzeSentimentResponse, error) {
	note := strings.TrimSpace(req.Text)
	if note == "" {
		return schema.AnalyzeSentimentResponse{}, fmt.Errorf("%w: text is required", schema.ErrInvalidInput)
	}
	result := s.classifier.Analyze(ctx, note)
	d := descriptor.ForEmotion(result.Emotion)
	log := logx.WithDescriptor(s.log(ctx), d)
	log.Info("service note analyzed", "emotion", result.Emotion, "stage", result.Stage)

	report, err := s.actuate(ctx, d)
	if err != nil {
		log.Warn("service note trigger failed", "err", err)
		return schema.AnalyzeSentimentResponse{}, err
	}
	key := req.HighlightedText
	if strings.TrimSpace(key) == "" {
		key = note
	}
	record := schema.HighlightRecord{
		ID:          uuid.NewString(),
		Text:        key,
		Note:        &note,
		ColorName:   d.ColorName,
		VibrationHz: d.VibrationHz,
		Kind:        schema.RecordSense,
		Emotion:     result.Emotion,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.appendRecord(ctx, record); err != nil {
		return schema.AnalyzeSentimentResponse{}, err
	}
	return schema.AnalyzeSentimentResponse{
		Message:  fmt.Sprintf("Emotion detected: %s, color assigned: %s, haptic feedback triggered.", result.Emotion, d.ColorName),
		Color:    d.ColorName,
		Emotion:  result.Emotion,
		Record:   record,
		Warnings: report.Warnings(),
	}, nil
}

func (s *service) Replay(ctx context.Context, req schema.ReplayRequest) (schema.ReplayResponse, error) {
	query := strings.TrimSpace(req.Text)
	if query == "" {
		return schema.ReplayResponse{}, fmt.Errorf("%w: text is required", schema.ErrInvalidInput)
	}
	record, ok := s.store.FindByText(query)
	if !ok {
		record, ok = s.store.FindByNote(query)
	}
	if !ok {
		return schema.ReplayResponse{}, schema.ErrNoMatchingRecord
	}
	d := replayDescriptor(record)
	log := logx.WithRecord(logx.WithDescriptor(s.log(ctx), d), record)
	log.Info("service replay start")

	report, err := s.actuate(ctx, d)
	if err != nil {
		log.Warn("service replay failed", "err", err)
		return schema.ReplayResponse{}, err
	}
	return schema.ReplayResponse{
		Message:  fmt.Sprintf("Haptic feedback played for highlighted text or note: %s", query),
		Color:    record.ColorName,
		Warnings: report.Warnings(),
	}, nil
}

func (s *service) Highlights(ctx context.Context) ([]schema.HighlightRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.List(), nil
}

func (s *service) Classify(ctx context.Context, req schema.ClassifyRequest) (schema.ClassifyResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return schema.ClassifyResponse{}, fmt.Errorf("%w: text is required", schema.ErrInvalidInput)
	}
	result := s.classifier.Analyze(ctx, req.Text)
	tokens := make([]string, len(result.Tokens))
	for i, tok := range result.Tokens {
		tokens[i] = tok.Lemma
	}
	return schema.ClassifyResponse{
		Emotion: result.Emotion,
		Stage:   string(result.Stage),
		Tokens:  tokens,
		Scores:  result.Scores,
		Color:   descriptor.ForEmotion(result.Emotion).ColorName,
	}, nil
}

// replayDescriptor rebuilds the actuation of a stored record. The LED color
// comes from the emotion for analyzed notes and from the color name for
// direct highlights; the stored vibration and color name always win.
func replayDescriptor(record schema.HighlightRecord) schema.Descriptor {
	var d schema.Descriptor
	if record.Kind == schema.RecordSense {
		d = descriptor.ForEmotion(record.Emotion)
	} else if byColor, ok := descriptor.ForColor(record.ColorName); ok {
		d = byColor
	} else {
		d = descriptor.Neutral()
	}
	d.VibrationHz = record.VibrationHz
	d.ColorName = record.ColorName
	return d
}

func (s *service) actuate(ctx context.Context, d schema.Descriptor) (haptic.Report, error) {
	devices, err := s.discoverer.Discover(ctx, s.cfg.DeviceCount)
	if err != nil {
		return haptic.Report{}, fmt.Errorf("discover devices: %w", err)
	}
	if len(devices) == 0 {
		return haptic.Report{}, schema.ErrNoDevicesFound
	}
	return s.sequencer.Trigger(ctx, d, devices)
}

func (s *service) appendRecord(ctx context.Context, record schema.HighlightRecord) error {
	if err := s.store.Append(record); err != nil {
		return err
	}
	logx.WithRecord(s.log(ctx), record).Info("service record appended")
	if s.sink != nil {
		s.sink.OnHighlight(record)
	}
	return nil
}

func (s *service) log(ctx context.Context) pslog.Logger {
	if s.logger != nil && logx.RequestID(ctx) == "" {
		return s.logger
	}
	return pslog.Ctx(ctx)
}
