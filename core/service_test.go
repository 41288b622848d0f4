package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"pkt.systems/hapticnote/internal/devicesim"
	"pkt.systems/hapticnote/internal/emotion"
	"pkt.systems/hapticnote/internal/haptic"
	"pkt.systems/hapticnote/internal/highlight"
	"pkt.systems/hapticnote/schema"
)

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

type recordingSink struct {
	mu      sync.Mutex
	records []schema.HighlightRecord
}

func (s *recordingSink) OnHighlight(record schema.HighlightRecord) {
	s.mu.Lock()
	s.records = append(s.records, record)
	s.mu.Unlock()
}

type testEnv struct {
	svc   Service
	pool  *devicesim.Pool
	store *highlight.Store
	sink  *recordingSink
}

func newTestEnv(t *testing.T, devices int) testEnv {
	t.Helper()
	env := testEnv{
		pool:  devicesim.NewPool(devices),
		store: highlight.NewStore(),
		sink:  &recordingSink{},
	}
	svc, err := NewService(ServiceConfig{DeviceCount: 4}, ServiceDeps{
		Classifier: emotion.New(nil),
		Discoverer: env.pool,
		Sequencer:  haptic.NewSequencer(haptic.Config{Dwell: time.Millisecond}),
		Store:      env.store,
		EventSink:  env.sink,
		Now:        func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	env.svc = svc
	return env
}

func firstCall(t *testing.T, pool *devicesim.Pool, command string) devicesim.Call {
	t.Helper()
	for _, c := range pool.Journal().Calls() {
		if c.Command == command {
			return c
		}
	}
	t.Fatalf("no %s call recorded", command)
	return devicesim.Call{}
}

func TestNewServiceRequiresDiscoverer(t *testing.T) {
	if _, err := NewService(ServiceConfig{}, ServiceDeps{}); err == nil {
		t.Fatalf("expected error without a discoverer")
	}
}

func TestHapticFeedbackRecordsNormalHighlight(t *testing.T) {
	env := newTestEnv(t, 2)
	resp, err := env.svc.HapticFeedback(context.Background(), schema.HapticFeedbackRequest{Text: "The storm", Color: " Red "})
	if err != nil {
		t.Fatalf("HapticFeedback: %v", err)
	}
	if resp.Message != "Haptic feedback triggered for red, then turned off." {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	want := []schema.HighlightRecord{{
		Text:        "The storm",
		ColorName:   "red",
		VibrationHz: 200,
		Kind:        schema.RecordNormal,
		CreatedAt:   fixedNow,
	}}
	if diff := cmp.Diff(want, env.store.List(), cmpopts.IgnoreFields(schema.HighlightRecord{}, "ID")); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	if env.store.List()[0].ID == "" {
		t.Fatalf("expected record id")
	}
	if len(env.pool.Journal().Calls()) != 14 {
		t.Fatalf("expected 7 commands on each of 2 devices, got %d", len(env.pool.Journal().Calls()))
	}
	if len(env.sink.records) != 1 {
		t.Fatalf("expected sink notification")
	}
}

func TestHapticFeedbackRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, 2)
	cases := []struct {
		req  schema.HapticFeedbackRequest
		want error
	}{
		{schema.HapticFeedbackRequest{Text: " ", Color: "red"}, schema.ErrInvalidInput},
		{schema.HapticFeedbackRequest{Text: "x", Color: ""}, schema.ErrInvalidInput},
		{schema.HapticFeedbackRequest{Text: "x", Color: "purple"}, schema.ErrUnknownColor},
		{schema.HapticFeedbackRequest{Text: "x", Color: "anger"}, schema.ErrUnknownColor},
	}
	for _, tc := range cases {
		if _, err := env.svc.HapticFeedback(context.Background(), tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("HapticFeedback(%+v) err = %v, want %v", tc.req, err, tc.want)
		}
	}
	if env.store.Len() != 0 || len(env.pool.Journal().Calls()) != 0 {
		t.Fatalf("rejected requests must not actuate or record")
	}
}

func TestNoDevicesLeavesStoreUnchanged(t *testing.T) {
	env := newTestEnv(t, 0)
	_, err := env.svc.HapticFeedback(context.Background(), schema.HapticFeedbackRequest{Text: "x", Color: "blue"})
	if !errors.Is(err, schema.ErrNoDevicesFound) {
		t.Fatalf("expected ErrNoDevicesFound, got %v", err)
	}
	_, err = env.svc.AnalyzeSentiment(context.Background(), schema.AnalyzeSentimentRequest{Text: "so happy"})
	if !errors.Is(err, schema.ErrNoDevicesFound) {
		t.Fatalf("expected ErrNoDevicesFound, got %v", err)
	}
	if env.store.Len() != 0 {
		t.Fatalf("no record may be appended without devices")
	}
}

func TestAnalyzeSentimentRecordsSenseNote(t *testing.T) {
	env := newTestEnv(t, 1)
	resp, err := env.svc.AnalyzeSentiment(context.Background(), schema.AnalyzeSentimentRequest{
		Text:            "  I am so angry about this  ",
		HighlightedText: "the verdict",
	})
	if err != nil {
		t.Fatalf("AnalyzeSentiment: %v", err)
	}
	if resp.Emotion != schema.EmotionAnger || resp.Color != "red" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Message != "Emotion detected: anger, color assigned: red, haptic feedback triggered." {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	note := "I am so angry about this"
	want := schema.HighlightRecord{
		Text:        "the verdict",
		Note:        &note,
		ColorName:   "red",
		VibrationHz: 200,
		Kind:        schema.RecordSense,
		Emotion:     schema.EmotionAnger,
		CreatedAt:   fixedNow,
	}
	if diff := cmp.Diff(want, resp.Record, cmpopts.IgnoreFields(schema.HighlightRecord{}, "ID")); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeSentimentUsesEmotionLEDColor(t *testing.T) {
	env := newTestEnv(t, 1)
	resp, err := env.svc.AnalyzeSentiment(context.Background(), schema.AnalyzeSentimentRequest{Text: "I feel terrified"})
	if err != nil {
		t.Fatalf("AnalyzeSentiment: %v", err)
	}
	if resp.Emotion != schema.EmotionFear || resp.Color != "blue" {
		t.Fatalf("unexpected response %+v", resp)
	}
	led := firstCall(t, env.pool, haptic.CommandSetLED)
	if led.Value != (schema.RGB{R: 128, B: 128}) {
		t.Fatalf("expected fear LED color, got %+v", led.Value)
	}
	if resp.Record.Text != "I feel terrified" {
		t.Fatalf("expected note text as record key without highlighted text, got %q", resp.Record.Text)
	}
}

func TestAnalyzeSentimentNeutralFallback(t *testing.T) {
	env := newTestEnv(t, 1)
	resp, err := env.svc.AnalyzeSentiment(context.Background(), schema.AnalyzeSentimentRequest{Text: "the table"})
	if err != nil {
		t.Fatalf("AnalyzeSentiment: %v", err)
	}
	if resp.Emotion != schema.EmotionNeutral || resp.Color != "white" {
		t.Fatalf("expected neutral white, got %+v", resp)
	}
	if _, err := env.svc.AnalyzeSentiment(context.Background(), schema.AnalyzeSentimentRequest{Text: "\t"}); !errors.Is(err, schema.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank text, got %v", err)
	}
}

func TestReplayByTextAndNote(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()
	if _, err := env.svc.AnalyzeSentiment(ctx, schema.AnalyzeSentimentRequest{Text: "so scared tonight", HighlightedText: "Dark Woods"}); err != nil {
		t.Fatalf("AnalyzeSentiment: %v", err)
	}
	before := len(env.pool.Journal().Calls())

	resp, err := env.svc.Replay(ctx, schema.ReplayRequest{Text: "  dark   woods "})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if resp.Color != "blue" || resp.Message != "Haptic feedback played for highlighted text or note: dark   woods" {
		t.Fatalf("unexpected replay response %+v", resp)
	}
	calls := env.pool.Journal().Calls()[before:]
	if len(calls) != 7 || calls[0].Value != (schema.RGB{R: 128, B: 128}) || calls[2].Value != uint16(250) {
		t.Fatalf("replay did not reproduce the fear actuation: %+v", calls)
	}

	if _, err := env.svc.Replay(ctx, schema.ReplayRequest{Text: "So scared tonight"}); err != nil {
		t.Fatalf("Replay by note: %v", err)
	}
	if env.store.Len() != 1 {
		t.Fatalf("replay must not append records")
	}
}

func TestReplayMissAndBlank(t *testing.T) {
	env := newTestEnv(t, 1)
	if _, err := env.svc.Replay(context.Background(), schema.ReplayRequest{Text: "nothing"}); !errors.Is(err, schema.ErrNoMatchingRecord) {
		t.Fatalf("expected ErrNoMatchingRecord, got %v", err)
	}
	if _, err := env.svc.Replay(context.Background(), schema.ReplayRequest{}); !errors.Is(err, schema.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(env.pool.Journal().Calls()) != 0 {
		t.Fatalf("a miss must not actuate")
	}
}

func TestReplayDescriptorTrustsStoredValues(t *testing.T) {
	d := replayDescriptor(schema.HighlightRecord{Kind: schema.RecordNormal, ColorName: "green", VibrationHz: 123})
	if d.Color != (schema.RGB{G: 255}) || d.VibrationHz != 123 || d.ColorName != "green" {
		t.Fatalf("unexpected descriptor %+v", d)
	}
	d = replayDescriptor(schema.HighlightRecord{Kind: schema.RecordSense, Emotion: schema.EmotionTrust, ColorName: "green", VibrationHz: 120})
	if d.Color != (schema.RGB{G: 255, B: 255}) {
		t.Fatalf("expected trust LED color, got %+v", d)
	}
	d = replayDescriptor(schema.HighlightRecord{Kind: schema.RecordNormal, ColorName: "white", VibrationHz: 150})
	if d.Color != (schema.RGB{R: 255, G: 255, B: 255}) {
		t.Fatalf("expected neutral LED for unknown stored color, got %+v", d)
	}
}

func TestPartialFailureStillRecords(t *testing.T) {
	env := newTestEnv(t, 2)
	dev, _ := env.pool.Device("dot-2")
	dev.FailOn(haptic.CommandSetLED, errors.New("led driver fault"))
	resp, err := env.svc.HapticFeedback(context.Background(), schema.HapticFeedbackRequest{Text: "x", Color: "green"})
	if err != nil {
		t.Fatalf("partial failure must succeed: %v", err)
	}
	if len(resp.Warnings) != 2 {
		t.Fatalf("expected actuation and release warnings, got %v", resp.Warnings)
	}
	if env.store.Len() != 1 {
		t.Fatalf("record must be appended after a partial failure")
	}
}

func TestCancelledWhileWaitingDoesNotRecord(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := env.svc.HapticFeedback(ctx, schema.HapticFeedbackRequest{Text: "x", Color: "red"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if env.store.Len() != 0 {
		t.Fatalf("cancelled trigger must not append")
	}
}

func TestClassifyDoesNotActuate(t *testing.T) {
	env := newTestEnv(t, 1)
	resp, err := env.svc.Classify(context.Background(), schema.ClassifyRequest{Text: "We were anticipating it"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if resp.Emotion != schema.EmotionAnticipation || resp.Stage != "keyword" || resp.Color != "yellow" {
		t.Fatalf("unexpected classify response %+v", resp)
	}
	if diff := cmp.Diff([]string{"we", "be", "anticipate", "it"}, resp.Tokens); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
	if len(env.pool.Journal().Calls()) != 0 || env.store.Len() != 0 {
		t.Fatalf("classify must not actuate or record")
	}
}
