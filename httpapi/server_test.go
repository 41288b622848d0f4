package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"pkt.systems/hapticnote/core"
	"pkt.systems/hapticnote/internal/devicesim"
	"pkt.systems/hapticnote/internal/emotion"
	"pkt.systems/hapticnote/internal/haptic"
	"pkt.systems/hapticnote/schema"
)

type testServer struct {
	handler http.Handler
	pool    *devicesim.Pool
	hub     *Hub
}

func newTestServer(t *testing.T, devices int, cfg Config) testServer {
	t.Helper()
	hub := NewHub(16)
	pool := devicesim.NewPool(devices)
	svc, err := core.NewService(core.ServiceConfig{DeviceCount: 4}, core.ServiceDeps{
		Classifier: emotion.New(nil),
		Discoverer: pool,
		Sequencer:  haptic.NewSequencer(haptic.Config{Dwell: time.Millisecond, Observer: hub}),
		EventSink:  hub,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return testServer{handler: NewServer(cfg, svc, hub).Handler(), pool: pool, hub: hub}
}

func (ts testServer) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	out := map[string]any{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s response: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec.Code, out
}

func TestHapticFeedbackEndToEnd(t *testing.T) {
	ts := newTestServer(t, 2, Config{})
	status, body := ts.do(t, http.MethodPost, "/haptic-feedback", `{"text":"The storm","color":"red"}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if body["message"] != "Haptic feedback triggered for red, then turned off." {
		t.Fatalf("unexpected message %v", body["message"])
	}
	if _, ok := body["warnings"]; ok {
		t.Fatalf("did not expect warnings: %v", body)
	}
	for _, dev := range ts.pool.Devices() {
		want := []devicesim.Call{
			{Device: dev.ID(), Command: haptic.CommandSetLED, Value: schema.RGB{R: 255}},
			{Device: dev.ID(), Command: haptic.CommandSetVibrationMode, Value: haptic.VibrationManual},
			{Device: dev.ID(), Command: haptic.CommandSetVibrationFrequency, Value: uint16(200)},
			{Device: dev.ID(), Command: haptic.CommandSetVibrationIntensity, Value: float32(1)},
			{Device: dev.ID(), Command: haptic.CommandSetVibrationIntensity, Value: float32(0)},
			{Device: dev.ID(), Command: haptic.CommandSetLED, Value: schema.RGB{R: 76, G: 76, B: 76}},
			{Device: dev.ID(), Command: haptic.CommandSetThermalIntensity, Value: float32(0)},
		}
		if diff := cmp.Diff(want, dev.Calls()); diff != "" {
			t.Fatalf("%s calls mismatch (-want +got):\n%s", dev.ID(), diff)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/get-highlights", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	var records []schema.HighlightRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode highlights: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %+v", records)
	}
	r := records[0]
	if r.Text != "The storm" || r.ColorName != "red" || r.VibrationHz != 200 || r.Kind != schema.RecordNormal || r.Note != nil || r.Emotion != "" {
		t.Fatalf("unexpected record %+v", r)
	}
	if !strings.Contains(rec.Body.String(), `"note":null`) {
		t.Fatalf("expected explicit null note, got %s", rec.Body.String())
	}
}

func TestEmptyHighlightsIsArray(t *testing.T) {
	ts := newTestServer(t, 1, Config{})
	req := httptest.NewRequest(http.MethodGet, "/get-highlights", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %q", rec.Body.String())
	}
}

func TestAnalyzeAndReplay(t *testing.T) {
	ts := newTestServer(t, 1, Config{})
	status, body := ts.do(t, http.MethodPost, "/analyze-sentiment", `{"text":"I am so happy today","highlightedText":"sunrise"}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if body["emotion"] != "joy" || body["color"] != "green" {
		t.Fatalf("unexpected analyze body %v", body)
	}
	if body["message"] != "Emotion detected: joy, color assigned: green, haptic feedback triggered." {
		t.Fatalf("unexpected message %v", body["message"])
	}
	for _, path := range []string{"/replay-haptic", "/play-haptic-feedback"} {
		status, body = ts.do(t, http.MethodPost, path, `{"text":"SUNRISE"}`)
		if status != http.StatusOK || body["color"] != "green" {
			t.Fatalf("%s: status = %d, body = %v", path, status, body)
		}
		if body["message"] != "Haptic feedback played for highlighted text or note: SUNRISE" {
			t.Fatalf("%s: unexpected message %v", path, body["message"])
		}
	}
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t, 1, Config{})
	cases := []struct {
		path, body string
		status     int
		code       string
	}{
		{"/haptic-feedback", `{"text":"x","color":"purple"}`, http.StatusBadRequest, "UnknownColor"},
		{"/haptic-feedback", `{"text":"","color":"red"}`, http.StatusBadRequest, "InvalidInput"},
		{"/haptic-feedback", `{"text":"x","color":"red","extra":1}`, http.StatusBadRequest, "InvalidInput"},
		{"/haptic-feedback", ``, http.StatusBadRequest, "InvalidInput"},
		{"/analyze-sentiment", `{"text":"   "}`, http.StatusBadRequest, "InvalidInput"},
		{"/replay-haptic", `{"text":"never stored"}`, http.StatusBadRequest, "NoMatchingRecord"},
		{"/classify", `{"text":""}`, http.StatusBadRequest, "InvalidInput"},
	}
	for _, tc := range cases {
		status, body := ts.do(t, http.MethodPost, tc.path, tc.body)
		if status != tc.status || body["code"] != tc.code {
			t.Fatalf("POST %s %s: status = %d, body = %v", tc.path, tc.body, status, body)
		}
		if body["error"] == "" {
			t.Fatalf("expected error message in %v", body)
		}
	}
	if len(ts.pool.Journal().Calls()) != 0 {
		t.Fatalf("failed requests must not actuate")
	}
}

func TestNoDevicesIsServerError(t *testing.T) {
	ts := newTestServer(t, 0, Config{})
	status, body := ts.do(t, http.MethodPost, "/haptic-feedback", `{"text":"x","color":"red"}`)
	if status != http.StatusInternalServerError || body["code"] != "NoDevicesFound" {
		t.Fatalf("status = %d, body = %v", status, body)
	}
}

func TestPartialFailureReturnsWarnings(t *testing.T) {
	ts := newTestServer(t, 2, Config{})
	dev, _ := ts.pool.Device("dot-1")
	dev.FailOn(haptic.CommandSetVibrationMode, errors.New("mode rejected"))
	status, body := ts.do(t, http.MethodPost, "/haptic-feedback", `{"text":"x","color":"blue"}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	warnings, _ := body["warnings"].([]any)
	if len(warnings) != 1 || !strings.Contains(fmt.Sprint(warnings[0]), "dot-1") {
		t.Fatalf("expected one dot-1 warning, got %v", body["warnings"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, 1, Config{})
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/haptic-feedback"},
		{http.MethodGet, "/analyze-sentiment"},
		{http.MethodGet, "/replay-haptic"},
		{http.MethodPost, "/get-highlights"},
		{http.MethodPost, "/healthz"},
	} {
		if status, _ := ts.do(t, tc.method, tc.path, ""); status != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: status = %d", tc.method, tc.path, status)
		}
	}
}

func TestClassifyEndpoint(t *testing.T) {
	ts := newTestServer(t, 1, Config{})
	status, body := ts.do(t, http.MethodPost, "/classify", `{"text":"Furious about it"}`)
	if status != http.StatusOK || body["emotion"] != "anger" || body["stage"] != "keyword" || body["color"] != "red" {
		t.Fatalf("status = %d, body = %v", status, body)
	}
}

func TestIndexAndBasePath(t *testing.T) {
	ts := newTestServer(t, 1, Config{BasePath: "/notes"})
	req := httptest.NewRequest(http.MethodGet, "/notes/", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	page := rec.Body.String()
	if !strings.Contains(page, `<base href="/notes/" />`) {
		t.Fatalf("expected base href in index")
	}
	if !strings.Contains(page, `<option value="red">red</option>`) {
		t.Fatalf("expected color options in index")
	}

	req = httptest.NewRequest(http.MethodGet, "/notes", nil)
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected redirect to trailing slash, got %d", rec.Code)
	}

	status, body := ts.do(t, http.MethodGet, "/notes/healthz", "")
	if status != http.StatusOK || body["ok"] != true {
		t.Fatalf("healthz: status = %d, body = %v", status, body)
	}
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t, 1, Config{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if rec.Header().Get(requestIDHeader) != "abc-123" {
		t.Fatalf("expected request id to be echoed")
	}
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestStreamDeliversEventsAndReplays(t *testing.T) {
	ts := newTestServer(t, 1, Config{})
	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/stream", nil)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	waitFor(t, time.Second, func() bool { return subscriberCount(ts.hub) == 1 })
	post, err := srv.Client().Post(srv.URL+"/haptic-feedback", "application/json", strings.NewReader(`{"text":"x","color":"green"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	_, _ = io.Copy(io.Discard, post.Body)
	post.Body.Close()

	events := readEvents(t, resp.Body, 5)
	wantTypes := []string{EventActuation, EventActuation, EventActuation, EventActuation, EventHighlight}
	for i, ev := range events {
		if ev.Type != wantTypes[i] || ev.Seq != uint64(i+1) {
			t.Fatalf("event %d = %+v", i, ev)
		}
	}
	if events[0].Actuation.Phase != schema.PhaseActuating || events[3].Actuation.Phase != schema.PhaseIdle {
		t.Fatalf("unexpected phases %+v / %+v", events[0].Actuation, events[3].Actuation)
	}
	if events[4].Highlight.ColorName != "green" {
		t.Fatalf("unexpected highlight %+v", events[4].Highlight)
	}
	cancel()

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	req2, _ := http.NewRequestWithContext(ctx2, http.MethodGet, srv.URL+"/api/stream", nil)
	req2.Header.Set("Last-Event-ID", "3")
	resp2, err := srv.Client().Do(req2)
	if err != nil {
		t.Fatalf("reopen stream: %v", err)
	}
	defer resp2.Body.Close()
	replayed := readEvents(t, resp2.Body, 2)
	if replayed[0].Seq != 4 || replayed[1].Seq != 5 {
		t.Fatalf("unexpected replay %+v", replayed)
	}
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{schema.ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("x: %w", schema.ErrUnknownColor), http.StatusBadRequest},
		{schema.ErrNoMatchingRecord, http.StatusBadRequest},
		{schema.ErrNoDevicesFound, http.StatusInternalServerError},
		{fmt.Errorf("discover: %w", context.Canceled), http.StatusServiceUnavailable},
		{errors.New("bridge exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusForError(tc.err); got != tc.want {
			t.Fatalf("statusForError(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func subscriberCount(h *Hub) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func waitFor(t *testing.T, timeout time.Duration, ready func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ready() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for condition")
}

func readEvents(t *testing.T, body io.Reader, n int) []StreamEvent {
	t.Helper()
	type result struct {
		events []StreamEvent
		err    error
	}
	done := make(chan result, 1)
	go func() {
		var events []StreamEvent
		scanner := bufio.NewScanner(body)
		for scanner.Scan() {
			line := scanner.Bytes()
			if !bytes.HasPrefix(line, []byte("data: ")) {
				continue
			}
			var ev StreamEvent
			if err := json.Unmarshal(bytes.TrimPrefix(line, []byte("data: ")), &ev); err != nil {
				done <- result{err: err}
				return
			}
			events = append(events, ev)
			if len(events) == n {
				done <- result{events: events}
				return
			}
		}
		done <- result{events: events, err: scanner.Err()}
	}()
	select {
	case res := <-done:
		if res.err != nil || len(res.events) != n {
			t.Fatalf("read %d events: %+v, %v", n, res.events, res.err)
		}
		return res.events
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout reading %d events", n)
		return nil
	}
}
