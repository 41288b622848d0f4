package lexicon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"pkt.systems/hapticnote/internal/emotion"
	"pkt.systems/hapticnote/schema"
)

func TestParseNRC(t *testing.T) {
	input := strings.Join([]string{
		"# comment",
		"storm\tanger\t1",
		"storm\tfear\t1",
		"storm\tnegative\t1",
		"storm\tjoy\t0",
		"calm\ttrust\t0.75",
		"",
	}, "\n")
	got, err := ParseNRC(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseNRC: %v", err)
	}
	want := map[string]map[schema.Emotion]float64{
		"storm": {schema.EmotionAnger: 1, schema.EmotionFear: 1},
		"calm":  {schema.EmotionTrust: 0.75},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ParseNRC mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNRCRejectsMalformedLines(t *testing.T) {
	if _, err := ParseNRC(strings.NewReader("storm anger 1\n")); err == nil {
		t.Fatalf("expected error for space separated line")
	}
	if _, err := ParseNRC(strings.NewReader("storm\tanger\tmaybe\n")); err == nil {
		t.Fatalf("expected error for non-numeric value")
	}
}

func TestParseThesaurus(t *testing.T) {
	got, err := ParseThesaurus(strings.NewReader("Fiesta: [Party, ' festival ', '']\nempty: []\n"))
	if err != nil {
		t.Fatalf("ParseThesaurus: %v", err)
	}
	want := map[string][]string{"fiesta": {"party", "festival"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ParseThesaurus mismatch (-want +got):\n%s", diff)
	}
	empty, err := ParseThesaurus(strings.NewReader(""))
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty thesaurus, got %v, %v", empty, err)
	}
}

func TestLoadEmbeddedDefaults(t *testing.T) {
	data, err := Load(Source{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if data.Scores["storm"][schema.EmotionFear] != 1 {
		t.Fatalf("expected storm to carry fear, got %v", data.Scores["storm"])
	}
	if len(data.Synonyms["fiesta"]) == 0 {
		t.Fatalf("expected fiesta in embedded thesaurus")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(Source{LexiconPath: filepath.Join(t.TempDir(), "missing.tsv")})
	if !errors.Is(err, schema.ErrLexiconUnavailable) {
		t.Fatalf("expected ErrLexiconUnavailable, got %v", err)
	}
}

func TestGatewayCopiesAndHonoursContext(t *testing.T) {
	g := New(Data{Scores: map[string]map[schema.Emotion]float64{
		"calm": {schema.EmotionTrust: 1},
	}})
	scores, err := g.Scores(context.Background(), "calm")
	if err != nil {
		t.Fatalf("Scores: %v", err)
	}
	scores[schema.EmotionTrust] = 99
	again, _ := g.Scores(context.Background(), "calm")
	if again[schema.EmotionTrust] != 1 {
		t.Fatalf("gateway data mutated through returned map")
	}
	if got, _ := g.Scores(context.Background(), "unknown"); got != nil {
		t.Fatalf("expected nil scores for unknown word, got %v", got)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Synonyms(ctx, "calm"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEmbeddedLexiconDrivesClassifier(t *testing.T) {
	data, err := Load(Source{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c := emotion.New(New(data))
	res := c.Analyze(context.Background(), "the wedding party")
	if res.Emotion != schema.EmotionJoy || res.Stage != emotion.StageLexicon {
		t.Fatalf("expected lexicon joy, got %+v", res)
	}
	res = c.Analyze(context.Background(), "fiesta")
	if res.Emotion != schema.EmotionJoy {
		t.Fatalf("expected joy through the thesaurus, got %+v", res)
	}
}

func TestEmbeddedThesaurusReachesInflectedHeadwords(t *testing.T) {
	data, err := Load(Source{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c := emotion.New(New(data))
	cases := map[string]schema.Emotion{
		"thrilled": schema.EmotionJoy,
		"grieving": schema.EmotionSadness,
		"beloved":  schema.EmotionJoy,
		"upcoming": schema.EmotionAnticipation,
	}
	for text, want := range cases {
		if got := c.Classify(context.Background(), text); got != want {
			t.Fatalf("Classify(%q) = %q, want %q", text, got, want)
		}
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	lexPath := filepath.Join(dir, "lexicon.tsv")
	thesPath := filepath.Join(dir, "thesaurus.yaml")
	writeFile(t, lexPath, "calm\ttrust\t1\n")
	writeFile(t, thesPath, "serene: [calm]\n")
	src := Source{LexiconPath: lexPath, ThesaurusPath: thesPath}
	data, err := Load(src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	g := New(data)

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- g.Watch(ctx, src, ready) }()
	select {
	case <-ready:
	case err := <-done:
		t.Fatalf("Watch exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("watch never became ready")
	}

	writeFile(t, lexPath, "calm\ttrust\t1\nstorm\tfear\t1\n")
	deadline := time.Now().Add(5 * time.Second)
	for {
		scores, _ := g.Scores(context.Background(), "storm")
		if scores[schema.EmotionFear] == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("lexicon was not reloaded")
		}
		time.Sleep(20 * time.Millisecond)
	}

	writeFile(t, lexPath, "broken line\n")
	time.Sleep(2 * defaultDebounce)
	if scores, _ := g.Scores(context.Background(), "storm"); scores[schema.EmotionFear] != 1 {
		t.Fatalf("failed reload must keep the previous data")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch: %v", err)
	}
}

func TestWatchRequiresFiles(t *testing.T) {
	if err := New(Data{}).Watch(context.Background(), Source{}, nil); err == nil {
		t.Fatalf("expected error when no files are configured")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
