// Package emotion maps free text to one of the closed emotion labels through
// a keyword stage, a lexicon stage and a thesaurus fallback.
package emotion

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pkt.systems/hapticnote/schema"
	"pkt.systems/pslog"
)

// Lexicon scores tokens against the emotion categories and supplies
// synonyms for tokens it does not know.
type Lexicon interface {
	Scores(ctx context.Context, token string) (map[schema.Emotion]float64, error)
	Synonyms(ctx context.Context, token string) ([]string, error)
}

// Stage names the cascade step that decided a label.
type Stage string

const (
	StageKeyword Stage = "keyword"
	StageLexicon Stage = "lexicon"
	StageNone    Stage = "none"
)

const (
	defaultLookupTimeout = 250 * time.Millisecond
	defaultParallelism   = 8
)

// Result is the full outcome of a classification.
type Result struct {
	Emotion schema.Emotion
	Stage   Stage
	Tokens  []Token
	// Scores holds the lexicon accumulator; nil when the keyword stage won.
	Scores map[schema.Emotion]float64
}

// Classifier runs the classification cascade. The zero value is not usable;
// construct with New.
type Classifier struct {
	lexicon       Lexicon
	lookupTimeout time.Duration
	parallelism   int
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLookupTimeout bounds every lexicon call.
func WithLookupTimeout(d time.Duration) Option {
	return func(c *Classifier) {
		if d > 0 {
			c.lookupTimeout = d
		}
	}
}

// WithParallelism bounds concurrent lexicon calls within one classification.
func WithParallelism(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.parallelism = n
		}
	}
}

// New constructs a Classifier. A nil lexicon disables the lexicon stage.
func New(lexicon Lexicon, opts ...Option) *Classifier {
	c := &Classifier{
		lexicon:       lexicon,
		lookupTimeout: defaultLookupTimeout,
		parallelism:   defaultParallelism,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the emotion label for text. It never fails.
func (c *Classifier) Classify(ctx context.Context, text string) schema.Emotion {
	return c.Analyze(ctx, text).Emotion
}

// Analyze runs the cascade and reports how the label was reached.
func (c *Classifier) Analyze(ctx context.Context, text string) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return Result{Emotion: schema.EmotionNeutral, Stage: StageNone}
	}
	if e, ok := matchKeyword(tokens); ok {
		return Result{Emotion: e, Stage: StageKeyword, Tokens: tokens}
	}
	scores := c.accumulate(ctx, tokens)
	e := selectEmotion(scores)
	stage := StageLexicon
	if e == schema.EmotionNeutral {
		stage = StageNone
	}
	pslog.Ctx(ctx).Debug("emotion classified", "emotion", e, "stage", stage, "tokens", len(tokens))
	return Result{Emotion: e, Stage: stage, Tokens: tokens, Scores: scores}
}

func newAccumulator() map[schema.Emotion]float64 {
	acc := make(map[schema.Emotion]float64, len(schema.EmotionPriority))
	for _, e := range schema.EmotionPriority {
		acc[e] = 0
	}
	return acc
}

// accumulate runs the lexicon stage and its thesaurus fallback. Lookups for
// distinct words run concurrently; summing happens afterwards in token order.
func (c *Classifier) accumulate(ctx context.Context, tokens []Token) map[schema.Emotion]float64 {
	acc := newAccumulator()
	if c.lexicon == nil {
		return acc
	}
	cache := newLookupCache()

	words := make([]string, 0, len(tokens)*2)
	for _, tok := range tokens {
		words = append(words, tok.Forms()...)
	}
	c.fetchScores(ctx, cache, words)

	var misses []Token
	for _, tok := range tokens {
		hit := false
		for _, form := range tok.Forms() {
			if addPositive(acc, cache.scores[form]) {
				hit = true
				break
			}
		}
		if !hit {
			misses = append(misses, tok)
		}
	}
	if len(misses) == 0 {
		return acc
	}

	var headwords []string
	for _, miss := range misses {
		headwords = append(headwords, miss.Forms()...)
	}
	c.fetchSynonyms(ctx, cache, headwords)
	perToken := make([][]string, len(misses))
	var synonyms []string
	for i, miss := range misses {
		perToken[i] = tokenSynonyms(cache, miss)
		synonyms = append(synonyms, perToken[i]...)
	}
	c.fetchScores(ctx, cache, synonyms)
	for _, syns := range perToken {
		for _, syn := range syns {
			addPositive(acc, cache.scores[syn])
		}
	}
	return acc
}

// addPositive adds the strictly positive entries of scores to acc and
// reports whether any were added.
func addPositive(acc map[schema.Emotion]float64, scores map[schema.Emotion]float64) bool {
	added := false
	for _, e := range schema.EmotionPriority {
		if v := scores[e]; v > 0 {
			acc[e] += v
			added = true
		}
	}
	return added
}

// selectEmotion returns the strict maximum, ties going to the earlier
// emotion in priority order, or neutral when nothing scored.
func selectEmotion(acc map[schema.Emotion]float64) schema.Emotion {
	best := schema.EmotionNeutral
	bestScore := 0.0
	for _, e := range schema.EmotionPriority {
		if v := acc[e]; v > bestScore {
			best = e
			bestScore = v
		}
	}
	return best
}

type lookupCache struct {
	mu       sync.Mutex
	scores   map[string]map[schema.Emotion]float64
	synonyms map[string][]string
}

func newLookupCache() *lookupCache {
	return &lookupCache{
		scores:   make(map[string]map[schema.Emotion]float64),
		synonyms: make(map[string][]string),
	}
}

func (c *Classifier) fetchScores(ctx context.Context, cache *lookupCache, words []string) {
	pending := uniqueMissing(words, func(w string) bool {
		_, ok := cache.scores[w]
		return ok
	})
	var g errgroup.Group
	g.SetLimit(c.parallelism)
	for _, word := range pending {
		g.Go(func() error {
			scores, err := callWithTimeout(ctx, c.lookupTimeout, func(callCtx context.Context) (map[schema.Emotion]float64, error) {
				return c.lexicon.Scores(callCtx, word)
			})
			if err != nil {
				pslog.Ctx(ctx).Warn("emotion lexicon lookup failed", "token", word, "err", err)
				scores = nil
			}
			cache.mu.Lock()
			cache.scores[word] = scores
			cache.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Classifier) fetchSynonyms(ctx context.Context, cache *lookupCache, words []string) {
	pending := uniqueMissing(words, func(w string) bool {
		_, ok := cache.synonyms[w]
		return ok
	})
	var g errgroup.Group
	g.SetLimit(c.parallelism)
	for _, word := range pending {
		g.Go(func() error {
			syns, err := callWithTimeout(ctx, c.lookupTimeout, func(callCtx context.Context) ([]string, error) {
				return c.lexicon.Synonyms(callCtx, word)
			})
			if err != nil {
				pslog.Ctx(ctx).Warn("emotion thesaurus lookup failed", "token", word, "err", err)
				syns = nil
			}
			cache.mu.Lock()
			cache.synonyms[word] = cleanSynonyms(word, syns)
			cache.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

// tokenSynonyms merges the synonyms of every form of tok so an inflected
// headword is reachable whichever spelling the thesaurus uses.
func tokenSynonyms(cache *lookupCache, tok Token) []string {
	forms := tok.Forms()
	var merged []string
	for _, form := range forms {
		merged = append(merged, cache.synonyms[form]...)
	}
	out := uniqueMissing(merged, func(s string) bool {
		for _, form := range forms {
			if s == form {
				return true
			}
		}
		return false
	})
	sort.Strings(out)
	return out
}

// cleanSynonyms drops the word itself and duplicates and sorts the rest so
// accumulation order does not depend on the gateway's ordering.
func cleanSynonyms(word string, syns []string) []string {
	out := uniqueMissing(syns, func(s string) bool { return s == word || s == "" })
	sort.Strings(out)
	return out
}

func uniqueMissing(words []string, skip func(string) bool) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w]; ok || skip(w) {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// callWithTimeout bounds fn even when it ignores its context.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		value, err := fn(callCtx)
		done <- result{value: value, err: err}
	}()
	select {
	case res := <-done:
		if res.err != nil {
			var zero T
			return zero, fmt.Errorf("%w: %v", schema.ErrLexiconUnavailable, res.err)
		}
		return res.value, nil
	case <-callCtx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %v", schema.ErrLexiconUnavailable, callCtx.Err())
	}
}
