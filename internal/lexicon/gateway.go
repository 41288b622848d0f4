// Package lexicon supplies the word-emotion association lexicon and the
// thesaurus consulted by the emotion classifier. Data comes from
// NRC-layout TSV and YAML files on disk or from the embedded defaults and
// can be swapped atomically while the server runs.
package lexicon

import (
	"context"
	"sync"

	"pkt.systems/hapticnote/schema"
)

// Data is one loaded generation of lexicon and thesaurus entries. Keys are
// lowercase words.
type Data struct {
	Scores   map[string]map[schema.Emotion]float64
	Synonyms map[string][]string
}

// Gateway serves lookups from the current Data generation.
type Gateway struct {
	mu   sync.RWMutex
	data Data
}

// New constructs a Gateway over data.
func New(data Data) *Gateway {
	g := &Gateway{}
	g.Swap(data)
	return g
}

// Swap replaces the served data.
func (g *Gateway) Swap(data Data) {
	if data.Scores == nil {
		data.Scores = map[string]map[schema.Emotion]float64{}
	}
	if data.Synonyms == nil {
		data.Synonyms = map[string][]string{}
	}
	g.mu.Lock()
	g.data = data
	g.mu.Unlock()
}

// Scores returns the emotion associations of token. Unknown tokens yield a
// nil map and no error.
func (g *Gateway) Scores(ctx context.Context, token string) (map[schema.Emotion]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	entry := g.data.Scores[token]
	g.mu.RUnlock()
	if len(entry) == 0 {
		return nil, nil
	}
	out := make(map[schema.Emotion]float64, len(entry))
	for e, v := range entry {
		out[e] = v
	}
	return out, nil
}

// Synonyms returns the thesaurus entries for token.
func (g *Gateway) Synonyms(ctx context.Context, token string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	syns := g.data.Synonyms[token]
	g.mu.RUnlock()
	return append([]string(nil), syns...), nil
}

// Size reports the number of lexicon words and thesaurus headwords.
func (g *Gateway) Size() (words, headwords int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.data.Scores), len(g.data.Synonyms)
}
