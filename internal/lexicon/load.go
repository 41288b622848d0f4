package lexicon

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"pkt.systems/hapticnote/schema"
)

//go:embed data/lexicon.tsv data/thesaurus.yaml
var defaults embed.FS

const (
	defaultLexiconFile   = "data/lexicon.tsv"
	defaultThesaurusFile = "data/thesaurus.yaml"
)

// Source names the files a Gateway is loaded from. Empty paths select the
// embedded defaults.
type Source struct {
	LexiconPath   string
	ThesaurusPath string
}

// Load reads both files of src.
func Load(src Source) (Data, error) {
	lexBytes, err := readSource(src.LexiconPath, defaultLexiconFile)
	if err != nil {
		return Data{}, err
	}
	scores, err := ParseNRC(bytes.NewReader(lexBytes))
	if err != nil {
		return Data{}, fmt.Errorf("lexicon %s: %w", describe(src.LexiconPath), err)
	}
	thesBytes, err := readSource(src.ThesaurusPath, defaultThesaurusFile)
	if err != nil {
		return Data{}, err
	}
	synonyms, err := ParseThesaurus(bytes.NewReader(thesBytes))
	if err != nil {
		return Data{}, fmt.Errorf("thesaurus %s: %w", describe(src.ThesaurusPath), err)
	}
	return Data{Scores: scores, Synonyms: synonyms}, nil
}

func readSource(path, fallback string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return defaults.ReadFile(fallback)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrLexiconUnavailable, err)
	}
	return data, nil
}

func describe(path string) string {
	if path == "" {
		return "(embedded)"
	}
	return path
}

// ParseNRC reads "word<TAB>emotion<TAB>value" lines. Values may be the 0/1
// association flags of the NRC emotion lexicon or the real-valued scores of
// the NRC intensity lexicon. Lines starting with # and categories other than
// the eight emotions (positive, negative) are skipped.
func ParseNRC(r io.Reader) (map[string]map[schema.Emotion]float64, error) {
	out := make(map[string]map[schema.Emotion]float64)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 tab-separated fields, got %d", line, len(fields))
		}
		word := strings.ToLower(strings.TrimSpace(fields[0]))
		e, ok := schema.ParseEmotion(fields[1])
		if !ok || e == schema.EmotionNeutral || word == "" {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if value <= 0 {
			continue
		}
		entry := out[word]
		if entry == nil {
			entry = make(map[schema.Emotion]float64)
			out[word] = entry
		}
		entry[e] += value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseThesaurus reads a YAML mapping of headword to synonym list.
func ParseThesaurus(r io.Reader) (map[string][]string, error) {
	var raw map[string][]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return map[string][]string{}, nil
		}
		return nil, err
	}
	out := make(map[string][]string, len(raw))
	for head, syns := range raw {
		key := strings.ToLower(strings.TrimSpace(head))
		if key == "" {
			continue
		}
		for _, syn := range syns {
			syn = strings.ToLower(strings.TrimSpace(syn))
			if syn != "" {
				out[key] = append(out[key], syn)
			}
		}
	}
	return out, nil
}
