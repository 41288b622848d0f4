package emotion

import "pkt.systems/hapticnote/schema"

// keywordLists are the curated trigger words checked before any lexicon
// lookup.
var keywordLists = map[schema.Emotion][]string{
	schema.EmotionAnger:        {"angry", "mad", "furious", "rage", "irritated"},
	schema.EmotionFear:         {"scared", "afraid", "terrified", "nervous", "anxious"},
	schema.EmotionJoy:          {"happy", "excited", "delighted", "joyful", "glad"},
	schema.EmotionSadness:      {"sad", "unhappy", "depressed", "down", "miserable"},
	schema.EmotionDisgust:      {"disgusted", "gross", "revolted", "sickened"},
	schema.EmotionSurprise:     {"shocked", "amazed", "astonished", "surprised"},
	schema.EmotionTrust:        {"trust", "confident", "assured", "reliable"},
	schema.EmotionAnticipation: {"eager", "expecting", "anticipating"},
}

// keywordSets holds each list plus the lemma of every entry so a token
// matches whichever form it was reduced to.
var keywordSets = buildKeywordSets()

func buildKeywordSets() map[schema.Emotion]map[string]struct{} {
	sets := make(map[schema.Emotion]map[string]struct{}, len(keywordLists))
	for e, words := range keywordLists {
		set := make(map[string]struct{}, len(words)*2)
		for _, w := range words {
			set[w] = struct{}{}
			set[Lemmatize(w)] = struct{}{}
		}
		sets[e] = set
	}
	return sets
}

// Keywords returns a copy of the curated keyword list for e.
func Keywords(e schema.Emotion) []string {
	return append([]string(nil), keywordLists[e]...)
}

func matchKeyword(tokens []Token) (schema.Emotion, bool) {
	for _, e := range schema.EmotionPriority {
		set := keywordSets[e]
		for _, tok := range tokens {
			if _, ok := set[tok.Surface]; ok {
				return e, true
			}
			if _, ok := set[tok.Lemma]; ok {
				return e, true
			}
		}
	}
	return "", false
}
