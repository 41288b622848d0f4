package emotion

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Token is one normalized word of the input.
type Token struct {
	Surface string `json:"surface"`
	Lemma   string `json:"lemma"`
	// stripped is set when the lemma dropped a verb inflection, in which case
	// lemma+"e" is also a plausible base form (hoping -> hop/hope).
	stripped bool
}

// Forms lists the spellings worth looking up for this token, most specific
// first and without duplicates.
func (t Token) Forms() []string {
	forms := []string{t.Lemma}
	if t.Surface != t.Lemma {
		forms = append(forms, t.Surface)
	}
	if t.stripped {
		forms = append(forms, t.Lemma+"e")
	}
	return forms
}

var lower = cases.Lower(language.Und)

// Tokenize trims, lowercases and splits text into word tokens, each reduced
// to a base form.
func Tokenize(text string) []Token {
	text = lower.String(norm.NFKC.String(strings.TrimSpace(text)))
	if text == "" {
		return nil
	}
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '’')
	})
	out := make([]Token, 0, len(words))
	for _, word := range words {
		word = strings.ReplaceAll(word, "’", "'")
		word = strings.Trim(word, "'")
		word = strings.TrimSuffix(word, "'s")
		if word == "" {
			continue
		}
		lemma, stripped := lemmatize(word)
		out = append(out, Token{Surface: word, Lemma: lemma, stripped: stripped})
	}
	return out
}

// Lemmatize reduces a lowercase word to its base form.
func Lemmatize(word string) string {
	lemma, _ := lemmatize(word)
	return lemma
}

var irregularForms = map[string]string{
	"am": "be", "is": "be", "are": "be", "was": "be", "were": "be", "been": "be", "being": "be",
	"has": "have", "had": "have", "having": "have",
	"does": "do", "did": "do", "done": "do",
	"went": "go", "gone": "go", "goes": "go",
	"felt": "feel", "got": "get", "made": "make", "said": "say", "saw": "see", "seen": "see",
	"thought": "think", "told": "tell", "took": "take", "taken": "take", "ran": "run",
	"lost": "lose", "fought": "fight", "broke": "break", "broken": "break", "fell": "fall",
	"children": "child", "men": "man", "women": "woman", "people": "person",
	"feet": "foot", "teeth": "tooth", "mice": "mouse", "lives": "life", "wives": "wife",
	"knives": "knife", "leaves": "leaf", "wolves": "wolf", "selves": "self",
}

// keepForms end in s but are not plurals.
var keepForms = map[string]struct{}{
	"this": {}, "thus": {}, "yes": {}, "less": {}, "news": {}, "always": {}, "perhaps": {},
	"nervous": {}, "anxious": {}, "miserable": {}, "gross": {}, "glass": {}, "its": {},
	"his": {}, "hers": {}, "ours": {}, "yours": {}, "theirs": {}, "was": {}, "as": {},
}

func lemmatize(word string) (string, bool) {
	if base, ok := irregularForms[word]; ok {
		return base, false
	}
	if _, ok := keepForms[word]; ok {
		return word, false
	}
	n := len(word)
	if n <= 3 {
		return word, false
	}
	switch {
	case strings.HasSuffix(word, "ies") && n > 4:
		return word[:n-3] + "y", false
	case strings.HasSuffix(word, "ied") && n > 4:
		return word[:n-3] + "y", false
	case strings.HasSuffix(word, "sses"):
		return word[:n-2], false
	case strings.HasSuffix(word, "ches"), strings.HasSuffix(word, "shes"),
		strings.HasSuffix(word, "xes"), strings.HasSuffix(word, "zzes"):
		return word[:n-2], false
	case strings.HasSuffix(word, "ing") && n > 5:
		return restoreE(undouble(word[:n-3]))
	case strings.HasSuffix(word, "ed") && n > 4 && !strings.HasSuffix(word, "eed"):
		return restoreE(undouble(word[:n-2]))
	case strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") &&
		!strings.HasSuffix(word, "us") && !strings.HasSuffix(word, "is"):
		return word[:n-1], false
	}
	return word, false
}

// eRoots are verbs whose base form ends in a silent e that inflection drops.
var eRoots = map[string]struct{}{
	"scare": {}, "amaze": {}, "surprise": {}, "excite": {}, "irritate": {}, "assure": {},
	"hope": {}, "love": {}, "hate": {}, "like": {}, "smile": {}, "care": {}, "bore": {},
	"confuse": {}, "despise": {}, "adore": {}, "grieve": {}, "rage": {}, "terrorize": {},
	"anticipate": {}, "ease": {}, "believe": {}, "relieve": {}, "shame": {}, "praise": {},
}

func restoreE(stem string) (string, bool) {
	if _, ok := eRoots[stem+"e"]; ok {
		return stem + "e", false
	}
	return stem, true
}

// undouble drops a doubled final consonant left by inflection (runn -> run)
// but keeps the common doubled endings that belong to the root.
func undouble(stem string) string {
	n := len(stem)
	if n < 3 || stem[n-1] != stem[n-2] {
		return stem
	}
	switch stem[n-1] {
	case 'l', 's', 'f', 'z', 'a', 'e', 'i', 'o', 'u':
		return stem
	}
	return stem[:n-1]
}
