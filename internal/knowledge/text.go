// ABOUTME: Spanish text normalisation, keyword extraction, intent detection, similarity
// ABOUTME: Deliberately small: enough to match questions of a seeded knowledge base

package knowledge

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Intent classifies a user input before any knowledge base lookup.
type Intent string

const (
	IntentGreeting  Intent = "greeting"
	IntentFarewell  Intent = "farewell"
	IntentThanks    Intent = "thanks"
	IntentQuestion  Intent = "question"
	IntentStatement Intent = "statement"
)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a al algo como con cual cuales cuando de del donde el ella ellos en entre es esta
		este esto hacia hasta la las le lo los mas me mi muy no o para pero por porque
		puedes que se ser si sin sobre son su sus te tu un una uno unos y ya yo
		hola gracias ok vale dime dame explica explicame define describe`) {
		stopWords[w] = struct{}{}
	}
}

// synonyms expands abbreviations into the words questions are written with.
var synonyms = map[string][]string{
	"ia":         {"inteligencia", "artificial"},
	"ai":         {"inteligencia", "artificial"},
	"ml":         {"aprendizaje", "automatico"},
	"bd":         {"base", "datos"},
	"db":         {"base", "datos"},
	"bbdd":       {"base", "datos"},
	"poo":        {"programacion", "orientada", "objetos"},
	"oop":        {"programacion", "orientada", "objetos"},
	"mate":       {"matematicas"},
	"matematica": {"matematicas"},
}

var (
	greetings = []string{"hola", "buenos dias", "buenas tardes", "buenas noches", "saludos", "hey"}
	farewells = []string{"adios", "hasta luego", "hasta pronto", "chao", "nos vemos", "bye"}
	thanks    = []string{"gracias", "te agradezco", "muchas gracias", "mil gracias"}

	questionWords = []string{"que", "como", "cual", "cuales", "cuando", "donde", "por que", "para que", "quien"}
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, strips accents, and replaces punctuation with spaces.
func Normalize(s string) string {
	folded, _, err := transform.String(stripAccents, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' {
			return r
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(cleaned), " ")
}

// Keywords returns the distinct meaningful words of s, synonyms expanded,
// in order of first appearance.
func Keywords(s string) []string {
	var out []string
	add := func(w string) {
		if !slices.Contains(out, w) {
			out = append(out, w)
		}
	}
	for _, w := range strings.Fields(Normalize(s)) {
		if _, stop := stopWords[w]; stop {
			continue
		}
		if exp, ok := synonyms[w]; ok {
			for _, e := range exp {
				add(e)
			}
			continue
		}
		if len([]rune(w)) < 2 && !strings.ContainsAny(w, "0123456789") {
			continue
		}
		add(w)
	}
	return out
}

// NormalizeKeywords normalizes each entry of a comma separated keyword list.
func NormalizeKeywords(list string) string {
	var out []string
	for _, kw := range strings.Split(list, ",") {
		if kw = Normalize(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return strings.Join(out, ", ")
}

// DetectIntent classifies s. Greetings, farewells, and thanks only count
// when the input is not also a question.
func DetectIntent(s string) Intent {
	n := Normalize(s)
	isQuestion := strings.Contains(s, "?") || startsWithAny(n, questionWords)

	if !isQuestion {
		switch {
		case startsWithAny(n, thanks) || containsPhrase(n, "gracias"):
			return IntentThanks
		case startsWithAny(n, farewells):
			return IntentFarewell
		case startsWithAny(n, greetings):
			return IntentGreeting
		}
	}
	if isQuestion {
		return IntentQuestion
	}
	return IntentStatement
}

// Similarity scores how well input matches a stored question in [0, 1]:
// the shared keyword count over the larger keyword set, raised when the
// question's curated keywords appear in the input.
func Similarity(input, question, curated string) float64 {
	in := Keywords(input)
	q := Keywords(question)
	if len(in) == 0 || len(q) == 0 {
		return 0
	}

	shared := 0
	for _, w := range in {
		if slices.Contains(q, w) {
			shared++
		}
	}
	score := float64(shared) / float64(max(len(in), len(q)))

	normalized := " " + Normalize(input) + " "
	hits := 0
	for _, kw := range strings.Split(curated, ",") {
		kw = Normalize(kw)
		if kw != "" && strings.Contains(normalized, " "+kw+" ") {
			hits++
		}
	}
	if hits > 0 {
		score = max(score, min(1, 0.4+0.2*float64(hits)))
	}
	return score
}

func startsWithAny(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if s == p || strings.HasPrefix(s, p+" ") {
			return true
		}
	}
	return false
}

func containsPhrase(s, phrase string) bool {
	return strings.Contains(" "+s+" ", " "+phrase+" ")
}
