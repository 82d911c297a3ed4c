package knowledge

import (
	"context"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopwords carry no signal for matching customer questions.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "do": {}, "does": {},
	"you": {}, "your": {}, "i": {}, "we": {}, "to": {}, "of": {}, "for": {},
	"on": {}, "in": {}, "at": {}, "it": {}, "can": {}, "there": {}, "any": {},
	"have": {}, "has": {}, "what": {}, "me": {}, "my": {}, "be": {},
}

// LexicalScorer scores by cosine similarity of term-frequency vectors after
// case folding and accent removal.
type LexicalScorer struct{}

// Score implements Scorer.
func (LexicalScorer) Score(_ context.Context, question string, candidates []string) ([]float64, error) {
	q := termFreq(question)
	out := make([]float64, len(candidates))
	for i, c := range candidates {
		out[i] = cosineTerms(q, termFreq(c))
	}
	return out, nil
}

// Fold lower-cases s and strips combining marks, so "Café" and "cafe"
// compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), cases.Fold(), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

func termFreq(s string) map[string]float64 {
	words := strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tf := make(map[string]float64, len(words))
	for _, w := range words {
		if _, skip := stopwords[w]; skip {
			continue
		}
		tf[w]++
	}
	// A question made only of stopwords still deserves a match.
	if len(tf) == 0 {
		for _, w := range words {
			tf[w]++
		}
	}
	return tf
}

func cosineTerms(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for w, x := range a {
		dot += x * b[w]
		normA += x * x
	}
	for _, y := range b {
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
