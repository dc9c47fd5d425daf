// Package vader implements the VADER rule-based sentiment analyzer
// (Hutto & Gilbert, 2014) over a pluggable lexicon.
package vader

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Scores holds the normalized polarity of a text. Positive, Neutral and
// Negative are proportions summing to ~1; Compound is in [-1, 1].
type Scores struct {
	Negative float64
	Neutral  float64
	Positive float64
	Compound float64
}

// Analyzer scores text against a valence source. It is safe for
// concurrent use.
type Analyzer struct {
	valences Valences
}

// New creates an analyzer. A nil source selects the bundled full lexicon.
func New(valences Valences) *Analyzer {
	if valences == nil {
		valences = BundledValences()
	}
	return &Analyzer{valences: valences}
}

// PolarityScores scores a text. Empty text yields zero scores.
func (a *Analyzer) PolarityScores(text string) Scores {
	words := tokenize(text)
	lower := make([]string, len(words))
	for i, w := range words {
		lower[i] = strings.ToLower(w)
	}
	capDiff := allCapDifferential(words)

	sentiments := make([]float64, 0, len(words))
	for i := range words {
		if _, ok := boosters[lower[i]]; ok {
			sentiments = append(sentiments, 0)
			continue
		}
		if i < len(words)-1 && lower[i] == "kind" && lower[i+1] == "of" {
			sentiments = append(sentiments, 0)
			continue
		}
		sentiments = append(sentiments, a.valence(words, lower, i, capDiff))
	}

	butCheck(lower, sentiments)
	return scoreValence(sentiments, text)
}

func (a *Analyzer) inLexicon(w string) bool {
	_, ok := a.valences.Valence(w)
	return ok
}

func (a *Analyzer) valence(words, lower []string, i int, capDiff bool) float64 {
	v, ok := a.valences.Valence(lower[i])
	if !ok {
		return 0
	}

	if isUpper(words[i]) && capDiff {
		if v > 0 {
			v += capsIncr
		} else {
			v -= capsIncr
		}
	}

	for start := 0; start < 3; start++ {
		j := i - (start + 1)
		if j < 0 || a.inLexicon(lower[j]) {
			continue
		}
		s := scalarIncDec(words[j], v, capDiff)
		if start == 1 && s != 0 {
			s *= 0.95
		}
		if start == 2 && s != 0 {
			s *= 0.9
		}
		v += s
		v = neverCheck(v, words, start, i)
		if start == 2 {
			v = idiomsCheck(v, words, i)
		}
	}

	return leastCheck(v, lower, i, a.inLexicon)
}

func scalarIncDec(word string, v float64, capDiff bool) float64 {
	scalar, ok := boosters[strings.ToLower(word)]
	if !ok {
		return 0
	}
	if v < 0 {
		scalar = -scalar
	}
	if isUpper(word) && capDiff {
		if v > 0 {
			scalar += capsIncr
		} else {
			scalar -= capsIncr
		}
	}
	return scalar
}

// neverCheck applies negation from the word start+1 positions back. The
// "never so" and "never this" forms intensify instead; they match the
// words as written.
func neverCheck(v float64, words []string, start, i int) float64 {
	switch start {
	case 0:
		if negated(words[i-1]) {
			v *= negScalar
		}
	case 1:
		switch {
		case words[i-2] == "never" && (words[i-1] == "so" || words[i-1] == "this"):
			v *= 1.5
		case negated(words[i-2]):
			v *= negScalar
		}
	case 2:
		switch {
		case (words[i-3] == "never" && (words[i-2] == "so" || words[i-2] == "this")) ||
			words[i-1] == "so" || words[i-1] == "this":
			v *= 1.25
		case negated(words[i-3]):
			v *= negScalar
		}
	}
	return v
}

func negated(word string) bool {
	w := strings.ToLower(word)
	if _, ok := negations[w]; ok {
		return true
	}
	return strings.Contains(w, "n't")
}

// idiomsCheck only runs with three preceding words available (i >= 3).
// Idioms match the words as written.
func idiomsCheck(v float64, words []string, i int) float64 {
	oneZero := words[i-1] + " " + words[i]
	twoOneZero := words[i-2] + " " + words[i-1] + " " + words[i]
	twoOne := words[i-2] + " " + words[i-1]
	threeTwoOne := words[i-3] + " " + words[i-2] + " " + words[i-1]
	threeTwo := words[i-3] + " " + words[i-2]

	for _, seq := range []string{oneZero, twoOneZero, twoOne, threeTwoOne, threeTwo} {
		if iv, ok := idioms[seq]; ok {
			v = iv
			break
		}
	}
	if len(words)-1 > i {
		if iv, ok := idioms[words[i]+" "+words[i+1]]; ok {
			v = iv
		}
	}
	if len(words)-1 > i+1 {
		if iv, ok := idioms[words[i]+" "+words[i+1]+" "+words[i+2]]; ok {
			v = iv
		}
	}

	// two-word dampeners such as "sort of"
	_, tt := boosters[threeTwo]
	_, to := boosters[twoOne]
	if tt || to {
		v += boostDecr
	}
	return v
}

func leastCheck(v float64, lower []string, i int, inLexicon func(string) bool) float64 {
	if i > 1 && !inLexicon(lower[i-1]) && lower[i-1] == "least" {
		if lower[i-2] != "at" && lower[i-2] != "very" {
			v *= negScalar
		}
	} else if i > 0 && !inLexicon(lower[i-1]) && lower[i-1] == "least" {
		v *= negScalar
	}
	return v
}

// butCheck dampens sentiment before a contrastive "but" and amplifies it after
func butCheck(lower []string, sentiments []float64) {
	bi := -1
	for i, w := range lower {
		if w == "but" {
			bi = i
			break
		}
	}
	if bi < 0 {
		return
	}
	for i := range sentiments {
		switch {
		case i < bi:
			sentiments[i] *= 0.5
		case i > bi:
			sentiments[i] *= 1.5
		}
	}
}

func scoreValence(sentiments []float64, text string) Scores {
	if len(sentiments) == 0 {
		return Scores{}
	}

	var sum float64
	for _, s := range sentiments {
		sum += s
	}
	amp := punctuationEmphasis(text)
	if sum > 0 {
		sum += amp
	} else if sum < 0 {
		sum -= amp
	}
	compound := normalize(sum)

	posSum, negSum, neuCount := siftScores(sentiments)
	if posSum > math.Abs(negSum) {
		posSum += amp
	} else if posSum < math.Abs(negSum) {
		negSum -= amp
	}

	total := posSum + math.Abs(negSum) + float64(neuCount)
	if total == 0 {
		return Scores{Compound: round(compound, 4)}
	}
	return Scores{
		Negative: round(math.Abs(negSum/total), 3),
		Neutral:  round(math.Abs(float64(neuCount)/total), 3),
		Positive: round(math.Abs(posSum/total), 3),
		Compound: round(compound, 4),
	}
}

func siftScores(sentiments []float64) (posSum, negSum float64, neuCount int) {
	for _, s := range sentiments {
		switch {
		case s > 0:
			posSum += s + 1
		case s < 0:
			negSum += s - 1
		default:
			neuCount++
		}
	}
	return posSum, negSum, neuCount
}

func punctuationEmphasis(text string) float64 {
	ep := strings.Count(text, "!")
	if ep > exclMax {
		ep = exclMax
	}
	amp := float64(ep) * exclIncr

	qm := strings.Count(text, "?")
	if qm > 1 {
		if qm <= questCutoff {
			amp += float64(qm) * questIncr
		} else {
			amp += questMax
		}
	}
	return amp
}

func normalize(score float64) float64 {
	n := score / math.Sqrt(score*score+normAlpha)
	return math.Max(-1, math.Min(1, n))
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// puncList holds the punctuation runs stripped from either side of a word
var puncList = []string{
	".", "!", "?", ",", ";", ":", "-", "'", "\"",
	"!!", "!!!", "??", "???", "?!?", "!?!", "?!?!", "!?!?", "?!?!?!", "!?!?!?",
}

// tokenize splits on whitespace and drops single-character tokens. A token
// that is a word of the text with one punctuation run before or after it
// becomes the bare word; anything else, such as an emoticon, is kept as is.
func tokenize(text string) []string {
	wordsOnly := make(map[string]struct{})
	for _, w := range strings.Fields(removePunctuation(text)) {
		if utf8.RuneCountInString(w) > 1 {
			wordsOnly[w] = struct{}{}
		}
	}

	fields := strings.Fields(text)
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) <= 1 {
			continue
		}
		out = append(out, bareWord(f, wordsOnly))
	}
	return out
}

func bareWord(token string, wordsOnly map[string]struct{}) string {
	for _, p := range puncList {
		if w, ok := strings.CutSuffix(token, p); ok {
			if _, known := wordsOnly[w]; known {
				return w
			}
		}
		if w, ok := strings.CutPrefix(token, p); ok {
			if _, known := wordsOnly[w]; known {
				return w
			}
		}
	}
	return token
}

func removePunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, text)
}

// allCapDifferential reports whether some, but not all, words are ALL CAPS
func allCapDifferential(words []string) bool {
	caps := 0
	for _, w := range words {
		if isUpper(w) {
			caps++
		}
	}
	diff := len(words) - caps
	return diff > 0 && diff < len(words)
}

// isUpper reports whether w has a cased rune and no lower-case runes
func isUpper(w string) bool {
	cased := false
	for _, r := range w {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}
