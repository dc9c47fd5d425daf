// Package nlp holds the text normalization shared by scoring and topic modeling.
package nlp

import (
	"regexp"
	"strings"
)

var (
	urlRe     = regexp.MustCompile(`https?://\S+|www\.\S+`)
	mentionRe = regexp.MustCompile(`\B@\w+`)
	spaceRe   = regexp.MustCompile(`\s+`)
	tickerRe  = regexp.MustCompile(`[^A-Z0-9.\-]`)
	tokenRe   = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)
)

// CleanText removes URLs, @mentions and zero-width spaces and collapses
// whitespace. Cashtags ($AAPL) and plain tickers are kept.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = urlRe.ReplaceAllString(text, "")
	text = mentionRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\u200b", " ")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// EnsureTicker trims and upper-cases a ticker and strips everything
// outside [A-Z0-9.-]. An empty result means the ticker is invalid.
func EnsureTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	return tickerRe.ReplaceAllString(t, "")
}

// Tokenize lower-cases text and returns word tokens of at least two characters
func Tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

// ContentTokens tokenizes text and drops English stopwords
func ContentTokens(text string) []string {
	tokens := Tokenize(text)
	out := tokens[:0]
	for _, tok := range tokens {
		if !IsStopword(tok) {
			out = append(out, tok)
		}
	}
	return out
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
