package vader

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jonreiter/govader"

	"sentimenttracker/pkg/errors"
)

// Valences resolves the mean valence (-4..4) of a lower-case token
type Valences interface {
	Valence(token string) (float64, bool)
}

// Lexicon maps a token to its mean valence. Tokens are looked up
// lower-cased, so entries with upper-case letters never match.
type Lexicon map[string]float64

// Valence implements Valences
func (l Lexicon) Valence(token string) (float64, bool) {
	v, ok := l[token]
	return v, ok
}

// maxCachedTokens bounds the bundled lookup cache; tokens past it are
// recomputed on every lookup
const maxCachedTokens = 100_000

type cachedValence struct {
	v  float64
	ok bool
}

// bundledValences serves the full published VADER lexicon shipped with
// govader. govader only exposes sentence scoring, so the valence of a
// token is recovered from the compound score of the token alone, which is
// the normalized valence v/sqrt(v*v+alpha).
type bundledValences struct {
	mu       sync.Mutex
	compound func(string) float64

	cache  sync.Map
	cached atomic.Int64
}

var (
	bundledOnce sync.Once
	bundled     *bundledValences
)

// BundledValences returns the process-wide full VADER lexicon
func BundledValences() Valences {
	bundledOnce.Do(func() {
		analyzer := govader.NewSentimentIntensityAnalyzer()
		bundled = &bundledValences{
			compound: func(text string) float64 { return analyzer.PolarityScores(text).Compound },
		}
	})
	return bundled
}

// Valence implements Valences
func (b *bundledValences) Valence(token string) (float64, bool) {
	if c, ok := b.cache.Load(token); ok {
		cv := c.(cachedValence)
		return cv.v, cv.ok
	}

	v, ok := b.lookup(token)
	if b.cached.Load() < maxCachedTokens {
		if _, loaded := b.cache.LoadOrStore(token, cachedValence{v: v, ok: ok}); !loaded {
			b.cached.Add(1)
		}
	}
	return v, ok
}

func (b *bundledValences) lookup(token string) (float64, bool) {
	if !lookupSafe(token) {
		return 0, false
	}

	b.mu.Lock()
	c := b.compound(token)
	b.mu.Unlock()

	if c == 0 || math.Abs(c) >= 1 {
		return 0, false
	}
	// lexicon means carry one decimal
	v := c * math.Sqrt(normAlpha/(1-c*c))
	return math.Round(v*10) / 10, true
}

// lookupSafe reports whether scoring the token on its own reads exactly
// that token from the lexicon. Non-ASCII text is rewritten by govader's
// emoji handling, and word tokens wrapped in punctuation are stripped to a
// different word before lookup.
func lookupSafe(token string) bool {
	if token == "" {
		return false
	}
	for i := 0; i < len(token); i++ {
		if token[i] <= ' ' || token[i] > '~' {
			return false
		}
	}
	if stripped := strings.Trim(token, punctuation); stripped != token && len(stripped) > 2 {
		return false
	}
	return true
}

// LoadLexicon reads a lexicon file in the vader_lexicon.txt format
// (token, mean valence, std dev, raw ratings; tab separated). Only the
// first two columns are used.
func LoadLexicon(path string) (Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open lexicon %s", path)
	}
	defer f.Close()

	lex, err := ParseLexicon(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parse lexicon %s", path)
	}
	return lex, nil
}

// ParseLexicon parses tab separated lexicon lines. Blank lines and lines
// starting with '#' are ignored.
func ParseLexicon(r io.Reader) (Lexicon, error) {
	lex := make(Lexicon)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "line %d: expected token and valence", lineNo)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "line %d: bad valence %q", lineNo, fields[1])
		}
		lex[strings.TrimSpace(fields[0])] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan lexicon")
	}
	if len(lex) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "lexicon is empty")
	}
	return lex, nil
}
