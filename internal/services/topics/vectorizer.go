package topics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"sentimenttracker/internal/nlp"
)

// vectorizer builds an L2-normalized TF-IDF document-term matrix over
// unigrams and bigrams with English stopwords removed
type vectorizer struct {
	minDF       int
	maxFeatures int
}

type corpus struct {
	matrix *mat.Dense
	terms  []string
}

// analyze returns the unigrams and bigrams of a document. Bigrams are
// formed after stopword removal.
func analyze(doc string) []string {
	tokens := nlp.ContentTokens(doc)
	grams := make([]string, 0, 2*len(tokens))
	grams = append(grams, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		grams = append(grams, tokens[i]+" "+tokens[i+1])
	}
	return grams
}

func (v vectorizer) fit(docs []string) corpus {
	counts := make([]map[string]int, len(docs))
	df := make(map[string]int)
	total := make(map[string]int)

	for i, doc := range docs {
		c := make(map[string]int)
		for _, g := range analyze(doc) {
			c[g]++
		}
		for term, n := range c {
			df[term]++
			total[term] += n
		}
		counts[i] = c
	}

	terms := make([]string, 0, len(df))
	for term, n := range df {
		if n >= v.minDF {
			terms = append(terms, term)
		}
	}

	if v.maxFeatures > 0 && len(terms) > v.maxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if total[terms[i]] != total[terms[j]] {
				return total[terms[i]] > total[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.maxFeatures]
	}
	sort.Strings(terms)

	if len(terms) == 0 {
		return corpus{}
	}

	index := make(map[string]int, len(terms))
	for j, term := range terms {
		index[term] = j
	}

	n := float64(len(docs))
	idf := make([]float64, len(terms))
	for j, term := range terms {
		idf[j] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	x := mat.NewDense(len(docs), len(terms), nil)
	for i, c := range counts {
		for term, tf := range c {
			if j, ok := index[term]; ok {
				x.Set(i, j, float64(tf)*idf[j])
			}
		}
		row := x.RawRowView(i)
		norm := 0.0
		for _, val := range row {
			norm += val * val
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range row {
				row[j] /= norm
			}
		}
	}

	return corpus{matrix: x, terms: terms}
}
