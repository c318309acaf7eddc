package library

import (
	"math"
	"math/rand/v2"
	"sort"
	"strings"
)

const (
	DefaultTopK = 3

	minScore      = 35
	maxScore      = 97
	noWordsScore  = 30
	industryBoost = 15
	maxJitter     = 10
)

// Query is the slice of a brief that retrieval looks at.
type Query struct {
	Industry   *string
	PainPoints *string
}

// Match is a scored corpus entry.
type Match struct {
	Entry      Entry
	Similarity int
}

// Reference converts the match into the link reported to callers.
func (m Match) Reference() Reference {
	return Reference{ID: m.Entry.ID, Title: m.Entry.Title, Similarity: m.Similarity}
}

// Retriever ranks corpus entries by word overlap with a query. It is safe for concurrent use.
type Retriever struct {
	corpus *Corpus
	jitter func() int
}

type RetrieverOption func(*Retriever)

// WithJitter replaces the random tie-breaker. The function must return a value in [0, 10).
func WithJitter(fn func() int) RetrieverOption {
	return func(r *Retriever) {
		r.jitter = fn
	}
}

func NewRetriever(corpus *Corpus, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		corpus: corpus,
		jitter: func() int { return rand.IntN(maxJitter) },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FindSimilar returns at most k entries sorted by descending similarity, each within [35, 97].
// k <= 0 selects DefaultTopK.
func (r *Retriever) FindSimilar(q Query, k int) []Match {
	if k <= 0 {
		k = DefaultTopK
	}

	words := queryWords(q)
	industry := ""
	if q.Industry != nil {
		industry = strings.ToLower(*q.Industry)
	}

	matches := make([]Match, 0, len(r.corpus.Entries))
	for _, e := range r.corpus.Entries {
		score := lexicalScore(words, corpusText(e))
		if industry != "" && strings.Contains(strings.ToLower(e.Industry), industry) {
			score += industryBoost
		}
		score += r.jitter()
		matches = append(matches, Match{Entry: e, Similarity: clamp(score, minScore, maxScore)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

func queryWords(q Query) []string {
	var parts []string
	for _, p := range []*string{q.Industry, q.PainPoints} {
		if p != nil && *p != "" {
			parts = append(parts, *p)
		}
	}
	query := strings.ToLower(strings.Join(parts, " "))

	var words []string
	for _, w := range strings.Fields(query) {
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	return words
}

func corpusText(e Entry) string {
	return strings.ToLower(strings.Join([]string{e.Industry, e.Summary, strings.Join(e.Tags, " "), e.Title}, " "))
}

func lexicalScore(words []string, corpus string) int {
	if len(words) == 0 {
		return noWordsScore
	}
	hits := 0
	for _, w := range words {
		if strings.Contains(corpus, w) {
			hits++
		}
	}
	return int(math.Round(100 * float64(hits) / float64(len(words))))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
