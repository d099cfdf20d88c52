package suggest

import (
	"math"
	"sort"

	"github.com/anthurium-ai/personal-finance/internal/model"
	"github.com/anthurium-ai/personal-finance/internal/textnorm"
)

// termCount is one term of a document and how often it occurs there.
type termCount struct {
	term  string
	count int
}

// Index is the history side of a TF-IDF vector space: the term counts of
// every historical description, their document frequencies and the category
// each one belongs to. The query is folded in at Rank time, so an Index never
// changes after NewIndex and may be shared.
type Index struct {
	docs       [][]termCount
	categories []string
	df         map[string]int
}

// NewIndex builds an Index from categorized history. Record order is kept
// and later decides ties between equally scored categories.
func NewIndex(history []model.TransactionRecord) *Index {
	ix := &Index{
		docs:       make([][]termCount, 0, len(history)),
		categories: make([]string, 0, len(history)),
		df:         make(map[string]int),
	}
	for _, rec := range history {
		doc := countTerms(textnorm.Normalize(rec.Description))
		for _, tc := range doc {
			ix.df[tc.term]++
		}
		ix.docs = append(ix.docs, doc)
		ix.categories = append(ix.categories, rec.CategoryName)
	}
	return ix
}

// Len returns the number of historical documents.
func (ix *Index) Len() int { return len(ix.docs) }

// Rank scores query against every historical document and returns up to
// limit category names ordered by their best cosine similarity. Categories
// whose best score is zero are left out.
func (ix *Index) Rank(query string, limit int) []string {
	if len(ix.docs) == 0 || limit <= 0 {
		return []string{}
	}

	order, best := ix.categoryScores(query)
	ranked := make([]string, 0, len(order))
	for _, cat := range order {
		if best[cat] > 0 {
			ranked = append(ranked, cat)
		}
	}
	// Stable keeps first-appearance order between exact ties.
	sort.SliceStable(ranked, func(i, j int) bool {
		return best[ranked[i]] > best[ranked[j]]
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// categoryScores returns every category in order of first appearance and
// the best similarity any of its documents reached against query.
func (ix *Index) categoryScores(query string) ([]string, map[string]float64) {
	q := countTerms(textnorm.Normalize(query))
	inQuery := make(map[string]bool, len(q))
	for _, tc := range q {
		inQuery[tc.term] = true
	}

	// The corpus is the history plus the query itself.
	n := float64(len(ix.docs) + 1)
	idf := func(term string) float64 {
		df := ix.df[term]
		if inQuery[term] {
			df++
		}
		return math.Log((1+n)/(1+float64(df))) + 1
	}

	qWeights := make(map[string]float64, len(q))
	var qNorm float64
	for _, tc := range q {
		w := float64(tc.count) * idf(tc.term)
		qWeights[tc.term] = w
		qNorm += w * w
	}
	qNorm = math.Sqrt(qNorm)

	best := make(map[string]float64)
	order := make([]string, 0)
	for i, doc := range ix.docs {
		cat := ix.categories[i]
		if _, seen := best[cat]; !seen {
			best[cat] = 0
			order = append(order, cat)
		}
		if score := cosine(doc, qWeights, qNorm, idf); score > best[cat] {
			best[cat] = score
		}
	}
	return order, best
}

// cosine returns the similarity between doc and the query weights. Terms are
// visited in sorted order so the float sums are reproducible.
func cosine(doc []termCount, qWeights map[string]float64, qNorm float64, idf func(string) float64) float64 {
	if qNorm == 0 || len(doc) == 0 {
		return 0
	}
	var dot, dNorm float64
	for _, tc := range doc {
		w := float64(tc.count) * idf(tc.term)
		dNorm += w * w
		if qw, ok := qWeights[tc.term]; ok {
			dot += w * qw
		}
	}
	if dNorm == 0 || dot == 0 {
		return 0
	}
	return math.Min(dot/(math.Sqrt(dNorm)*qNorm), 1)
}

// countTerms tokenizes normalized text and returns its term counts sorted by
// term.
func countTerms(text string) []termCount {
	counts := make(map[string]int)
	for _, tok := range textnorm.Tokens(text) {
		counts[tok]++
	}
	out := make([]termCount, 0, len(counts))
	for term, c := range counts {
		out = append(out, termCount{term: term, count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].term < out[j].term })
	return out
}

// ClassifyBySimilarity ranks the categories of history by how closely their
// descriptions resemble description. An empty history yields an empty list.
func ClassifyBySimilarity(description string, history []model.TransactionRecord, limit int) []string {
	if len(history) == 0 {
		return []string{}
	}
	return NewIndex(history).Rank(description, limit)
}
