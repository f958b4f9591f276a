package search

import "math"

// Okapi BM25 parameters.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// bm25Index holds term statistics over a fixed corpus of token bags.
type bm25Index struct {
	termFreqs []map[string]int
	docLens   []int
	docFreq   map[string]int
	avgDocLen float64
}

func newBM25Index(corpus [][]string) *bm25Index {
	idx := &bm25Index{
		termFreqs: make([]map[string]int, len(corpus)),
		docLens:   make([]int, len(corpus)),
		docFreq:   make(map[string]int),
	}

	totalLen := 0
	for i, doc := range corpus {
		tf := make(map[string]int, len(doc))
		for _, t := range doc {
			tf[t]++
		}
		idx.termFreqs[i] = tf
		idx.docLens[i] = len(doc)
		totalLen += len(doc)
		for t := range tf {
			idx.docFreq[t]++
		}
	}
	if len(corpus) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(corpus))
	}
	return idx
}

// scores computes the BM25 score of every document against the query tokens.
func (idx *bm25Index) scores(query []string) []float64 {
	n := len(idx.termFreqs)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	for _, term := range query {
		df, ok := idx.docFreq[term]
		if !ok {
			continue
		}
		idf := math.Log(1 + (float64(n)-float64(df)+0.5)/(float64(df)+0.5))
		for i := 0; i < n; i++ {
			tf := float64(idx.termFreqs[i][term])
			if tf == 0 {
				continue
			}
			norm := 1 - bm25B + bm25B*float64(idx.docLens[i])/idx.avgDocLen
			out[i] += idf * (tf * (bm25K1 + 1)) / (tf + bm25K1*norm)
		}
	}
	return out
}
