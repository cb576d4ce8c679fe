package search

import (
	"sort"

	"github.com/feedloop-io/feedloop/internal/domain"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// Branch weights: semantic matches outrank lexical ones when both rankings
// agree, mirroring the 1.5x boost the product applies to vector recall.
const (
	vectorWeight  = 1.5
	lexicalWeight = 1.0
)

// fuseRRF merges KNN and BM25 rankings via weighted Reciprocal Rank Fusion.
// score(d) = sum of w_i/(k + rank_i(d)) for each ranking where d appears.
// When a document appears in both lists, the KNN hit is kept as the carrier.
func fuseRRF(knn, bm25 []domain.SearchHit, limit int) []domain.SearchHit {
	type scored struct {
		hit   domain.SearchHit
		score float64
	}

	merged := make(map[string]*scored)

	for rank, h := range knn {
		s := vectorWeight / float64(rrfK+rank+1)
		merged[h.ID] = &scored{hit: h, score: s}
	}

	for rank, h := range bm25 {
		s := lexicalWeight / float64(rrfK+rank+1)
		if existing, ok := merged[h.ID]; ok {
			existing.score += s
		} else {
			merged[h.ID] = &scored{hit: h, score: s}
		}
	}

	hits := make([]domain.SearchHit, 0, len(merged))
	for _, s := range merged {
		h := s.hit
		h.Score = s.score
		hits = append(hits, h)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	return hits
}
