// Package matcher ranks indexed tenders against a company's embedded
// profile. The vector math runs in the store; this package merges hits
// across query vectors, converts distances to scores and orders the result.
package matcher

import (
	"context"
	"fmt"
	"sort"

	"github.com/xhad/tendermatch/internal/models"
	"github.com/xhad/tendermatch/pkg/store"
)

// Searcher is the slice of the vector store the matcher needs.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int, filter models.Filter) ([]models.SearchHit, error)
	Metric() string
}

type Matcher struct {
	searcher Searcher
}

func New(searcher Searcher) *Matcher {
	return &Matcher{searcher: searcher}
}

// Match returns tenders ranked by descending similarity to the query
// vectors. Multi-vector queries (chunked profiles) merge per-vector hits by
// tender ID keeping the best score. Ties break on most recent publish date,
// then on ID, so identical queries against an unchanged index return the
// identical ordering.
func (m *Matcher) Match(ctx context.Context, vectors [][]float32, topK int, filter models.Filter) ([]models.Recommendation, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no query vectors provided")
	}
	if topK <= 0 {
		topK = 10
	}

	best := make(map[string]models.SearchHit)
	for _, vector := range vectors {
		hits, err := m.searcher.Search(ctx, vector, topK, filter)
		if err != nil {
			return nil, err
		}

		for _, hit := range hits {
			prev, seen := best[hit.Tender.ID]
			if !seen || hit.Distance < prev.Distance {
				best[hit.Tender.ID] = hit
			}
		}
	}

	merged := make([]models.SearchHit, 0, len(best))
	for _, hit := range best {
		merged = append(merged, hit)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Distance != merged[j].Distance {
			return merged[i].Distance < merged[j].Distance
		}
		pi, pj := merged[i].Tender.PublishedAt, merged[j].Tender.PublishedAt
		switch {
		case pi != nil && pj != nil && !pi.Equal(*pj):
			return pi.After(*pj)
		case pi != nil && pj == nil:
			return true
		case pi == nil && pj != nil:
			return false
		}
		return merged[i].Tender.ID < merged[j].Tender.ID
	})

	if len(merged) > topK {
		merged = merged[:topK]
	}

	recommendations := make([]models.Recommendation, 0, len(merged))
	for i, hit := range merged {
		recommendations = append(recommendations, models.Recommendation{
			TenderID: hit.Tender.ID,
			Title:    hit.Tender.Title,
			Score:    m.score(hit.Distance),
			Rank:     i + 1,
			Tender:   hit.Tender,
		})
	}

	return recommendations, nil
}

// score converts a store distance to a similarity score. Cosine distance
// maps to 1-d; the inner-product operator returns the negated product.
func (m *Matcher) score(distance float64) float64 {
	if m.searcher.Metric() == store.MetricInnerProduct {
		return -distance
	}
	return 1 - distance
}
