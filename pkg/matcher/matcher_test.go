package matcher_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/tendermatch/internal/models"
	"github.com/xhad/tendermatch/pkg/matcher"
	"github.com/xhad/tendermatch/pkg/store"
)

type fakeSearcher struct {
	metric string
	hits   map[string][]models.SearchHit // keyed by first vector element
	err    error
}

func (f *fakeSearcher) Search(ctx context.Context, vector []float32, k int, filter models.Filter) ([]models.SearchHit, error) {
	if f.err != nil {
		return nil, f.err
	}
	key := "0"
	if len(vector) > 0 && vector[0] == 1 {
		key = "1"
	}
	hits := f.hits[key]
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (f *fakeSearcher) Metric() string {
	if f.metric == "" {
		return store.MetricCosine
	}
	return f.metric
}

func hit(id string, distance float64, published *time.Time) models.SearchHit {
	return models.SearchHit{
		Tender:   models.Tender{ID: id, Title: "Tender " + id, PublishedAt: published},
		Distance: distance,
	}
}

func ts(day int) *time.Time {
	t := time.Date(2026, 6, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestMatchSortedByScore(t *testing.T) {
	searcher := &fakeSearcher{hits: map[string][]models.SearchHit{
		"0": {
			hit("a", 0.4, ts(1)),
			hit("b", 0.1, ts(2)),
			hit("c", 0.7, ts(3)),
		},
	}}
	m := matcher.New(searcher)

	recs, err := m.Match(context.Background(), [][]float32{{0}}, 10, models.Filter{})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Score, recs[i].Score)
	}
	assert.Equal(t, "b", recs[0].TenderID)
	assert.InDelta(t, 0.9, recs[0].Score, 1e-9)
	assert.Equal(t, []int{1, 2, 3}, []int{recs[0].Rank, recs[1].Rank, recs[2].Rank})
}

func TestMatchTieBreak(t *testing.T) {
	searcher := &fakeSearcher{hits: map[string][]models.SearchHit{
		"0": {
			hit("old", 0.2, ts(1)),
			hit("new", 0.2, ts(20)),
			hit("undated", 0.2, nil),
		},
	}}
	m := matcher.New(searcher)

	recs, err := m.Match(context.Background(), [][]float32{{0}}, 10, models.Filter{})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	// Equal scores break on most recent publish date; undated sorts last
	assert.Equal(t, "new", recs[0].TenderID)
	assert.Equal(t, "old", recs[1].TenderID)
	assert.Equal(t, "undated", recs[2].TenderID)
}

func TestMatchMergesMultiVector(t *testing.T) {
	searcher := &fakeSearcher{hits: map[string][]models.SearchHit{
		"0": {hit("a", 0.5, nil), hit("b", 0.3, nil)},
		"1": {hit("a", 0.1, nil), hit("c", 0.6, nil)},
	}}
	m := matcher.New(searcher)

	recs, err := m.Match(context.Background(), [][]float32{{0}, {1}}, 10, models.Filter{})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	// Tender "a" keeps its best score across the two query vectors
	assert.Equal(t, "a", recs[0].TenderID)
	assert.InDelta(t, 0.9, recs[0].Score, 1e-9)
	assert.Equal(t, "b", recs[1].TenderID)
	assert.Equal(t, "c", recs[2].TenderID)
}

func TestMatchTopK(t *testing.T) {
	searcher := &fakeSearcher{hits: map[string][]models.SearchHit{
		"0": {hit("a", 0.1, nil), hit("b", 0.2, nil), hit("c", 0.3, nil)},
	}}
	m := matcher.New(searcher)

	recs, err := m.Match(context.Background(), [][]float32{{0}}, 2, models.Filter{})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestMatchIdempotent(t *testing.T) {
	searcher := &fakeSearcher{hits: map[string][]models.SearchHit{
		"0": {hit("a", 0.2, ts(5)), hit("b", 0.2, ts(5)), hit("c", 0.1, nil)},
	}}
	m := matcher.New(searcher)

	first, err := m.Match(context.Background(), [][]float32{{0}}, 10, models.Filter{})
	require.NoError(t, err)
	second, err := m.Match(context.Background(), [][]float32{{0}}, 10, models.Filter{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestMatchInnerProductScore(t *testing.T) {
	searcher := &fakeSearcher{
		metric: store.MetricInnerProduct,
		hits: map[string][]models.SearchHit{
			"0": {hit("a", -0.8, nil)},
		},
	}
	m := matcher.New(searcher)

	recs, err := m.Match(context.Background(), [][]float32{{0}}, 10, models.Filter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 0.8, recs[0].Score, 1e-9)
}

func TestMatchErrorsPassThrough(t *testing.T) {
	m := matcher.New(&fakeSearcher{err: store.ErrEmptyIndex})
	_, err := m.Match(context.Background(), [][]float32{{0}}, 10, models.Filter{})
	assert.ErrorIs(t, err, store.ErrEmptyIndex)

	m = matcher.New(&fakeSearcher{err: store.DimensionError{Got: 384, Want: 768}})
	_, err = m.Match(context.Background(), [][]float32{{0}}, 10, models.Filter{})
	var dimErr store.DimensionError
	assert.ErrorAs(t, err, &dimErr)
}

func TestMatchNoVectors(t *testing.T) {
	m := matcher.New(&fakeSearcher{})
	_, err := m.Match(context.Background(), nil, 10, models.Filter{})
	assert.Error(t, err)
}
