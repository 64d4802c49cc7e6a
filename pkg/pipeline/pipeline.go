// Package pipeline composes scraping, embedding, storage and matching into
// the operations the CLI and the dashboard backend run.
package pipeline

import (
	"context"
	"time"

	"github.com/xhad/tendermatch/internal/models"
	"github.com/xhad/tendermatch/pkg/processor"
)

type Scraper interface {
	ScrapeAll(ctx context.Context) ([]models.Tender, error)
	FetchProfile(ctx context.Context, url string) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

type Extractor interface {
	Extract(ctx context.Context, text string) (models.CompanyProfile, error)
}

type Store interface {
	Store(ctx context.Context, docs []models.EmbeddedTender) error
	Count(ctx context.Context, category string) (int, error)
	DeleteBySource(ctx context.Context, source string) (int64, error)
	Dim() int
}

type Matcher interface {
	Match(ctx context.Context, vectors [][]float32, topK int, filter models.Filter) ([]models.Recommendation, error)
}

type Archiver interface {
	SaveAll(tenders []models.Tender) error
	List() ([]models.Tender, error)
	Count() (int, error)
}

// Progress receives stage updates during long operations. Total is -1 when
// unknown. Stages: scrape, embed, store, archive.
type Progress func(stage string, current, total int)

type Config struct {
	EmbedBatchSize int
	MaxParallel    int // concurrent embedding batches
	OnProgress     Progress
}

type Pipeline struct {
	config    Config
	scraper   Scraper
	processor processor.Processor
	embedder  Embedder
	extractor Extractor
	store     Store
	matcher   Matcher
	archive   Archiver
}

func New(config Config, scraper Scraper, proc processor.Processor, embedder Embedder,
	extractor Extractor, store Store, matcher Matcher, archive Archiver) *Pipeline {
	if config.EmbedBatchSize <= 0 {
		config.EmbedBatchSize = 16
	}
	if config.MaxParallel <= 0 {
		config.MaxParallel = 4
	}

	return &Pipeline{
		config:    config,
		scraper:   scraper,
		processor: proc,
		embedder:  embedder,
		extractor: extractor,
		store:     store,
		matcher:   matcher,
		archive:   archive,
	}
}

func (p *Pipeline) progress(stage string, current, total int) {
	if p.config.OnProgress != nil {
		p.config.OnProgress(stage, current, total)
	}
}

// IngestReport summarizes one scrape-embed-store run.
type IngestReport struct {
	Scraped   int            `json:"scraped"`
	Embedded  int            `json:"embedded"`
	Stored    int            `json:"stored"`
	PerSource map[string]int `json:"per_source"`
	Took      time.Duration  `json:"took"`
}

// MatchRequest carries a company profile by inline text, file path or URL.
type MatchRequest struct {
	Text   string        `json:"text,omitempty"`
	File   string        `json:"file,omitempty"`
	URL    string        `json:"url,omitempty"`
	TopK   int           `json:"top_k,omitempty"`
	Filter models.Filter `json:"filter,omitempty"`
	// ActiveOnly drops tenders whose deadline has passed.
	ActiveOnly bool `json:"active_only,omitempty"`
}

type MatchReport struct {
	Company         models.CompanyProfile   `json:"company"`
	Recommendations []models.Recommendation `json:"recommendations"`
	Took            time.Duration           `json:"took"`
}

// StatusReport is the readiness summary for the CLI and the dashboard.
type StatusReport struct {
	Ready          bool   `json:"ready"`
	TenderCount    int    `json:"tender_count"`
	ArchivedCount  int    `json:"archived_count"`
	EmbeddingModel string `json:"embedding_model"`
	Dimension      int    `json:"dimension"`
}

// Status reports whether the index is ready for matching.
func (p *Pipeline) Status(ctx context.Context) (StatusReport, error) {
	count, err := p.store.Count(ctx, models.CategoryTender)
	if err != nil {
		return StatusReport{}, err
	}

	archived, err := p.archive.Count()
	if err != nil {
		archived = 0
	}

	return StatusReport{
		Ready:          count > 0,
		TenderCount:    count,
		ArchivedCount:  archived,
		EmbeddingModel: p.embedder.Model(),
		Dimension:      p.store.Dim(),
	}, nil
}
