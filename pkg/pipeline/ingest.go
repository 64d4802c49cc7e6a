package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xhad/tendermatch/internal/models"
)

// IngestTenders scrapes every configured source, embeds the tenders in
// bounded parallel batches and replaces each source's previous documents in
// the store. Raw tenders are archived to disk for later re-embedding.
func (p *Pipeline) IngestTenders(ctx context.Context) (IngestReport, error) {
	start := time.Now()

	p.progress("scrape", 0, -1)
	tenders, err := p.scraper.ScrapeAll(ctx)
	if err != nil {
		return IngestReport{}, fmt.Errorf("failed to scrape tenders: %w", err)
	}
	p.progress("scrape", len(tenders), len(tenders))

	embedded, err := p.embedTenders(ctx, tenders)
	if err != nil {
		return IngestReport{}, err
	}

	perSource := make(map[string]int)
	for _, tender := range tenders {
		perSource[tender.Source]++
	}

	// Re-scraping a source replaces its previous tenders
	for source := range perSource {
		if _, err := p.store.DeleteBySource(ctx, source); err != nil {
			return IngestReport{}, fmt.Errorf("failed to refresh source %s: %w", source, err)
		}
	}

	p.progress("store", 0, len(embedded))
	if err := p.store.Store(ctx, embedded); err != nil {
		return IngestReport{}, fmt.Errorf("failed to store tenders: %w", err)
	}
	p.progress("store", len(embedded), len(embedded))

	p.progress("archive", 0, len(tenders))
	if err := p.archive.SaveAll(tenders); err != nil {
		return IngestReport{}, fmt.Errorf("failed to archive tenders: %w", err)
	}
	p.progress("archive", len(tenders), len(tenders))

	return IngestReport{
		Scraped:   len(tenders),
		Embedded:  len(embedded),
		Stored:    len(embedded),
		PerSource: perSource,
		Took:      time.Since(start),
	}, nil
}

// Reindex re-embeds every archived tender and rebuilds the store from them.
// Run it after switching embedding models.
func (p *Pipeline) Reindex(ctx context.Context) (IngestReport, error) {
	start := time.Now()

	tenders, err := p.archive.List()
	if err != nil {
		return IngestReport{}, fmt.Errorf("failed to read archive: %w", err)
	}
	if len(tenders) == 0 {
		return IngestReport{}, fmt.Errorf("archive is empty, nothing to reindex")
	}

	embedded, err := p.embedTenders(ctx, tenders)
	if err != nil {
		return IngestReport{}, err
	}

	perSource := make(map[string]int)
	for _, tender := range tenders {
		perSource[tender.Source]++
	}
	for source := range perSource {
		if _, err := p.store.DeleteBySource(ctx, source); err != nil {
			return IngestReport{}, fmt.Errorf("failed to refresh source %s: %w", source, err)
		}
	}

	p.progress("store", 0, len(embedded))
	if err := p.store.Store(ctx, embedded); err != nil {
		return IngestReport{}, fmt.Errorf("failed to store tenders: %w", err)
	}
	p.progress("store", len(embedded), len(embedded))

	return IngestReport{
		Scraped:   len(tenders),
		Embedded:  len(embedded),
		Stored:    len(embedded),
		PerSource: perSource,
		Took:      time.Since(start),
	}, nil
}

// embedTenders embeds tenders in batches, a bounded number in flight at a
// time. Order of the result does not matter; the store keys on ID.
func (p *Pipeline) embedTenders(ctx context.Context, tenders []models.Tender) ([]models.EmbeddedTender, error) {
	if len(tenders) == 0 {
		return nil, nil
	}

	batchSize := p.config.EmbedBatchSize
	var batches [][]models.Tender
	for i := 0; i < len(tenders); i += batchSize {
		end := i + batchSize
		if end > len(tenders) {
			end = len(tenders)
		}
		batches = append(batches, tenders[i:end])
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		embedded []models.EmbeddedTender
		done     int32
	)
	sem := make(chan struct{}, p.config.MaxParallel)
	errCh := make(chan error, len(batches))

	p.progress("embed", 0, len(tenders))

	for _, batch := range batches {
		wg.Add(1)
		sem <- struct{}{}
		go func(batch []models.Tender) {
			defer wg.Done()
			defer func() { <-sem }()

			texts := make([]string, len(batch))
			for i, tender := range batch {
				texts[i] = p.processor.EmbeddingText(tender)
			}

			vectors, err := p.embedder.Embed(ctx, texts)
			if err != nil {
				errCh <- fmt.Errorf("failed to embed batch: %w", err)
				return
			}

			docs := make([]models.EmbeddedTender, len(batch))
			for i, tender := range batch {
				docs[i] = models.EmbeddedTender{
					Tender: tender,
					Vector: vectors[i],
					Model:  p.embedder.Model(),
				}
			}

			mu.Lock()
			embedded = append(embedded, docs...)
			mu.Unlock()

			p.progress("embed", int(atomic.AddInt32(&done, int32(len(batch)))), len(tenders))
		}(batch)
	}

	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, err
	}

	return embedded, nil
}
