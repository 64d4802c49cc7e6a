package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/xhad/tendermatch/internal/models"
	"github.com/xhad/tendermatch/pkg/config"
	"golang.org/x/time/rate"
)

type ScraperConfig struct {
	Sources    []config.Source
	RateLimit  float64 // requests per second, applied per source
	Timeout    time.Duration
	OnProgress func(source string, count int) // Add progress callback
}

type Scraper struct {
	config  ScraperConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewWithConfig(cfg ScraperConfig) (*Scraper, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 2 // 2 requests per second by default
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = config.DefaultSources()
	}

	return &Scraper{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
	}, nil
}

func New(sources []config.Source) *Scraper {
	s, _ := NewWithConfig(ScraperConfig{
		Sources: sources,
	})
	return s
}

// ScrapeAll scrapes every configured source concurrently. A failing source is
// logged and skipped; the remaining sources still contribute their tenders.
func (s *Scraper) ScrapeAll(ctx context.Context) ([]models.Tender, error) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		tenders []models.Tender
	)

	for _, src := range s.config.Sources {
		wg.Add(1)
		go func(src config.Source) {
			defer wg.Done()

			scraped, err := s.ScrapeSource(ctx, src)
			if err != nil {
				log.Printf("Error scraping %s: %v", src.Name, err)
				return
			}

			mu.Lock()
			tenders = append(tenders, scraped...)
			mu.Unlock()

			if s.config.OnProgress != nil {
				s.config.OnProgress(src.Name, len(scraped))
			}
		}(src)
	}
	wg.Wait()

	if len(tenders) == 0 && len(s.config.Sources) > 0 {
		return nil, fmt.Errorf("no tenders scraped from any of %d sources", len(s.config.Sources))
	}

	return tenders, nil
}

// ScrapeSource scrapes a single portal and returns its tenders, capped at
// the source's configured limit.
func (s *Scraper) ScrapeSource(ctx context.Context, src config.Source) ([]models.Tender, error) {
	doc, err := s.fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	limit := src.Limit
	if limit <= 0 {
		limit = 20
	}

	now := time.Now().Unix()
	var tenders []models.Tender

	doc.Find(src.Selector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(tenders) >= limit {
			return false
		}

		tender := extractTender(sel, src)
		// Skip tenders with missing essential information
		if tender.Title == "" || tender.Description == "" {
			return true
		}

		tender.ID = fmt.Sprintf("%s-%d-%d", slugify(src.Name), now, i)
		tender.Source = src.Name
		tenders = append(tenders, tender)
		return true
	})

	return tenders, nil
}

// FetchProfile fetches a company web page and returns its main text content
// for profile extraction.
func (s *Scraper) FetchProfile(ctx context.Context, url string) (string, error) {
	doc, err := s.fetch(ctx, url)
	if err != nil {
		return "", err
	}

	content := extractMainContent(doc)
	if content == "" {
		return "", fmt.Errorf("no readable content at %s", url)
	}

	return content, nil
}

func (s *Scraper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	// Apply rate limiting
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, url)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

func extractMainContent(doc *goquery.Document) string {
	// Try to find main content area
	selectors := []string{
		"main",
		"article",
		".content",
		"#content",
		".about",
		"#about",
	}

	var content string
	for _, selector := range selectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			content = selected.Text()
			break
		}
	}

	// Fallback to body if no main content found
	if content == "" {
		content = doc.Find("body").Text()
	}

	return cleanContent(content)
}

func cleanContent(content string) string {
	// Remove extra whitespace
	content = strings.Join(strings.Fields(content), " ")

	// Remove common noise
	noisePatterns := []string{
		"Cookie Policy",
		"Accept Cookies",
		"Privacy Policy",
		"Terms of Service",
	}

	for _, pattern := range noisePatterns {
		content = strings.ReplaceAll(content, pattern, "")
	}

	return strings.TrimSpace(content)
}

func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}
