package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MatchProfile resolves the company profile text, extracts structured
// company info, embeds it and ranks the indexed tenders against it.
func (p *Pipeline) MatchProfile(ctx context.Context, req MatchRequest) (MatchReport, error) {
	start := time.Now()

	text, err := p.resolveProfileText(ctx, req)
	if err != nil {
		return MatchReport{}, err
	}

	profile, err := p.extractor.Extract(ctx, text)
	if err != nil {
		return MatchReport{}, fmt.Errorf("failed to extract company info: %w", err)
	}

	// The description is the primary query; long profiles contribute their
	// chunks as additional query vectors.
	texts := []string{profile.Description}
	if chunks := p.processor.Chunk(text); len(chunks) > 1 {
		texts = append(texts, chunks...)
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return MatchReport{}, fmt.Errorf("failed to embed company profile: %w", err)
	}

	filter := req.Filter
	if req.ActiveOnly {
		now := time.Now()
		filter.DeadlineAfter = &now
	}

	recommendations, err := p.matcher.Match(ctx, vectors, req.TopK, filter)
	if err != nil {
		return MatchReport{}, err
	}

	return MatchReport{
		Company:         profile,
		Recommendations: recommendations,
		Took:            time.Since(start),
	}, nil
}

func (p *Pipeline) resolveProfileText(ctx context.Context, req MatchRequest) (string, error) {
	switch {
	case strings.TrimSpace(req.Text) != "":
		return req.Text, nil

	case req.File != "":
		ext := strings.ToLower(filepath.Ext(req.File))
		switch ext {
		case ".pdf", ".docx":
			return "", fmt.Errorf("unsupported file type %s: only plain text files are supported", ext)
		}

		data, err := os.ReadFile(req.File)
		if err != nil {
			return "", fmt.Errorf("failed to read profile file: %w", err)
		}
		return string(data), nil

	case req.URL != "":
		url := req.URL
		if !strings.HasPrefix(url, "http") {
			url = "https://" + url
		}
		text, err := p.scraper.FetchProfile(ctx, url)
		if err != nil {
			return "", fmt.Errorf("failed to fetch company page: %w", err)
		}
		return text, nil
	}

	return "", fmt.Errorf("no company profile provided: set text, file or url")
}
