package main

import (
	"fmt"
	"time"

	"github.com/xhad/tendermatch/internal/archive"
	"github.com/xhad/tendermatch/pkg/config"
	"github.com/xhad/tendermatch/pkg/llm"
	"github.com/xhad/tendermatch/pkg/matcher"
	"github.com/xhad/tendermatch/pkg/pipeline"
	"github.com/xhad/tendermatch/pkg/processor"
	"github.com/xhad/tendermatch/pkg/scraper"
	"github.com/xhad/tendermatch/pkg/store"
)

// app holds the assembled components behind every subcommand.
type app struct {
	cfg   *config.Config
	pipe  *pipeline.Pipeline
	store *store.VectorStore
}

func newApp(cfgPath string, progress pipeline.Progress) (*app, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %v", errs[0])
	}

	scr, err := scraper.NewWithConfig(scraper.ScraperConfig{
		Sources:   cfg.Scraper.Sources,
		RateLimit: cfg.Scraper.RateLimit,
		Timeout:   time.Duration(cfg.Scraper.TimeoutSec) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scraper: %v", err)
	}

	proc := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    cfg.Processor.ChunkSize,
		ChunkOverlap: cfg.Processor.ChunkOverlap,
	})

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   cfg.LLM.EmbeddingModel,
		BaseURL: cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	extractor, err := llm.NewExtractorWithConfig(llm.ExtractorConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		BaseURL:     cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	vectorStore, err := store.NewWithConfig(store.VectorStoreConfig{
		ConnString: cfg.Database.URL,
		TableName:  cfg.Database.TableName,
		VectorDim:  cfg.Database.VectorDim,
		BatchSize:  cfg.Database.BatchSize,
		Metric:     cfg.Database.Metric,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %v", err)
	}

	arch, err := archive.New(cfg.Archive.Dir)
	if err != nil {
		vectorStore.Close()
		return nil, err
	}

	pipe := pipeline.New(
		pipeline.Config{OnProgress: progress},
		scr,
		proc,
		embedder,
		extractor,
		vectorStore,
		matcher.New(vectorStore),
		arch,
	)

	return &app{
		cfg:   cfg,
		pipe:  pipe,
		store: vectorStore,
	}, nil
}

func (a *app) Close() {
	a.store.Close()
}
