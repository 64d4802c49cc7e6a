package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Source is one government tender portal to scrape. Selector picks the
// listing elements on the page; Limit caps how many are taken per scrape.
type Source struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Selector string `yaml:"selector"`
	Limit    int    `yaml:"limit"`
}

type Config struct {
	LLM struct {
		BaseURL        string  `yaml:"base_url"`
		Model          string  `yaml:"model"`
		EmbeddingModel string  `yaml:"embedding_model"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float64 `yaml:"temperature"`
	} `yaml:"llm"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		VectorDim int    `yaml:"vector_dim"`
		BatchSize int    `yaml:"batch_size"`
		Metric    string `yaml:"metric"` // "cosine" or "inner_product"
	} `yaml:"database"`

	Scraper struct {
		Sources    []Source `yaml:"sources"`
		RateLimit  float64  `yaml:"rate_limit"`
		TimeoutSec int      `yaml:"timeout_sec"`
	} `yaml:"scraper"`

	Processor struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
	} `yaml:"processor"`

	Archive struct {
		Dir string `yaml:"dir"`
	} `yaml:"archive"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/tendermatch/config.yaml"),
			"/etc/tendermatch/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

// DefaultSources are the portals the system ships with. Selectors match the
// listing markup each portal used at the time they were added.
func DefaultSources() []Source {
	return []Source{
		{
			Name:     "Tamil Nadu Tenders",
			URL:      "https://tntenders.gov.in/nicgep/app",
			Selector: "table.list_table tr",
			Limit:    20,
		},
		{
			Name:     "Maharashtra Tenders",
			URL:      "https://mahatenders.gov.in/nicgep/app",
			Selector: "table.list_table tr",
			Limit:    20,
		},
		{
			Name:     "Central Public Procurement Portal",
			URL:      "https://eprocure.gov.in/eprocure/app",
			Selector: "div.list-group-item",
			Limit:    20,
		},
		{
			Name:     "Government e-Marketplace",
			URL:      "https://gem.gov.in/",
			Selector: "div.gem-bidding-card",
			Limit:    20,
		},
	}
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = "llama3"
	}
	if config.LLM.EmbeddingModel == "" {
		config.LLM.EmbeddingModel = "nomic-embed-text"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.2
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "documents"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768 // nomic-embed-text
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 100
	}
	if config.Database.Metric == "" {
		config.Database.Metric = "cosine"
	}

	if len(config.Scraper.Sources) == 0 {
		config.Scraper.Sources = DefaultSources()
	}
	for i := range config.Scraper.Sources {
		if config.Scraper.Sources[i].Limit == 0 {
			config.Scraper.Sources[i].Limit = 20
		}
	}
	if config.Scraper.RateLimit == 0 {
		config.Scraper.RateLimit = 2.0
	}
	if config.Scraper.TimeoutSec == 0 {
		config.Scraper.TimeoutSec = 30
	}

	if config.Processor.ChunkSize == 0 {
		config.Processor.ChunkSize = 1000
	}
	if config.Processor.ChunkOverlap == 0 {
		config.Processor.ChunkOverlap = 200
	}

	if config.Archive.Dir == "" {
		config.Archive.Dir = "./data/raw_tenders"
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if model := os.Getenv("OLLAMA_MODEL"); model != "" {
		config.LLM.Model = model
	}
	if model := os.Getenv("OLLAMA_EMBEDDING_MODEL"); model != "" {
		config.LLM.EmbeddingModel = model
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if dir := os.Getenv("TENDERMATCH_ARCHIVE_DIR"); dir != "" {
		config.Archive.Dir = dir
	}
	if addr := os.Getenv("TENDERMATCH_ADDR"); addr != "" {
		config.Server.Addr = addr
	}
}
