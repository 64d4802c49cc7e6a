package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
	"github.com/xhad/tendermatch/internal/models"
)

// ExtractorConfig represents the configuration for the company-info
// extraction engine.
type ExtractorConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	BaseURL     string // Ollama server URL
}

// Extractor turns free-form company text into a structured profile using an
// LLM, with a heuristic fallback when the model call or its JSON output
// fails.
type Extractor struct {
	config ExtractorConfig
	llm    llms.Model
}

const extractionPrompt = `Extract key company information from the following text:

%s

Output the following fields in JSON format:
1. name: Company name
2. description: Comprehensive company description
3. services: List of services offered
4. capabilities: List of company capabilities
5. expertise: List of company expertise areas

JSON format only, no explanation.`

// NewExtractorWithConfig creates a new Extractor with the given configuration.
func NewExtractorWithConfig(config ExtractorConfig) (*Extractor, error) {
	if config.Model == "" {
		config.Model = "llama3" // Default Ollama model
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}

	llm, err := ollama.New(ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &Extractor{
		config: config,
		llm:    llm,
	}, nil
}

// Extract produces a structured company profile from free-form text. An LLM
// failure degrades to the heuristic extraction rather than failing the match.
func (e *Extractor) Extract(ctx context.Context, text string) (models.CompanyProfile, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.CompanyProfile{}, fmt.Errorf("no company profile provided")
	}

	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, fmt.Sprintf(extractionPrompt, text)),
	}

	response, err := e.llm.GenerateContent(ctx, content,
		llms.WithTemperature(e.config.Temperature),
		llms.WithMaxTokens(e.config.MaxTokens))
	if err != nil {
		log.Printf("Error extracting company info with LLM: %v", err)
		return HeuristicProfile(text), nil
	}

	if len(response.Choices) == 0 {
		log.Printf("Empty LLM response for company extraction")
		return HeuristicProfile(text), nil
	}

	profile, ok := ParseProfileJSON(response.Choices[0].Content, text)
	if !ok {
		return HeuristicProfile(text), nil
	}

	return profile, nil
}

var (
	fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?(.*?)```")
	bareJSONRe   = regexp.MustCompile(`(?s)\{.*\}`)
)

// ParseProfileJSON parses the LLM's answer. Models wrap JSON in fenced code
// blocks or pad it with prose, so try the fenced block first, then the
// widest brace-delimited span. Reports false when no parseable JSON exists.
func ParseProfileJSON(raw, sourceText string) (models.CompanyProfile, bool) {
	jsonText := raw
	if match := fencedJSONRe.FindStringSubmatch(raw); match != nil {
		jsonText = strings.TrimSpace(match[1])
	} else if match := bareJSONRe.FindString(raw); match != "" {
		jsonText = strings.TrimSpace(match)
	}

	var profile models.CompanyProfile
	if err := json.Unmarshal([]byte(jsonText), &profile); err != nil {
		log.Printf("Error parsing company JSON: %v", err)
		return models.CompanyProfile{}, false
	}

	if profile.Name == "" {
		profile.Name = "Unknown Company"
	}
	if profile.Description == "" {
		profile.Description = truncate(sourceText, 500)
	}

	return profile, true
}

// HeuristicProfile is the extraction of last resort: first line as the name,
// leading text as the description, keyword-scanned lines as the lists.
func HeuristicProfile(text string) models.CompanyProfile {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	name := "Unknown Company"
	if len(lines) > 0 && strings.TrimSpace(lines[0]) != "" {
		name = strings.TrimSpace(lines[0])
	}

	var services, capabilities, expertise []string
	for _, line := range lines {
		lower := strings.ToLower(strings.TrimSpace(line))
		switch {
		case strings.Contains(lower, "service") || strings.Contains(lower, "provide") || strings.Contains(lower, "offer"):
			services = append(services, lower)
		case strings.Contains(lower, "capability"):
			capabilities = append(capabilities, lower)
		case strings.Contains(lower, "expertise") || strings.Contains(lower, "specialize"):
			expertise = append(expertise, lower)
		}
	}

	if len(services) == 0 {
		services = []string{"General services"}
	}
	if len(capabilities) == 0 {
		capabilities = []string{"General capabilities"}
	}
	if len(expertise) == 0 {
		expertise = []string{"General expertise"}
	}

	return models.CompanyProfile{
		Name:         name,
		Description:  truncate(text, 500),
		Services:     cap5(services),
		Capabilities: cap5(capabilities),
		Expertise:    cap5(expertise),
	}
}

func cap5(items []string) []string {
	if len(items) > 5 {
		return items[:5]
	}
	return items
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}
