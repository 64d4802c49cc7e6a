package llm_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/tendermatch/pkg/llm"
)

func TestNewEmbedderWithConfig(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   "nomic-embed-text",
		BaseURL: "http://localhost:11434",
	})
	require.NoError(t, err)
	assert.NotNil(t, emb)
	assert.Equal(t, "nomic-embed-text", emb.Model())
}

func TestEmbedderDefaults(t *testing.T) {
	emb, err := llm.NewEmbedder()
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", emb.Model())
}

func TestEmbedEmptyInput(t *testing.T) {
	emb, err := llm.NewEmbedder()
	require.NoError(t, err)

	vectors, err := emb.Embed(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbed(t *testing.T) {
	// Requires a running Ollama server with nomic-embed-text pulled.
	if os.Getenv("OLLAMA_BASE_URL") == "" {
		t.Skip("OLLAMA_BASE_URL not set")
	}

	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		BaseURL: os.Getenv("OLLAMA_BASE_URL"),
	})
	require.NoError(t, err)

	texts := []string{
		"Road resurfacing works on state highway.",
		"Supply of school furniture to government schools.",
	}

	vectors, err := emb.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	for _, vec := range vectors {
		assert.Len(t, vec, 768)
	}
}
