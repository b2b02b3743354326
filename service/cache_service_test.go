package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *CacheService {
	t.Helper()
	cache, err := NewCacheService("")
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCacheEmbedding(t *testing.T) {
	cache := newTestCache(t)

	assert.Nil(t, cache.GetEmbedding("art. 1º fica criado"))

	embedding := []float64{0.1, 0.2, 0.3}
	cache.SetEmbedding("art. 1º fica criado", embedding)

	got := cache.GetEmbedding("art. 1º fica criado")
	require.NotNil(t, got)
	assert.Equal(t, embedding, got)

	assert.Nil(t, cache.GetEmbedding("outro texto"))
}

func TestCacheSearchResults(t *testing.T) {
	cache := newTestCache(t)

	type result struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}

	var out []result
	assert.False(t, cache.GetSearchResults("licenciamento ambiental", &out))

	cache.SetSearchResults("licenciamento ambiental", []result{{Label: "Art. 3º", Score: 0.87}})

	require.True(t, cache.GetSearchResults("licenciamento ambiental", &out))
	require.Len(t, out, 1)
	assert.Equal(t, "Art. 3º", out[0].Label)
	assert.Equal(t, 0.87, out[0].Score)
}

func TestCacheAnswer(t *testing.T) {
	cache := newTestCache(t)

	assert.Empty(t, cache.GetAnswer("qual o prazo do alvará?"))

	cache.SetAnswer("qual o prazo do alvará?", "O prazo é de trinta dias, conforme o Art. 5º.")
	assert.Equal(t, "O prazo é de trinta dias, conforme o Art. 5º.", cache.GetAnswer("qual o prazo do alvará?"))
}

func TestCacheClearPrefix(t *testing.T) {
	cache := newTestCache(t)

	cache.SetEmbedding("texto um", []float64{1})
	cache.SetEmbedding("texto dois", []float64{2})
	cache.SetAnswer("pergunta", "resposta")

	deleted, err := cache.ClearPrefix("embedding:")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	assert.Nil(t, cache.GetEmbedding("texto um"))
	assert.Equal(t, "resposta", cache.GetAnswer("pergunta"))
}

func TestCacheStats(t *testing.T) {
	cache := newTestCache(t)

	stats, err := cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, &CacheStats{}, stats)

	cache.SetEmbedding("texto um", []float64{1})
	cache.SetEmbedding("texto dois", []float64{2})
	cache.SetSearchResults("consulta", []string{"a"})
	cache.SetAnswer("pergunta", "resposta")

	stats, err = cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, &CacheStats{Embeddings: 2, Searches: 1, Answers: 1}, stats)
}
