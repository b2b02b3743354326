package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"jurix-backend/models"
	"jurix-backend/repository"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
)

// RAGService answers questions about the municipal legal corpus through
// semantic retrieval over consolidated dispositivo text
type RAGService struct {
	chunkRepo       *repository.ChunkRepository
	dispositivoRepo *repository.DispositivoRepository
	normaRepo       *repository.NormaRepository
	cache           *CacheService
	geminiClient    *genai.Client
}

// RAGServiceOption is a functional option for RAGService
type RAGServiceOption func(*RAGService)

// RAGWithChunkRepository sets the chunk repository
func RAGWithChunkRepository(repo *repository.ChunkRepository) RAGServiceOption {
	return func(s *RAGService) {
		s.chunkRepo = repo
	}
}

// RAGWithDispositivoRepository sets the dispositivo repository
func RAGWithDispositivoRepository(repo *repository.DispositivoRepository) RAGServiceOption {
	return func(s *RAGService) {
		s.dispositivoRepo = repo
	}
}

// RAGWithNormaRepository sets the norma repository
func RAGWithNormaRepository(repo *repository.NormaRepository) RAGServiceOption {
	return func(s *RAGService) {
		s.normaRepo = repo
	}
}

// RAGWithCache sets the cache service
func RAGWithCache(cache *CacheService) RAGServiceOption {
	return func(s *RAGService) {
		s.cache = cache
	}
}

// RAGWithGeminiClient sets the Gemini client
func RAGWithGeminiClient(client *genai.Client) RAGServiceOption {
	return func(s *RAGService) {
		s.geminiClient = client
	}
}

// NewRAGService creates a new RAG service
func NewRAGService(opts ...RAGServiceOption) *RAGService {
	s := &RAGService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	ErrEmbeddingFailed  = errors.New("failed to generate embedding")
	ErrGenerationFailed = errors.New("failed to generate answer")
)

const (
	embeddingAPI    = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:embedContent"
	generationModel = "gemini-3-pro-preview"
	maxRetries      = 3
	initialBackoff  = time.Second
)

// EmbeddingRequest represents an embedding API request
type EmbeddingRequest struct {
	Model                string       `json:"model"`
	Content              ContentInput `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

// ContentInput represents content for embedding
type ContentInput struct {
	Parts []PartInput `json:"parts"`
}

// PartInput represents a part of content
type PartInput struct {
	Text string `json:"text"`
}

// EmbeddingResponse represents an embedding API response
type EmbeddingResponse struct {
	Embedding EmbeddingData `json:"embedding"`
}

// EmbeddingData contains the embedding values
type EmbeddingData struct {
	Values []float64 `json:"values"`
}

// GenerateEmbedding generates a 768-dimension L2-normalized embedding for
// text, consulting the cache first
func (s *RAGService) GenerateEmbedding(ctx context.Context, text string, taskType string) ([]float64, error) {
	if s.cache != nil {
		if cached := s.cache.GetEmbedding(taskType + ":" + text); cached != nil {
			return cached, nil
		}
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	reqBody := EmbeddingRequest{
		Model: "models/gemini-embedding-001",
		Content: ContentInput{
			Parts: []PartInput{{Text: text}},
		},
		TaskType:             taskType,
		OutputDimensionality: 768,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var embedding []float64
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, "POST", embeddingAPI, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", apiKey)

		client := &http.Client{Timeout: 30 * time.Second}
		resp, err := client.Do(req)
		if err != nil {
			if attempt == maxRetries-1 {
				return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, err)
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			var apiResp EmbeddingResponse
			if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
				resp.Body.Close()
				if attempt == maxRetries-1 {
					return nil, fmt.Errorf("failed to decode response: %w", err)
				}
				continue
			}
			resp.Body.Close()

			embedding = apiResp.Embedding.Values
			// Normalize embedding
			norm := 0.0
			for _, v := range embedding {
				norm += v * v
			}
			norm = math.Sqrt(norm)
			if norm > 0 {
				for i := range embedding {
					embedding[i] /= norm
				}
			}

			if s.cache != nil {
				s.cache.SetEmbedding(taskType+":"+text, embedding)
			}
			return embedding, nil
		}

		resp.Body.Close()

		// Don't retry on 400 or 401 errors
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("API error: %d", resp.StatusCode)
		}

		if attempt == maxRetries-1 {
			return nil, fmt.Errorf("API error after %d attempts: %d", maxRetries, resp.StatusCode)
		}
	}

	return nil, ErrEmbeddingFailed
}

// SearchRequest represents a semantic search request
type SearchRequest struct {
	Query string
	Tipo  string
	Ano   int
	Limit int
}

// SearchResult represents semantic search results
type SearchResult struct {
	Chunks []models.DispositivoChunk
}

// Search performs a semantic search over the embedded dispositivo corpus
func (s *RAGService) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if s.chunkRepo == nil {
		return nil, errors.New("chunk repository not set")
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, errors.New("query is required")
	}
	if req.Limit <= 0 || req.Limit > 20 {
		req.Limit = 5
	}

	cacheKey := fmt.Sprintf("%s|%s|%d|%d", req.Query, req.Tipo, req.Ano, req.Limit)
	if s.cache != nil {
		var cached []models.DispositivoChunk
		if s.cache.GetSearchResults(cacheKey, &cached) {
			return &SearchResult{Chunks: cached}, nil
		}
	}

	embedding, err := s.GenerateEmbedding(ctx, req.Query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	chunks, err := s.chunkRepo.Search(ctx, embedding, req.Tipo, req.Ano, req.Limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetSearchResults(cacheKey, chunks)
	}

	return &SearchResult{Chunks: chunks}, nil
}

// AnswerRequest represents a question to answer over the corpus
type AnswerRequest struct {
	Question string
	Tipo     string
	Ano      int
}

// AnswerResult carries a generated answer and the chunks that grounded it
type AnswerResult struct {
	Answer  string
	Sources []models.DispositivoChunk
}

// Answer retrieves relevant dispositivos and generates a grounded answer
func (s *RAGService) Answer(ctx context.Context, req AnswerRequest) (*AnswerResult, error) {
	if s.geminiClient == nil {
		return nil, errors.New("gemini client not set")
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, errors.New("question is required")
	}

	search, err := s.Search(ctx, SearchRequest{
		Query: req.Question,
		Tipo:  req.Tipo,
		Ano:   req.Ano,
		Limit: 5,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}

	cacheKey := req.Question
	if s.cache != nil {
		if cached := s.cache.GetAnswer(cacheKey); cached != "" {
			return &AnswerResult{Answer: cached, Sources: search.Chunks}, nil
		}
	}

	var contextText strings.Builder
	for _, chunk := range search.Chunks {
		contextText.WriteString(fmt.Sprintf("[%s %s/%d, %s]\n%s\n\n",
			chunk.NormaTipo, chunk.NormaNumero, chunk.NormaAno, chunk.Label, chunk.Texto))
	}

	prompt := fmt.Sprintf(`Você é um assistente jurídico especializado em legislação municipal brasileira.

CONTEXTO (dispositivos vigentes da legislação municipal):
%s

PERGUNTA:
%s

INSTRUÇÕES:
- Responda APENAS com base no contexto acima
- Cite sempre o dispositivo fonte (ex: "conforme o Art. 3º da Lei 123/2020")
- Se o contexto não contém a resposta, diga explicitamente que a legislação consultada não trata do tema
- Dispositivos marcados como (REVOGADO) ou [ALTERADO ...] devem ser apontados como tal
- Responda em português, de forma objetiva

Resposta:`, contextText.String(), req.Question)

	answer, err := s.callGenerationAPI(ctx, prompt, 0.2)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	if s.cache != nil {
		s.cache.SetAnswer(cacheKey, answer)
	}

	return &AnswerResult{Answer: answer, Sources: search.Chunks}, nil
}

// IndexNorma embeds every dispositivo of a norma and upserts the chunks.
// Returns the number of chunks indexed.
func (s *RAGService) IndexNorma(ctx context.Context, normaID uuid.UUID) (int, error) {
	if s.chunkRepo == nil || s.dispositivoRepo == nil || s.normaRepo == nil {
		return 0, errors.New("rag service missing repositories")
	}

	norma, err := s.normaRepo.GetByID(ctx, normaID)
	if err != nil {
		return 0, ErrNormaNotFound
	}

	dispositivos, err := s.dispositivoRepo.ListByNorma(ctx, normaID)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for i := range dispositivos {
		d := &dispositivos[i]
		if strings.TrimSpace(d.Texto) == "" {
			continue
		}

		embedding, err := s.GenerateEmbedding(ctx, d.Texto, "RETRIEVAL_DOCUMENT")
		if err != nil {
			log.Printf("Warning: Failed to embed %s of %s: %v", d.Label(), norma.String(), err)
			continue
		}

		chunk := &models.DispositivoChunk{
			NormaID:       normaID,
			DispositivoID: &d.ID,
			Texto:         d.Texto,
			NormaTipo:     norma.Tipo,
			NormaNumero:   norma.Numero,
			NormaAno:      norma.Ano,
			Label:         d.Label(),
		}
		if err := s.chunkRepo.Upsert(ctx, chunk, embedding); err != nil {
			log.Printf("Warning: Failed to store chunk for %s of %s: %v", d.Label(), norma.String(), err)
			continue
		}
		indexed++
	}

	return indexed, nil
}

// callGenerationAPI generates text through the genai client
func (s *RAGService) callGenerationAPI(ctx context.Context, prompt string, temperature float32) (string, error) {
	model := s.geminiClient.GenerativeModel(generationModel)
	model.SetTemperature(temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("prompt blocked: %v", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned", ErrGenerationFailed)
	}

	var responseText strings.Builder
	for i, candidate := range resp.Candidates {
		if candidate.FinishReason != genai.FinishReasonStop && candidate.FinishReason != genai.FinishReasonUnspecified {
			log.Printf("Warning: Candidate %d finished with reason: %v", i, candidate.FinishReason)
		}
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				responseText.WriteString(string(text))
			}
		}
	}

	if responseText.Len() == 0 {
		return "", fmt.Errorf("%w: empty content", ErrGenerationFailed)
	}

	return responseText.String(), nil
}
