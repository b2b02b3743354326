package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnswerRequiresGeminiClient(t *testing.T) {
	s := NewRAGService()

	_, err := s.Answer(context.Background(), AnswerRequest{Question: "qual o prazo do alvará?"})
	require.EqualError(t, err, "gemini client not set")
}

func TestSearchRequiresChunkRepository(t *testing.T) {
	s := NewRAGService()

	_, err := s.Search(context.Background(), SearchRequest{Query: "alvará"})
	require.EqualError(t, err, "chunk repository not set")
}
