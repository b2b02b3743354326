package repository

import (
	"context"
	"fmt"
	"strings"

	"jurix-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChunkRepository handles database operations for embedded text chunks
// backing semantic search
type ChunkRepository struct {
	db *pgxpool.Pool
}

// NewChunkRepository creates a new chunk repository
func NewChunkRepository(db *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Upsert stores one chunk with its embedding, replacing any existing chunk
// for the same dispositivo
func (r *ChunkRepository) Upsert(ctx context.Context, chunk *models.DispositivoChunk, embedding []float64) error {
	if len(embedding) != 768 {
		return fmt.Errorf("embedding must be 768 dimensions, got %d", len(embedding))
	}

	query := `
		INSERT INTO dispositivo_chunks (
			norma_id, dispositivo_id, texto, norma_tipo, norma_numero, norma_ano, label, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::vector)
		ON CONFLICT (dispositivo_id) DO UPDATE SET
			texto = EXCLUDED.texto,
			label = EXCLUDED.label,
			embedding = EXCLUDED.embedding
		RETURNING id`

	return r.db.QueryRow(ctx, query,
		chunk.NormaID,
		chunk.DispositivoID,
		chunk.Texto,
		chunk.NormaTipo,
		chunk.NormaNumero,
		chunk.NormaAno,
		chunk.Label,
		formatVector(embedding),
	).Scan(&chunk.ID)
}

// Search performs a vector similarity search over dispositivo chunks.
// tipo/ano filters are optional (empty string / zero disables them).
func (r *ChunkRepository) Search(
	ctx context.Context,
	embedding []float64,
	tipo string,
	ano int,
	limit int,
) ([]models.DispositivoChunk, error) {
	if len(embedding) != 768 {
		return nil, fmt.Errorf("embedding must be 768 dimensions, got %d", len(embedding))
	}

	vectorStr := formatVector(embedding)

	query := `
		SELECT
			id, norma_id, dispositivo_id, texto,
			norma_tipo, norma_numero, norma_ano, label,
			embedding <=> $1::vector AS distance
		FROM dispositivo_chunks
		WHERE 1=1`

	args := []interface{}{vectorStr}
	argIndex := 2

	if tipo != "" {
		query += fmt.Sprintf(" AND LOWER(norma_tipo) = LOWER($%d)", argIndex)
		args = append(args, tipo)
		argIndex++
	}
	if ano != 0 {
		query += fmt.Sprintf(" AND norma_ano = $%d", argIndex)
		args = append(args, ano)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY embedding <=> $1::vector LIMIT $%d", argIndex)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.DispositivoChunk
	for rows.Next() {
		var chunk models.DispositivoChunk
		err := rows.Scan(
			&chunk.ID,
			&chunk.NormaID,
			&chunk.DispositivoID,
			&chunk.Texto,
			&chunk.NormaTipo,
			&chunk.NormaNumero,
			&chunk.NormaAno,
			&chunk.Label,
			&chunk.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunks: %w", err)
	}

	return chunks, nil
}

// DeleteByNorma removes all chunks belonging to a norma
func (r *ChunkRepository) DeleteByNorma(ctx context.Context, normaID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM dispositivo_chunks WHERE norma_id = $1`, normaID)
	return err
}

// CountByNorma returns how many chunks a norma has
func (r *ChunkRepository) CountByNorma(ctx context.Context, normaID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM dispositivo_chunks WHERE norma_id = $1`, normaID).Scan(&count)
	return count, err
}
