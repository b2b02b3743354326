package repository

import (
	"context"
	"fmt"

	"jurix-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NormaRepository handles database operations for normas
type NormaRepository struct {
	db *pgxpool.Pool
}

// NewNormaRepository creates a new norma repository
func NewNormaRepository(db *pgxpool.Pool) *NormaRepository {
	return &NormaRepository{db: db}
}

const normaColumns = `id, tipo, numero, ano, ementa, observacao,
	data_publicacao, data_vigencia, texto_original, texto_consolidado,
	pdf_url, pdf_path, sapl_id, sapl_url, sapl_metadata,
	status, needs_review, processing_error, created_at, updated_at`

func scanNorma(row interface{ Scan(...interface{}) error }) (*models.Norma, error) {
	norma := &models.Norma{}
	err := row.Scan(
		&norma.ID,
		&norma.Tipo,
		&norma.Numero,
		&norma.Ano,
		&norma.Ementa,
		&norma.Observacao,
		&norma.DataPublicacao,
		&norma.DataVigencia,
		&norma.TextoOriginal,
		&norma.TextoConsolidado,
		&norma.PDFURL,
		&norma.PDFPath,
		&norma.SAPLID,
		&norma.SAPLURL,
		&norma.SAPLMetadata,
		&norma.Status,
		&norma.NeedsReview,
		&norma.ProcessingError,
		&norma.CreatedAt,
		&norma.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return norma, nil
}

// Create creates a new norma
func (r *NormaRepository) Create(ctx context.Context, norma *models.Norma) error {
	query := `
		INSERT INTO normas (
			tipo, numero, ano, ementa, observacao,
			data_publicacao, data_vigencia, texto_original,
			pdf_url, pdf_path, sapl_id, sapl_url, sapl_metadata, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		) RETURNING id, created_at, updated_at`

	if norma.Status == "" {
		norma.Status = models.NormaStatusPending
	}

	err := r.db.QueryRow(
		ctx, query,
		norma.Tipo,
		norma.Numero,
		norma.Ano,
		norma.Ementa,
		norma.Observacao,
		norma.DataPublicacao,
		norma.DataVigencia,
		norma.TextoOriginal,
		norma.PDFURL,
		norma.PDFPath,
		norma.SAPLID,
		norma.SAPLURL,
		norma.SAPLMetadata,
		norma.Status,
	).Scan(&norma.ID, &norma.CreatedAt, &norma.UpdatedAt)

	return err
}

// UpsertBySAPLID creates or updates a norma keyed by its SAPL primary id.
// Returns true when a new row was created.
func (r *NormaRepository) UpsertBySAPLID(ctx context.Context, norma *models.Norma) (bool, error) {
	query := `
		INSERT INTO normas (
			tipo, numero, ano, ementa, observacao,
			data_publicacao, data_vigencia, texto_original,
			pdf_url, pdf_path, sapl_id, sapl_url, sapl_metadata, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
		ON CONFLICT (sapl_id) DO UPDATE SET
			tipo = EXCLUDED.tipo,
			numero = EXCLUDED.numero,
			ano = EXCLUDED.ano,
			ementa = EXCLUDED.ementa,
			observacao = EXCLUDED.observacao,
			data_publicacao = EXCLUDED.data_publicacao,
			data_vigencia = EXCLUDED.data_vigencia,
			texto_original = EXCLUDED.texto_original,
			pdf_url = EXCLUDED.pdf_url,
			sapl_url = EXCLUDED.sapl_url,
			sapl_metadata = EXCLUDED.sapl_metadata,
			updated_at = NOW()
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted`

	if norma.Status == "" {
		norma.Status = models.NormaStatusPending
	}

	var inserted bool
	err := r.db.QueryRow(
		ctx, query,
		norma.Tipo,
		norma.Numero,
		norma.Ano,
		norma.Ementa,
		norma.Observacao,
		norma.DataPublicacao,
		norma.DataVigencia,
		norma.TextoOriginal,
		norma.PDFURL,
		norma.PDFPath,
		norma.SAPLID,
		norma.SAPLURL,
		norma.SAPLMetadata,
		norma.Status,
	).Scan(&norma.ID, &norma.CreatedAt, &norma.UpdatedAt, &inserted)

	return inserted, err
}

// GetByID retrieves a norma by ID
func (r *NormaRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Norma, error) {
	query := `SELECT ` + normaColumns + ` FROM normas WHERE id = $1`
	return scanNorma(r.db.QueryRow(ctx, query, id))
}

// FindByReference performs the exact registry lookup used to resolve law
// citations: case-insensitive tipo, exact numero and ano.
func (r *NormaRepository) FindByReference(ctx context.Context, tipo, numero string, ano int) (*models.Norma, error) {
	query := `SELECT ` + normaColumns + `
		FROM normas
		WHERE LOWER(tipo) = LOWER($1) AND numero = $2 AND ano = $3
		LIMIT 1`
	return scanNorma(r.db.QueryRow(ctx, query, tipo, numero, ano))
}

// List retrieves normas with optional tipo/ano/status filters
func (r *NormaRepository) List(ctx context.Context, tipo string, ano int, status *models.NormaStatus, limit, offset int) ([]*models.Norma, error) {
	query := `SELECT ` + normaColumns + ` FROM normas WHERE 1=1`

	args := []interface{}{}
	argIndex := 1

	if tipo != "" {
		query += fmt.Sprintf(" AND tipo = $%d", argIndex)
		args = append(args, tipo)
		argIndex++
	}
	if ano != 0 {
		query += fmt.Sprintf(" AND ano = $%d", argIndex)
		args = append(args, ano)
		argIndex++
	}
	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *status)
		argIndex++
	}

	query += " ORDER BY ano DESC, numero DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
		if offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argIndex)
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var normas []*models.Norma
	for rows.Next() {
		norma, err := scanNorma(rows)
		if err != nil {
			return nil, err
		}
		normas = append(normas, norma)
	}

	return normas, rows.Err()
}

// UpdateStatus updates the pipeline status of a norma
func (r *NormaRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.NormaStatus) error {
	query := `UPDATE normas SET status = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id, status)
	return err
}

// UpdateConsolidatedText stores the consolidated text and advances status
func (r *NormaRepository) UpdateConsolidatedText(ctx context.Context, id uuid.UUID, text string) error {
	query := `
		UPDATE normas SET
			texto_consolidado = $2,
			status = $3,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, text, models.NormaStatusConsolidated)
	return err
}

// UpdatePDFPath records the archived PDF location
func (r *NormaRepository) UpdatePDFPath(ctx context.Context, id uuid.UUID, path string) error {
	query := `UPDATE normas SET pdf_path = $2, status = $3, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id, path, models.NormaStatusPDFDownloaded)
	return err
}

// MarkFailed records a processing failure
func (r *NormaRepository) MarkFailed(ctx context.Context, id uuid.UUID, processingError string) error {
	query := `
		UPDATE normas SET
			status = $2,
			processing_error = $3,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.NormaStatusFailed, processingError)
	return err
}

// MarkNeedsReview flags a norma for manual review without changing status
func (r *NormaRepository) MarkNeedsReview(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE normas SET
			needs_review = true,
			processing_error = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, reason)
	return err
}
