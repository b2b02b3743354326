package repository

import (
	"context"
	"fmt"

	"jurix-backend/models"
	"jurix-backend/processing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DispositivoRepository handles database operations for dispositivos
type DispositivoRepository struct {
	db *pgxpool.Pool
}

// NewDispositivoRepository creates a new dispositivo repository
func NewDispositivoRepository(db *pgxpool.Pool) *DispositivoRepository {
	return &DispositivoRepository{db: db}
}

// ReplaceForNorma deletes every dispositivo of the norma and inserts the
// segmented units in Ordem order inside one transaction. Parent indices
// from the segmenter are mapped to the freshly generated row ids.
// Returns the inserted dispositivos.
func (r *DispositivoRepository) ReplaceForNorma(ctx context.Context, normaID uuid.UUID, units []processing.Unit) ([]models.Dispositivo, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM dispositivos WHERE norma_id = $1`, normaID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear dispositivos: %w", err)
	}

	dispositivos := make([]models.Dispositivo, len(units))
	for i, unit := range units {
		dispositivos[i] = models.Dispositivo{
			ID:                     uuid.New(),
			NormaID:                normaID,
			Tipo:                   unit.Tipo,
			Numero:                 unit.Numero,
			Texto:                  unit.Texto,
			Ordem:                  unit.Ordem,
			SegmentationConfidence: unit.Confidence,
		}
		if unit.Parent != nil {
			parentID := dispositivos[*unit.Parent].ID
			dispositivos[i].ParentID = &parentID
		}
	}

	query := `
		INSERT INTO dispositivos (
			id, norma_id, tipo, numero, texto, ordem, parent_id, segmentation_confidence
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for i := range dispositivos {
		d := &dispositivos[i]
		_, err = tx.Exec(ctx, query,
			d.ID, d.NormaID, d.Tipo, d.Numero, d.Texto, d.Ordem, d.ParentID, d.SegmentationConfidence,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert dispositivo %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit dispositivos: %w", err)
	}

	return dispositivos, nil
}

// ListByNorma retrieves all dispositivos of a norma in Ordem order
func (r *DispositivoRepository) ListByNorma(ctx context.Context, normaID uuid.UUID) ([]models.Dispositivo, error) {
	query := `
		SELECT id, norma_id, tipo, numero, texto, ordem, parent_id, segmentation_confidence
		FROM dispositivos
		WHERE norma_id = $1
		ORDER BY ordem`

	rows, err := r.db.Query(ctx, query, normaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dispositivos []models.Dispositivo
	for rows.Next() {
		var d models.Dispositivo
		err := rows.Scan(
			&d.ID,
			&d.NormaID,
			&d.Tipo,
			&d.Numero,
			&d.Texto,
			&d.Ordem,
			&d.ParentID,
			&d.SegmentationConfidence,
		)
		if err != nil {
			return nil, err
		}
		dispositivos = append(dispositivos, d)
	}

	return dispositivos, rows.Err()
}

// FindByReference retrieves one dispositivo of a norma by structural kind
// and label, for pinpoint target resolution
func (r *DispositivoRepository) FindByReference(ctx context.Context, normaID uuid.UUID, tipo models.TipoDispositivo, numero string) (*models.Dispositivo, error) {
	query := `
		SELECT id, norma_id, tipo, numero, texto, ordem, parent_id, segmentation_confidence
		FROM dispositivos
		WHERE norma_id = $1 AND tipo = $2 AND numero = $3
		ORDER BY ordem
		LIMIT 1`

	var d models.Dispositivo
	err := r.db.QueryRow(ctx, query, normaID, tipo, numero).Scan(
		&d.ID,
		&d.NormaID,
		&d.Tipo,
		&d.Numero,
		&d.Texto,
		&d.Ordem,
		&d.ParentID,
		&d.SegmentationConfidence,
	)
	if err != nil {
		return nil, err
	}

	return &d, nil
}

// DeleteByNorma removes all dispositivos owned by a norma
func (r *DispositivoRepository) DeleteByNorma(ctx context.Context, normaID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM dispositivos WHERE norma_id = $1`, normaID)
	return err
}
