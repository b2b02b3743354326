package repository

import (
	"context"
	"fmt"

	"jurix-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventoRepository handles database operations for alteration events
type EventoRepository struct {
	db *pgxpool.Pool
}

// NewEventoRepository creates a new evento repository
func NewEventoRepository(db *pgxpool.Pool) *EventoRepository {
	return &EventoRepository{db: db}
}

const eventoColumns = `id, dispositivo_fonte_id, acao, target_text,
	norma_alvo_id, dispositivo_alvo_id, referencia_tipo, referencia_numero,
	extraction_confidence, extraction_method, created_at`

// ReplaceForNorma deletes all events authored by the norma's dispositivos
// and inserts the new set in one transaction. Reprocessing supersedes
// events wholesale; they are never mutated in place.
func (r *EventoRepository) ReplaceForNorma(ctx context.Context, normaID uuid.UUID, eventos []models.EventoAlteracao) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		DELETE FROM eventos_alteracao
		WHERE dispositivo_fonte_id IN (
			SELECT id FROM dispositivos WHERE norma_id = $1
		)`, normaID)
	if err != nil {
		return fmt.Errorf("failed to clear eventos: %w", err)
	}

	query := `
		INSERT INTO eventos_alteracao (
			dispositivo_fonte_id, acao, target_text,
			norma_alvo_id, dispositivo_alvo_id,
			referencia_tipo, referencia_numero,
			extraction_confidence, extraction_method
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	for i := range eventos {
		e := &eventos[i]
		err = tx.QueryRow(ctx, query,
			e.DispositivoFonteID,
			e.Acao,
			e.TargetText,
			e.NormaAlvoID,
			e.DispositivoAlvoID,
			e.ReferenciaTipo,
			e.ReferenciaNumero,
			e.ExtractionConfidence,
			e.ExtractionMethod,
		).Scan(&e.ID, &e.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert evento %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

// ListTargeting retrieves all events whose resolved target is the given
// norma, with the authoring norma's identity, regardless of which norma's
// dispositivo authored them.
func (r *EventoRepository) ListTargeting(ctx context.Context, normaID uuid.UUID) ([]models.EventoAlteracao, map[uuid.UUID]*models.Norma, error) {
	query := `
		SELECT e.id, e.dispositivo_fonte_id, e.acao, e.target_text,
			e.norma_alvo_id, e.dispositivo_alvo_id,
			e.referencia_tipo, e.referencia_numero,
			e.extraction_confidence, e.extraction_method, e.created_at,
			n.id, n.tipo, n.numero, n.ano
		FROM eventos_alteracao e
		JOIN dispositivos d ON d.id = e.dispositivo_fonte_id
		JOIN normas n ON n.id = d.norma_id
		WHERE e.norma_alvo_id = $1
		ORDER BY e.created_at`

	rows, err := r.db.Query(ctx, query, normaID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var eventos []models.EventoAlteracao
	fontes := make(map[uuid.UUID]*models.Norma)

	for rows.Next() {
		var e models.EventoAlteracao
		var fonte models.Norma
		err := rows.Scan(
			&e.ID,
			&e.DispositivoFonteID,
			&e.Acao,
			&e.TargetText,
			&e.NormaAlvoID,
			&e.DispositivoAlvoID,
			&e.ReferenciaTipo,
			&e.ReferenciaNumero,
			&e.ExtractionConfidence,
			&e.ExtractionMethod,
			&e.CreatedAt,
			&fonte.ID,
			&fonte.Tipo,
			&fonte.Numero,
			&fonte.Ano,
		)
		if err != nil {
			return nil, nil, err
		}
		eventos = append(eventos, e)
		fontes[e.ID] = &fonte
	}

	return eventos, fontes, rows.Err()
}

// ListBySource retrieves all events authored by a norma's dispositivos
func (r *EventoRepository) ListBySource(ctx context.Context, normaID uuid.UUID) ([]models.EventoAlteracao, error) {
	query := `
		SELECT ` + eventoColumns + `
		FROM eventos_alteracao
		WHERE dispositivo_fonte_id IN (
			SELECT id FROM dispositivos WHERE norma_id = $1
		)
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, normaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var eventos []models.EventoAlteracao
	for rows.Next() {
		var e models.EventoAlteracao
		err := rows.Scan(
			&e.ID,
			&e.DispositivoFonteID,
			&e.Acao,
			&e.TargetText,
			&e.NormaAlvoID,
			&e.DispositivoAlvoID,
			&e.ReferenciaTipo,
			&e.ReferenciaNumero,
			&e.ExtractionConfidence,
			&e.ExtractionMethod,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		eventos = append(eventos, e)
	}

	return eventos, rows.Err()
}

// ResolveTarget sets the resolved target dispositivo of an event
func (r *EventoRepository) ResolveTarget(ctx context.Context, eventoID, dispositivoAlvoID uuid.UUID) error {
	query := `UPDATE eventos_alteracao SET dispositivo_alvo_id = $2 WHERE id = $1`
	_, err := r.db.Exec(ctx, query, eventoID, dispositivoAlvoID)
	return err
}

// DeleteReferencingNorma removes incoming and outgoing events for a norma.
// Used before reprocessing, which must discard everything the norma's
// units touch.
func (r *EventoRepository) DeleteReferencingNorma(ctx context.Context, normaID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM eventos_alteracao
		WHERE norma_alvo_id = $1
		OR dispositivo_fonte_id IN (
			SELECT id FROM dispositivos WHERE norma_id = $1
		)`, normaID)
	return err
}
