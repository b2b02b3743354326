package models

import (
	"github.com/google/uuid"
)

// DispositivoChunk represents an embedded chunk of legal text used for
// semantic search over the consolidated corpus
type DispositivoChunk struct {
	ID            uuid.UUID  `json:"id"`
	NormaID       uuid.UUID  `json:"norma_id"`
	DispositivoID *uuid.UUID `json:"dispositivo_id,omitempty"`
	Texto         string     `json:"texto"`
	NormaTipo     string     `json:"norma_tipo"`
	NormaNumero   string     `json:"norma_numero"`
	NormaAno      int        `json:"norma_ano"`
	Label         string     `json:"label"`
	Distance      float64    `json:"distance,omitempty"` // Vector similarity distance
}
