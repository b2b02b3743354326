package models

import (
	"time"

	"github.com/google/uuid"
)

// Acao represents the action kind of an alteration event
type Acao string

const (
	AcaoRevoga      Acao = "REVOGA"
	AcaoAltera      Acao = "ALTERA"
	AcaoAdiciona    Acao = "ADICIONA"
	AcaoSubstitui   Acao = "SUBSTITUI"
	AcaoRegulamenta Acao = "REGULAMENTA"
	AcaoReferencia  Acao = "REFERENCIA"
)

// MaxTargetTextLength bounds the raw target snippet stored for audit.
const MaxTargetTextLength = 500

// EventoAlteracao represents a detected alteration event: a dispositivo
// whose text revokes, amends, adds to, or references another dispositivo or
// norma. Events are never mutated; reprocessing the source norma replaces
// them wholesale.
type EventoAlteracao struct {
	ID                 uuid.UUID  `json:"id"`
	DispositivoFonteID uuid.UUID  `json:"dispositivo_fonte_id"`
	Acao               Acao       `json:"acao"`
	TargetText         string     `json:"target_text"`
	NormaAlvoID        *uuid.UUID `json:"norma_alvo_id,omitempty"`
	DispositivoAlvoID  *uuid.UUID `json:"dispositivo_alvo_id,omitempty"`
	ReferenciaTipo     string     `json:"referencia_tipo"`
	ReferenciaNumero   string     `json:"referencia_numero"`

	ExtractionConfidence float64 `json:"extraction_confidence"`
	ExtractionMethod     string  `json:"extraction_method"`

	CreatedAt time.Time `json:"created_at"`
}
