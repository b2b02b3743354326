package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TipoDispositivo represents the structural kind of a dispositivo
type TipoDispositivo string

const (
	TipoArtigo    TipoDispositivo = "artigo"
	TipoParagrafo TipoDispositivo = "paragrafo"
	TipoInciso    TipoDispositivo = "inciso"
	TipoAlinea    TipoDispositivo = "alinea"
	TipoItem      TipoDispositivo = "item"
	TipoCapitulo  TipoDispositivo = "capitulo"
	TipoSecao     TipoDispositivo = "secao"
	TipoTitulo    TipoDispositivo = "titulo"
	TipoLivro     TipoDispositivo = "livro"
	TipoParte     TipoDispositivo = "parte"
)

// Dispositivo represents one structural element of a norma (article,
// paragraph, inciso, alinea, etc.). Dispositivos are owned by their norma
// through the flat Ordem sequence; ParentID is a weak back-reference for
// hierarchy lookups only. Reprocessing replaces the whole set.
type Dispositivo struct {
	ID       uuid.UUID       `json:"id"`
	NormaID  uuid.UUID       `json:"norma_id"`
	Tipo     TipoDispositivo `json:"tipo"`
	Numero   string          `json:"numero"`
	Texto    string          `json:"texto"`
	Ordem    int             `json:"ordem"`
	ParentID *uuid.UUID      `json:"parent_id,omitempty"`

	SegmentationConfidence float64 `json:"segmentation_confidence"`
}

// Label returns the display label for the dispositivo, e.g. "Art. 1º",
// "§ 2º", "Parágrafo único.", "I -", "a)".
func (d *Dispositivo) Label() string {
	switch d.Tipo {
	case TipoArtigo:
		return "Art. " + d.Numero
	case TipoParagrafo:
		if d.Numero == "único" {
			return "Parágrafo único."
		}
		return "§ " + d.Numero
	case TipoInciso:
		return d.Numero + " -"
	case TipoAlinea:
		return d.Numero + ")"
	case TipoItem:
		return d.Numero + "."
	case TipoCapitulo, TipoSecao, TipoTitulo, TipoLivro, TipoParte:
		return fmt.Sprintf("%s %s", strings.ToUpper(string(d.Tipo)), d.Numero)
	default:
		return d.Numero
	}
}
