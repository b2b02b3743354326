package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NormaStatus represents the processing status of a norma in the pipeline
type NormaStatus string

const (
	NormaStatusPending           NormaStatus = "pending"
	NormaStatusPDFDownloaded     NormaStatus = "pdf_downloaded"
	NormaStatusSegmented         NormaStatus = "segmented"
	NormaStatusEntitiesExtracted NormaStatus = "entities_extracted"
	NormaStatusConsolidated      NormaStatus = "consolidated"
	NormaStatusFailed            NormaStatus = "failed"
)

// SAPLMetadata holds the raw payload returned by the SAPL API
type SAPLMetadata map[string]interface{}

// Value implements driver.Valuer for JSONB
func (m SAPLMetadata) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(map[string]interface{}{})
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB
func (m *SAPLMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = make(SAPLMetadata)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*m = make(SAPLMetadata)
		return nil
	}

	if len(bytes) == 0 {
		*m = make(SAPLMetadata)
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// Norma represents a legal norm (Lei, Decreto, Resolução, etc.)
type Norma struct {
	ID         uuid.UUID `json:"id"`
	Tipo       string    `json:"tipo"`
	Numero     string    `json:"numero"`
	Ano        int       `json:"ano"`
	Ementa     string    `json:"ementa"`
	Observacao string    `json:"observacao"`

	DataPublicacao *time.Time `json:"data_publicacao,omitempty"`
	DataVigencia   *time.Time `json:"data_vigencia,omitempty"`

	TextoOriginal    string  `json:"texto_original"`
	TextoConsolidado *string `json:"texto_consolidado,omitempty"`

	PDFURL  string `json:"pdf_url"`
	PDFPath string `json:"pdf_path"`

	SAPLID       *int         `json:"sapl_id,omitempty"`
	SAPLURL      string       `json:"sapl_url"`
	SAPLMetadata SAPLMetadata `json:"sapl_metadata,omitempty"`

	Status          NormaStatus `json:"status"`
	NeedsReview     bool        `json:"needs_review"`
	ProcessingError *string     `json:"processing_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// String returns the canonical identifier, e.g. "Lei 123/2020"
func (n *Norma) String() string {
	return fmt.Sprintf("%s %s/%d", n.Tipo, n.Numero, n.Ano)
}

// InVacatioLegis reports whether the norma is published but not yet
// effective relative to the given reference date.
func (n *Norma) InVacatioLegis(today time.Time) bool {
	if n.DataPublicacao == nil || n.DataVigencia == nil {
		return false
	}
	day := today.Truncate(24 * time.Hour)
	return !n.DataPublicacao.After(day) && day.Before(*n.DataVigencia)
}
