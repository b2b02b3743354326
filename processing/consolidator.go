package processing

import (
	"fmt"
	"strings"
	"time"

	"jurix-backend/models"

	"github.com/google/uuid"
)

// Header carries the norma metadata rendered around the consolidated body.
type Header struct {
	Tipo           string
	Numero         string
	Ano            int
	Ementa         string
	DataPublicacao *time.Time
	DataVigencia   *time.Time
}

// Stats summarizes one consolidation run.
type Stats struct {
	TotalDispositivos int `json:"total_dispositivos"`
	RevokedCount      int `json:"revoked_count"`
	AlteredCount      int `json:"altered_count"`
	EventsProcessed   int `json:"events_processed"`
}

// SourceRef identifies the norma whose dispositivo authored an event, for
// the "[ALTERADO pela ...]" annotation.
type SourceRef struct {
	Tipo   string
	Numero string
	Ano    int
}

func (s SourceRef) String() string {
	return fmt.Sprintf("%s %s/%d", s.Tipo, s.Numero, s.Ano)
}

// TargetedEvent pairs an alteration event with the identity of its
// authoring norma. The caller assembles these from every event whose
// resolved target is the norma being consolidated, regardless of which
// norma's dispositivo authored it.
type TargetedEvent struct {
	Evento models.EventoAlteracao
	Fonte  SourceRef
}

// Consolidator applies accumulated alteration events onto a norma's
// dispositivo tree and renders the current, annotated text. Deterministic
// and idempotent for a fixed clock.
type Consolidator struct {
	// Now supplies the generation timestamp; overridable for
	// reproducible output.
	Now func() time.Time
}

// NewConsolidator creates a new consolidator
func NewConsolidator() *Consolidator {
	return &Consolidator{Now: time.Now}
}

const rule = 80

// Consolidate renders the consolidated text for one norma from its full,
// ordered dispositivo list plus the complete set of events targeting it,
// and returns the text together with summary statistics.
func (c *Consolidator) Consolidate(
	dispositivos []models.Dispositivo,
	eventos []TargetedEvent,
	header Header,
) (string, Stats) {
	revoked := make(map[uuid.UUID]bool)
	altered := make(map[uuid.UUID]TargetedEvent)

	// Only REVOGA/ALTERA with a resolved target dispositivo affect
	// rendering; everything else stays available for audit counts.
	for _, te := range eventos {
		if te.Evento.DispositivoAlvoID == nil {
			continue
		}
		switch te.Evento.Acao {
		case models.AcaoRevoga:
			revoked[*te.Evento.DispositivoAlvoID] = true
		case models.AcaoAltera:
			altered[*te.Evento.DispositivoAlvoID] = te
		}
	}

	children := make(map[uuid.UUID][]*models.Dispositivo)
	var roots []*models.Dispositivo
	for i := range dispositivos {
		d := &dispositivos[i]
		if d.ID == uuid.Nil {
			panic("processing: dispositivo without id passed to consolidator")
		}
		if d.ParentID == nil {
			roots = append(roots, d)
		} else {
			children[*d.ParentID] = append(children[*d.ParentID], d)
		}
	}

	var lines []string

	lines = append(lines, strings.Repeat("=", rule))
	lines = append(lines, fmt.Sprintf("%s Nº %s/%d", header.Tipo, header.Numero, header.Ano))
	lines = append(lines, "TEXTO CONSOLIDADO")
	lines = append(lines, strings.Repeat("=", rule))
	lines = append(lines, "")

	if header.Ementa != "" {
		lines = append(lines, "EMENTA: "+header.Ementa)
		lines = append(lines, "")
	}

	for _, root := range roots {
		lines = renderDispositivo(root, children, revoked, altered, lines, 0)
	}

	stats := Stats{
		TotalDispositivos: len(dispositivos),
		RevokedCount:      len(revoked),
		AlteredCount:      len(altered),
		EventsProcessed:   len(eventos),
	}

	lines = append(lines, "")
	lines = append(lines, strings.Repeat("-", rule))
	lines = append(lines, "INFORMAÇÕES DE CONSOLIDAÇÃO:")
	lines = append(lines, fmt.Sprintf("  - Total de dispositivos: %d", stats.TotalDispositivos))
	lines = append(lines, fmt.Sprintf("  - Dispositivos revogados: %d", stats.RevokedCount))
	lines = append(lines, fmt.Sprintf("  - Dispositivos alterados: %d", stats.AlteredCount))
	lines = append(lines, fmt.Sprintf("  - Eventos processados: %d", stats.EventsProcessed))

	if header.DataPublicacao != nil {
		lines = append(lines, "  - Data de publicação: "+header.DataPublicacao.Format("02/01/2006"))
	}
	if header.DataVigencia != nil {
		lines = append(lines, "  - Data de vigência: "+header.DataVigencia.Format("02/01/2006"))
	}

	lines = append(lines, "  - Consolidado em: "+c.Now().Format("02/01/2006 15:04:05"))
	lines = append(lines, strings.Repeat("=", rule))

	return strings.Join(lines, "\n"), stats
}

// renderDispositivo appends one dispositivo and its subtree depth-first.
// Revoked dispositivos render as a single placeholder and their children
// are pruned — a revoked provision's sub-structure is moot.
func renderDispositivo(
	d *models.Dispositivo,
	children map[uuid.UUID][]*models.Dispositivo,
	revoked map[uuid.UUID]bool,
	altered map[uuid.UUID]TargetedEvent,
	lines []string,
	level int,
) []string {
	indent := strings.Repeat("  ", level)

	if revoked[d.ID] {
		return append(lines, fmt.Sprintf("%s%s (REVOGADO)", indent, d.Label()))
	}

	if te, ok := altered[d.ID]; ok {
		lines = append(lines, fmt.Sprintf("%s%s %s", indent, d.Label(), d.Texto))
		lines = append(lines, fmt.Sprintf("%s  [ALTERADO pela %s]", indent, te.Fonte))
	} else {
		lines = append(lines, fmt.Sprintf("%s%s %s", indent, d.Label(), d.Texto))
	}

	for _, child := range children[d.ID] {
		lines = renderDispositivo(child, children, revoked, altered, lines, level+1)
	}

	return lines
}
