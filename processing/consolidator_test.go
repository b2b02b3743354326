package processing

import (
	"strings"
	"testing"
	"time"

	"jurix-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedConsolidator() *Consolidator {
	c := NewConsolidator()
	c.Now = func() time.Time {
		return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	}
	return c
}

func buildDispositivos(normaID uuid.UUID) []models.Dispositivo {
	art1 := uuid.New()
	par1 := uuid.New()
	art2 := uuid.New()
	inc1 := uuid.New()

	return []models.Dispositivo{
		{ID: art1, NormaID: normaID, Tipo: models.TipoArtigo, Numero: "1º", Texto: "Fica criado o programa municipal.", Ordem: 0},
		{ID: par1, NormaID: normaID, Tipo: models.TipoParagrafo, Numero: "único", Texto: "O programa será coordenado pela secretaria.", Ordem: 1, ParentID: &art1},
		{ID: art2, NormaID: normaID, Tipo: models.TipoArtigo, Numero: "2º", Texto: "São beneficiários do programa:", Ordem: 2},
		{ID: inc1, NormaID: normaID, Tipo: models.TipoInciso, Numero: "I", Texto: "os estudantes da rede pública;", Ordem: 3, ParentID: &art2},
	}
}

func TestConsolidateBaseline(t *testing.T) {
	c := fixedConsolidator()
	dispositivos := buildDispositivos(uuid.New())

	header := Header{Tipo: "Lei", Numero: "123", Ano: 2020, Ementa: "Cria o programa municipal."}
	text, stats := c.Consolidate(dispositivos, nil, header)

	assert.Equal(t, Stats{TotalDispositivos: 4}, stats)

	lines := strings.Split(text, "\n")
	require.Greater(t, len(lines), 10)
	assert.Equal(t, strings.Repeat("=", 80), lines[0])
	assert.Equal(t, "Lei Nº 123/2020", lines[1])
	assert.Equal(t, "TEXTO CONSOLIDADO", lines[2])
	assert.Equal(t, strings.Repeat("=", 80), lines[3])
	assert.Equal(t, "", lines[4])
	assert.Equal(t, "EMENTA: Cria o programa municipal.", lines[5])
	assert.Equal(t, "", lines[6])
	assert.Equal(t, "Art. 1º Fica criado o programa municipal.", lines[7])
	assert.Equal(t, "  Parágrafo único. O programa será coordenado pela secretaria.", lines[8])
	assert.Equal(t, "Art. 2º São beneficiários do programa:", lines[9])
	assert.Equal(t, "  I - os estudantes da rede pública;", lines[10])

	assert.Contains(t, text, "INFORMAÇÕES DE CONSOLIDAÇÃO:")
	assert.Contains(t, text, "  - Total de dispositivos: 4")
	assert.Contains(t, text, "  - Dispositivos revogados: 0")
	assert.Contains(t, text, "  - Consolidado em: 15/03/2024 10:30:00")
	assert.Equal(t, strings.Repeat("=", 80), lines[len(lines)-1])
}

func TestConsolidateRevokedPrunesChildren(t *testing.T) {
	c := fixedConsolidator()
	dispositivos := buildDispositivos(uuid.New())
	art2 := dispositivos[2].ID

	eventos := []TargetedEvent{
		{
			Evento: models.EventoAlteracao{Acao: models.AcaoRevoga, DispositivoAlvoID: &art2},
			Fonte:  SourceRef{Tipo: "Lei", Numero: "200", Ano: 2021},
		},
	}

	text, stats := c.Consolidate(dispositivos, eventos, Header{Tipo: "Lei", Numero: "123", Ano: 2020})

	assert.Equal(t, 1, stats.RevokedCount)
	assert.Equal(t, 1, stats.EventsProcessed)
	assert.Contains(t, text, "Art. 2º (REVOGADO)")
	assert.NotContains(t, text, "São beneficiários")
	assert.NotContains(t, text, "os estudantes da rede pública", "children of a revoked dispositivo are pruned")
}

func TestConsolidateAlteredAnnotation(t *testing.T) {
	c := fixedConsolidator()
	dispositivos := buildDispositivos(uuid.New())
	par1 := dispositivos[1].ID

	eventos := []TargetedEvent{
		{
			Evento: models.EventoAlteracao{Acao: models.AcaoAltera, DispositivoAlvoID: &par1},
			Fonte:  SourceRef{Tipo: "Lei", Numero: "200", Ano: 2021},
		},
	}

	text, stats := c.Consolidate(dispositivos, eventos, Header{Tipo: "Lei", Numero: "123", Ano: 2020})

	assert.Equal(t, 1, stats.AlteredCount)
	assert.Contains(t, text, "  Parágrafo único. O programa será coordenado pela secretaria.\n    [ALTERADO pela Lei 200/2021]")
}

func TestConsolidateIgnoresUnresolvedEvents(t *testing.T) {
	c := fixedConsolidator()
	dispositivos := buildDispositivos(uuid.New())

	// Resolved norma target but no dispositivo target: counted, not rendered.
	eventos := []TargetedEvent{
		{
			Evento: models.EventoAlteracao{Acao: models.AcaoRevoga},
			Fonte:  SourceRef{Tipo: "Lei", Numero: "200", Ano: 2021},
		},
	}

	text, stats := c.Consolidate(dispositivos, eventos, Header{Tipo: "Lei", Numero: "123", Ano: 2020})

	assert.Equal(t, 0, stats.RevokedCount)
	assert.Equal(t, 1, stats.EventsProcessed)
	assert.NotContains(t, text, "(REVOGADO)")
}

func TestConsolidateDeterministic(t *testing.T) {
	c := fixedConsolidator()
	dispositivos := buildDispositivos(uuid.New())
	header := Header{Tipo: "Lei", Numero: "123", Ano: 2020}

	first, _ := c.Consolidate(dispositivos, nil, header)
	second, _ := c.Consolidate(dispositivos, nil, header)

	assert.Equal(t, first, second)
}

func TestConsolidateHeaderDates(t *testing.T) {
	c := fixedConsolidator()
	dispositivos := buildDispositivos(uuid.New())

	pub := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	vig := time.Date(2020, 9, 1, 0, 0, 0, 0, time.UTC)
	header := Header{Tipo: "Lei", Numero: "123", Ano: 2020, DataPublicacao: &pub, DataVigencia: &vig}

	text, _ := c.Consolidate(dispositivos, nil, header)

	assert.Contains(t, text, "  - Data de publicação: 01/06/2020")
	assert.Contains(t, text, "  - Data de vigência: 01/09/2020")
}

func TestConsolidateNoEmentaOmitsLine(t *testing.T) {
	c := fixedConsolidator()
	dispositivos := buildDispositivos(uuid.New())

	text, _ := c.Consolidate(dispositivos, nil, Header{Tipo: "Decreto", Numero: "7", Ano: 2019})

	assert.NotContains(t, text, "EMENTA:")
	assert.Contains(t, text, "Decreto Nº 7/2019")
}

func TestConsolidateMissingIDPanics(t *testing.T) {
	c := fixedConsolidator()
	dispositivos := []models.Dispositivo{{Tipo: models.TipoArtigo, Numero: "1º", Texto: "texto"}}

	require.PanicsWithValue(t, "processing: dispositivo without id passed to consolidator", func() {
		c.Consolidate(dispositivos, nil, Header{Tipo: "Lei", Numero: "1", Ano: 2020})
	})
}
