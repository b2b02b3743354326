package processing

import (
	"context"
	"strings"
	"testing"

	"jurix-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEventsLawCitationWithYear(t *testing.T) {
	e := NewExtractor()
	fonteID := uuid.New()
	normaID := uuid.New()
	targetID := uuid.New()

	var gotTipo, gotNumero string
	var gotAno int
	resolve := func(ctx context.Context, tipo, numero string, ano int) (*uuid.UUID, error) {
		gotTipo, gotNumero, gotAno = tipo, numero, ano
		return &targetID, nil
	}

	events := e.ExtractEvents(context.Background(), "Fica revogada a Lei nº 100/2010.", fonteID, normaID, resolve)

	require.Len(t, events, 1)
	assert.Equal(t, models.AcaoRevoga, events[0].Acao)
	assert.Equal(t, "lei", events[0].ReferenciaTipo)
	assert.Equal(t, "100/2010", events[0].ReferenciaNumero)
	assert.Equal(t, 0.9, events[0].ExtractionConfidence)
	assert.Equal(t, "regex", events[0].ExtractionMethod)
	require.NotNil(t, events[0].NormaAlvoID)
	assert.Equal(t, targetID, *events[0].NormaAlvoID)
	assert.Equal(t, fonteID, events[0].DispositivoFonteID)

	assert.Equal(t, "Lei", gotTipo)
	assert.Equal(t, "100", gotNumero)
	assert.Equal(t, 2010, gotAno)
}

func TestExtractEventsLawCitationWithoutYear(t *testing.T) {
	e := NewExtractor()
	resolveCalled := false
	resolve := func(ctx context.Context, tipo, numero string, ano int) (*uuid.UUID, error) {
		resolveCalled = true
		return nil, nil
	}

	events := e.ExtractEvents(context.Background(), "Fica revogada a Lei nº 100.", uuid.New(), uuid.New(), resolve)

	require.Len(t, events, 1)
	assert.Equal(t, "100", events[0].ReferenciaNumero)
	assert.Equal(t, 0.7, events[0].ExtractionConfidence)
	assert.Nil(t, events[0].NormaAlvoID)
	assert.False(t, resolveCalled, "resolver must not run for citations without a year")
}

func TestExtractEventsSelfReference(t *testing.T) {
	e := NewExtractor()
	normaID := uuid.New()

	events := e.ExtractEvents(context.Background(), "Revogam-se as disposições em contrário desta Lei.", uuid.New(), normaID, nil)

	require.Len(t, events, 1)
	assert.Equal(t, models.AcaoRevoga, events[0].Acao)
	assert.Equal(t, "self_reference", events[0].ReferenciaTipo)
	assert.Equal(t, 0.95, events[0].ExtractionConfidence)
	require.NotNil(t, events[0].NormaAlvoID)
	assert.Equal(t, normaID, *events[0].NormaAlvoID)
}

func TestExtractEventsPinpointArticle(t *testing.T) {
	e := NewExtractor()
	normaID := uuid.New()

	events := e.ExtractEvents(context.Background(), "Altera o art. 5º desta Lei.", uuid.New(), normaID, nil)

	require.Len(t, events, 2)

	// Self reference resolves to the source norma; the pinpoint names the
	// altered dispositivo within it.
	assert.Equal(t, "self_reference", events[0].ReferenciaTipo)
	require.NotNil(t, events[0].NormaAlvoID)
	assert.Equal(t, normaID, *events[0].NormaAlvoID)

	assert.Equal(t, models.AcaoAltera, events[1].Acao)
	assert.Equal(t, "artigo", events[1].ReferenciaTipo)
	assert.Equal(t, "5º", events[1].ReferenciaNumero)
	assert.Equal(t, 0.9, events[1].ExtractionConfidence)
	require.NotNil(t, events[1].NormaAlvoID, "pinpoint inherits the self-referenced norma")
	assert.Equal(t, normaID, *events[1].NormaAlvoID)
}

func TestExtractEventsPinpointInheritsCitedNorma(t *testing.T) {
	e := NewExtractor()
	targetID := uuid.New()
	normaID := uuid.New()

	resolve := func(ctx context.Context, tipo, numero string, ano int) (*uuid.UUID, error) {
		return &targetID, nil
	}

	events := e.ExtractEvents(context.Background(), "Fica revogado o art. 5º da Lei nº 100/2010.", uuid.New(), normaID, resolve)

	byTipo := make(map[string]models.EventoAlteracao)
	for _, ev := range events {
		byTipo[ev.ReferenciaTipo] = ev
	}

	citation, ok := byTipo["lei"]
	require.True(t, ok)
	require.NotNil(t, citation.NormaAlvoID)
	assert.Equal(t, targetID, *citation.NormaAlvoID)

	pinpoint, ok := byTipo["artigo"]
	require.True(t, ok)
	assert.Equal(t, "5º", pinpoint.ReferenciaNumero)
	require.NotNil(t, pinpoint.NormaAlvoID, "pinpoint inherits the cited norma")
	assert.Equal(t, targetID, *pinpoint.NormaAlvoID)
}

func TestExtractEventsPinpointParagraphAndInciso(t *testing.T) {
	e := NewExtractor()

	events := e.ExtractEvents(context.Background(), "Altera o § 2º e o inciso III do artigo anterior.", uuid.New(), uuid.New(), nil)

	require.Len(t, events, 2)
	assert.Equal(t, "paragrafo", events[0].ReferenciaTipo)
	assert.Equal(t, "2º", events[0].ReferenciaNumero)
	assert.Equal(t, "inciso", events[1].ReferenciaTipo)
	assert.Equal(t, "III", events[1].ReferenciaNumero)

	// No citation or self reference in the window: nothing to pin against
	assert.Nil(t, events[0].NormaAlvoID)
	assert.Nil(t, events[1].NormaAlvoID)
}

func TestExtractEventsWindowCountsRunes(t *testing.T) {
	e := NewExtractor()

	// 170 two-byte runes between the verb and the citation: past a byte
	// window of 200, comfortably inside a rune window of 200.
	texto := "Revoga " + strings.Repeat("ç", 170) + " a Lei nº 77/2001."
	events := e.ExtractEvents(context.Background(), texto, uuid.New(), uuid.New(), nil)

	require.Len(t, events, 1)
	assert.Equal(t, "lei", events[0].ReferenciaTipo)
	assert.Equal(t, "77/2001", events[0].ReferenciaNumero)
	assert.Equal(t, 0.9, events[0].ExtractionConfidence)
}

func TestExtractEventsVerbWithoutTarget(t *testing.T) {
	e := NewExtractor()

	events := e.ExtractEvents(context.Background(), "Ficam revogadas as disposições em contrário.", uuid.New(), uuid.New(), nil)

	require.Len(t, events, 1)
	assert.Equal(t, models.AcaoRevoga, events[0].Acao)
	assert.Equal(t, 0.5, events[0].ExtractionConfidence)
	assert.Empty(t, events[0].ReferenciaTipo)
	assert.NotEmpty(t, events[0].TargetText)
}

func TestExtractEventsShortText(t *testing.T) {
	e := NewExtractor()

	events := e.ExtractEvents(context.Background(), "Revoga-se.", uuid.New(), uuid.New(), nil)

	require.NotNil(t, events)
	assert.Empty(t, events)
}

func TestExtractEventsNoAction(t *testing.T) {
	e := NewExtractor()

	events := e.ExtractEvents(context.Background(), "O município promoverá campanhas anuais de vacinação.", uuid.New(), uuid.New(), nil)

	assert.Empty(t, events)
}

func TestExtractEventsNilFonteIDPanics(t *testing.T) {
	e := NewExtractor()

	require.PanicsWithValue(t, "processing: dispositivo fonte id is required", func() {
		e.ExtractEvents(context.Background(), "Fica revogada a Lei nº 100/2010.", uuid.Nil, uuid.New(), nil)
	})
}

func TestExtractEventsLeiComplementar(t *testing.T) {
	e := NewExtractor()

	var gotTipo string
	resolve := func(ctx context.Context, tipo, numero string, ano int) (*uuid.UUID, error) {
		gotTipo = tipo
		return nil, nil
	}

	events := e.ExtractEvents(context.Background(), "Fica revogada a Lei Complementar nº 42/2015.", uuid.New(), uuid.New(), resolve)

	require.Len(t, events, 1)
	assert.Equal(t, "lei complementar", events[0].ReferenciaTipo)
	assert.Equal(t, "42/2015", events[0].ReferenciaNumero)
	assert.Equal(t, "Lei Complementar", gotTipo)
}

func TestExtractEventsThousandsSeparator(t *testing.T) {
	e := NewExtractor()

	var gotNumero string
	resolve := func(ctx context.Context, tipo, numero string, ano int) (*uuid.UUID, error) {
		gotNumero = numero
		return nil, nil
	}

	events := e.ExtractEvents(context.Background(), "Fica revogada a Lei nº 1.234/2019.", uuid.New(), uuid.New(), resolve)

	require.Len(t, events, 1)
	assert.Equal(t, "1.234/2019", events[0].ReferenciaNumero)
	assert.Equal(t, "1234", gotNumero, "thousands separator stripped for lookup")
}

func TestExtractEventsResolverFailureLeavesUnresolved(t *testing.T) {
	e := NewExtractor()

	resolve := func(ctx context.Context, tipo, numero string, ano int) (*uuid.UUID, error) {
		return nil, assert.AnError
	}

	events := e.ExtractEvents(context.Background(), "Fica revogada a Lei nº 100/2010.", uuid.New(), uuid.New(), resolve)

	require.Len(t, events, 1)
	assert.Nil(t, events[0].NormaAlvoID)
	assert.Equal(t, 0.9, events[0].ExtractionConfidence)
}
