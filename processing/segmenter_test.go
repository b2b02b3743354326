package processing

import (
	"testing"

	"jurix-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentNoMarkers(t *testing.T) {
	s := NewSegmenter()

	units := s.Segment("Considerando a necessidade de regulamentar o serviço público municipal.")

	require.NotNil(t, units)
	assert.Empty(t, units)
}

func TestSegmentTwoArticles(t *testing.T) {
	s := NewSegmenter()

	text := "Art. 1º Fica criado o programa municipal de leitura.\n\nArt. 2º Fica revogada a Lei nº 100/2010."
	units := s.Segment(text)

	require.Len(t, units, 2)

	assert.Equal(t, models.TipoArtigo, units[0].Tipo)
	assert.Equal(t, "1º", units[0].Numero)
	assert.Equal(t, "Fica criado o programa municipal de leitura.", units[0].Texto)
	assert.Equal(t, 0, units[0].Ordem)
	assert.Nil(t, units[0].Parent)

	assert.Equal(t, models.TipoArtigo, units[1].Tipo)
	assert.Equal(t, "2º", units[1].Numero)
	assert.Equal(t, "Fica revogada a Lei nº 100/2010.", units[1].Texto)
	assert.Equal(t, 1, units[1].Ordem)
	assert.Nil(t, units[1].Parent)

	for _, u := range units {
		assert.Equal(t, 1.0, u.Confidence)
	}
}

func TestSegmentHierarchy(t *testing.T) {
	s := NewSegmenter()

	text := "Art. 1º Fica instituído o conselho municipal.\n" +
		"§ 1º Compete ao conselho:\n" +
		"I - deliberar sobre as diretrizes;\n" +
		"II - fiscalizar a execução;\n" +
		"a) mediante relatórios trimestrais;\n" +
		"§ 2º O conselho reunir-se-á mensalmente.\n" +
		"Art. 2º As despesas correrão por conta do orçamento."
	units := s.Segment(text)

	require.Len(t, units, 7)

	// art 1º, § 1º, I, II, a), § 2º, art 2º — in text order
	assert.Equal(t, models.TipoArtigo, units[0].Tipo)
	assert.Equal(t, models.TipoParagrafo, units[1].Tipo)
	assert.Equal(t, models.TipoInciso, units[2].Tipo)
	assert.Equal(t, models.TipoInciso, units[3].Tipo)
	assert.Equal(t, models.TipoAlinea, units[4].Tipo)
	assert.Equal(t, models.TipoParagrafo, units[5].Tipo)
	assert.Equal(t, models.TipoArtigo, units[6].Tipo)

	assert.Nil(t, units[0].Parent)
	require.NotNil(t, units[1].Parent)
	assert.Equal(t, 0, *units[1].Parent) // § 1º under art 1º
	require.NotNil(t, units[2].Parent)
	assert.Equal(t, 1, *units[2].Parent) // inciso I under § 1º
	require.NotNil(t, units[3].Parent)
	assert.Equal(t, 1, *units[3].Parent)
	require.NotNil(t, units[4].Parent)
	assert.Equal(t, 3, *units[4].Parent) // alínea a) under inciso II
	require.NotNil(t, units[5].Parent)
	assert.Equal(t, 0, *units[5].Parent)
	assert.Nil(t, units[6].Parent)

	for i, u := range units {
		assert.Equal(t, i, u.Ordem)
	}
}

func TestSegmentIncisoDirectlyUnderArtigo(t *testing.T) {
	s := NewSegmenter()

	text := "Art. 1º São objetivos do programa:\n" +
		"I - promover a inclusão social;\n" +
		"II - ampliar o acesso aos serviços."
	units := s.Segment(text)

	require.Len(t, units, 3)
	require.NotNil(t, units[1].Parent)
	assert.Equal(t, 0, *units[1].Parent)
	require.NotNil(t, units[2].Parent)
	assert.Equal(t, 0, *units[2].Parent)
}

func TestSegmentParagrafoUnico(t *testing.T) {
	s := NewSegmenter()

	text := "Art. 1º Fica criado o fundo municipal.\n" +
		"Parágrafo único. Os recursos serão aplicados conforme regulamento."
	units := s.Segment(text)

	require.Len(t, units, 2)
	assert.Equal(t, models.TipoParagrafo, units[1].Tipo)
	assert.Equal(t, "único", units[1].Numero)
	require.NotNil(t, units[1].Parent)
	assert.Equal(t, 0, *units[1].Parent)
}

func TestSegmentRomanNumeralAfterDateNotInciso(t *testing.T) {
	s := NewSegmenter()

	// A roman numeral at line start right after a year is a date artifact,
	// not an inciso.
	withDate := "Art. 1º Esta lei entra em vigor em 2020\nX da data de sua publicação."
	units := s.Segment(withDate)
	require.Len(t, units, 1)
	assert.Equal(t, models.TipoArtigo, units[0].Tipo)

	withoutDate := "Art. 1º São deveres do servidor, entre outros\nX - manter conduta compatível."
	units = s.Segment(withoutDate)
	require.Len(t, units, 2)
	assert.Equal(t, models.TipoInciso, units[1].Tipo)
	assert.Equal(t, "X", units[1].Numero)
}

func TestSegmentItem(t *testing.T) {
	s := NewSegmenter()

	text := "Art. 1º A tabela de taxas fica assim fixada:\n" +
		"1. expedição de alvará;\n" +
		"2. renovação anual."
	units := s.Segment(text)

	require.Len(t, units, 3)
	assert.Equal(t, models.TipoItem, units[1].Tipo)
	assert.Equal(t, "1", units[1].Numero)
	assert.Equal(t, models.TipoItem, units[2].Tipo)
	assert.Equal(t, "2", units[2].Numero)
}

func TestSegmentBodyNormalization(t *testing.T) {
	s := NewSegmenter()

	text := "Art. 1º   O   poder executivo  regulamentará\nesta lei no prazo de\n\n\n\nnoventa dias.\n\nArt. 2º Revogam-se as disposições em contrário."
	units := s.Segment(text)

	require.Len(t, units, 2)
	assert.Equal(t, "O poder executivo regulamentará\nesta lei no prazo de\n\nnoventa dias.", units[0].Texto)
}

func TestSegmentArticleSuffix(t *testing.T) {
	s := NewSegmenter()

	text := "Art. 5º-A Fica acrescentado o seguinte dispositivo."
	units := s.Segment(text)

	require.Len(t, units, 1)
	assert.Equal(t, "5º-A", units[0].Numero)
}

func TestFindDivisions(t *testing.T) {
	s := NewSegmenter()

	text := "TÍTULO I - DISPOSIÇÕES GERAIS\n" +
		"CAPÍTULO I - DO OBJETO\n" +
		"Art. 1º Esta lei dispõe sobre o plano diretor.\n" +
		"CAPÍTULO II - DAS DEFINIÇÕES\n" +
		"Art. 2º Para os fins desta lei considera-se zona urbana a área definida em mapa."
	divisions := s.FindDivisions(text)

	require.Len(t, divisions, 3)
	assert.Equal(t, models.TipoTitulo, divisions[0].Tipo)
	assert.Equal(t, "I", divisions[0].Numero)
	assert.Equal(t, models.TipoCapitulo, divisions[1].Tipo)
	assert.Equal(t, models.TipoCapitulo, divisions[2].Tipo)
	assert.Equal(t, "II", divisions[2].Numero)
	assert.True(t, divisions[0].Start < divisions[1].Start)
	assert.True(t, divisions[1].Start < divisions[2].Start)
}
