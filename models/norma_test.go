package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestNormaString(t *testing.T) {
	n := &Norma{Tipo: "Lei", Numero: "123", Ano: 2020}
	assert.Equal(t, "Lei 123/2020", n.String())

	n = &Norma{Tipo: "Lei Complementar", Numero: "42", Ano: 2015}
	assert.Equal(t, "Lei Complementar 42/2015", n.String())
}

func TestInVacatioLegis(t *testing.T) {
	n := &Norma{
		DataPublicacao: date(2020, 6, 1),
		DataVigencia:   date(2020, 9, 1),
	}

	assert.False(t, n.InVacatioLegis(time.Date(2020, 5, 31, 12, 0, 0, 0, time.UTC)), "before publication")
	assert.True(t, n.InVacatioLegis(time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)), "publication day")
	assert.True(t, n.InVacatioLegis(time.Date(2020, 8, 31, 23, 0, 0, 0, time.UTC)), "day before vigência")
	assert.False(t, n.InVacatioLegis(time.Date(2020, 9, 1, 0, 0, 0, 0, time.UTC)), "vigência day")
	assert.False(t, n.InVacatioLegis(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestInVacatioLegisMissingDates(t *testing.T) {
	assert.False(t, (&Norma{}).InVacatioLegis(time.Now()))
	assert.False(t, (&Norma{DataPublicacao: date(2020, 6, 1)}).InVacatioLegis(time.Now()))
	assert.False(t, (&Norma{DataVigencia: date(2030, 6, 1)}).InVacatioLegis(time.Now()))
}

func TestDispositivoLabel(t *testing.T) {
	tests := []struct {
		tipo   TipoDispositivo
		numero string
		want   string
	}{
		{TipoArtigo, "1º", "Art. 1º"},
		{TipoArtigo, "5º-A", "Art. 5º-A"},
		{TipoParagrafo, "2º", "§ 2º"},
		{TipoParagrafo, "único", "Parágrafo único."},
		{TipoInciso, "I", "I -"},
		{TipoAlinea, "a", "a)"},
		{TipoItem, "1", "1."},
		{TipoCapitulo, "II", "CAPITULO II"},
	}

	for _, tt := range tests {
		d := &Dispositivo{Tipo: tt.tipo, Numero: tt.numero}
		assert.Equal(t, tt.want, d.Label(), "%s %s", tt.tipo, tt.numero)
	}
}

func TestSAPLMetadataScan(t *testing.T) {
	var m SAPLMetadata
	assert.NoError(t, m.Scan([]byte(`{"numero":"123"}`)))
	assert.Equal(t, "123", m["numero"])

	var empty SAPLMetadata
	assert.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
