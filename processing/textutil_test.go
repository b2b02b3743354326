package processing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Dispõe sobre o IPTU - exercício de 2020",
		CleanText("  Dispõe sobre\no IPTU   – exercício\tde 2020\n"))
	assert.Equal(t, "", CleanText("  \n\t "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "parág", truncate("parágrafo", 5))
	assert.Equal(t, "lei", truncate("lei", 10))
}
