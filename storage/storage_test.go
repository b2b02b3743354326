package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormaPDFKey(t *testing.T) {
	assert.Equal(t, "2020/Lei_123_2020.pdf", NormaPDFKey("Lei", "123", 2020))
	assert.Equal(t, "2015/Lei_Complementar_42_2015.pdf", NormaPDFKey("Lei Complementar", "42", 2015))
	assert.Equal(t, "2019/Decreto_100-A_2019.pdf", NormaPDFKey("Decreto", "100/A", 2019))
	assert.Equal(t, "2021/Resoluo_7_2021.pdf", NormaPDFKey("Resolução", "7", 2021))
}

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := NormaPDFKey("Lei", "123", 2020)
	path, err := store.Put(ctx, key, bytes.NewReader([]byte("%PDF-1.4 conteudo")))
	require.NoError(t, err)
	assert.Equal(t, key, path)

	rc, err := store.Get(ctx, path)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 conteudo", string(data))
}

func TestLocalStorageDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	path, err := store.Put(ctx, "2020/Lei_1_2020.pdf", bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, path))

	_, err = store.Get(ctx, path)
	assert.Error(t, err)

	// Deleting an absent document is not an error
	assert.NoError(t, store.Delete(ctx, path))
}

func TestNewStorageUnknownType(t *testing.T) {
	_, err := NewStorage(StorageConfig{Type: "ftp"})
	assert.Error(t, err)
}
