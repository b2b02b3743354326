package sapl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listPage(t *testing.T, w http.ResponseWriter, ids ...int) {
	t.Helper()
	results := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		results = append(results, map[string]interface{}{
			"id":     id,
			"numero": strconv.Itoa(id),
			"ano":    2020,
		})
	}
	require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
		"count":   len(ids),
		"results": results,
	}))
}

func TestFetchNormas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/norma/normajuridica/", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "20", r.URL.Query().Get("offset"))
		assert.Equal(t, "1", r.URL.Query().Get("tipo"))
		assert.Equal(t, "2020", r.URL.Query().Get("ano"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		listPage(t, w, 7, 8)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	normas, err := client.FetchNormas(context.Background(), 10, 20, "1", 2020)

	require.NoError(t, err)
	require.Len(t, normas, 2)
	assert.Equal(t, 7, normas[0].ID())
	assert.Equal(t, 8, normas[1].ID())
}

func TestFetchNormasOmitsEmptyFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasTipo := r.URL.Query()["tipo"]
		_, hasAno := r.URL.Query()["ano"]
		assert.False(t, hasTipo)
		assert.False(t, hasAno)
		listPage(t, w)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	normas, err := client.FetchNormas(context.Background(), 10, 0, "", 0)

	require.NoError(t, err)
	assert.Empty(t, normas)
}

func TestFetchNormaByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/norma/normajuridica/42/", r.URL.Path)
		fmt.Fprint(w, `{"id": 42, "numero": "123", "ementa": "Dispõe sobre o IPTU."}`)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	payload, err := client.FetchNormaByID(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, 42, payload.ID())
	assert.Equal(t, "Dispõe sobre o IPTU.", payload["ementa"])
}

func TestGetRetriesOnServerError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		listPage(t, w, 1)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	normas, err := client.FetchNormas(context.Background(), 10, 0, "", 0)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	require.Len(t, normas, 1)
}

func TestGetFailsFastOnNotFound(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.FetchNormaByID(context.Background(), 99)

	require.Error(t, err)
	assert.Equal(t, 1, attempts, "4xx other than 429 must not retry")
}

func TestFetchAllNormasStopsOnEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		switch offset {
		case 0:
			listPage(t, w, 1, 2)
		case 2:
			listPage(t, w, 3)
		default:
			listPage(t, w)
		}
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	normas, err := client.FetchAllNormas(context.Background(), 0, "", 0, 2)

	require.NoError(t, err)
	require.Len(t, normas, 3)
	assert.Equal(t, 1, normas[0].ID())
	assert.Equal(t, 3, normas[2].ID())
}

func TestFetchAllNormasRespectsMax(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		listPage(t, w, 1, 2, 3, 4)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	normas, err := client.FetchAllNormas(context.Background(), 3, "", 0, 4)

	require.NoError(t, err)
	assert.Len(t, normas, 3)
}

func TestFetchAllNormasReturnsPartialOnPageFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if offset == 0 {
			listPage(t, w, 1, 2)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	normas, err := client.FetchAllNormas(context.Background(), 0, "", 0, 2)

	require.NoError(t, err)
	assert.Len(t, normas, 2)
}

func TestDownloadPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4 conteudo")
	}))
	defer srv.Close()

	client := NewClient()
	var buf bytes.Buffer
	err := client.DownloadPDF(context.Background(), srv.URL+"/documento.pdf", &buf)

	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 conteudo", buf.String())
}

func TestDownloadPDFNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient()
	var buf bytes.Buffer
	err := client.DownloadPDF(context.Background(), srv.URL+"/x.pdf", &buf)

	require.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestUserAgentRotation(t *testing.T) {
	client := NewClient()

	first := client.nextUserAgent()
	second := client.nextUserAgent()
	third := client.nextUserAgent()
	fourth := client.nextUserAgent()

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, second, third)
	assert.Equal(t, first, fourth)
}
