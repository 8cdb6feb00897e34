package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mostrador/internal/catalog"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, zap.NewNop().Sugar())
}

func TestListCatalogRoutesSearches(t *testing.T) {
	var gotPath, gotQuery string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		json.NewEncoder(w).Encode(Page{
			Content:       []catalog.Entity{{ID: 1, Name: "Rojo"}},
			TotalPages:    1,
			TotalElements: 1,
		})
	})

	page, err := c.ListCatalog(context.Background(), Credentials{}, KindColors, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "/colores", gotPath)
	assert.Len(t, page.Content, 1)

	_, err = c.ListCatalog(context.Background(), Credentials{}, KindColors, "ro", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "/colores/buscar", gotPath)
	assert.Equal(t, "ro", gotQuery)
}

func TestCredentialsAreForwarded(t *testing.T) {
	var gotAuth, gotCookie string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCookie = r.Header.Get("Cookie")
		json.NewEncoder(w).Encode(Page{})
	})

	cred := Credentials{Authorization: "Bearer abc", Cookie: "sid=123"}
	_, err := c.ListCatalog(context.Background(), cred, KindSizes, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "sid=123", gotCookie)
}

func TestUpstreamMessageSurfacedVerbatim(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"message": "el SKU ya existe"})
	})

	_, err := c.CreateProduct(context.Background(), Credentials{}, CreateProductRequest{})
	require.Error(t, err)
	assert.Equal(t, "el SKU ya existe", err.Error())
}

func TestUpstreamFallbackMessage(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.CreateProduct(context.Background(), Credentials{}, CreateProductRequest{})
	require.Error(t, err)
	assert.Equal(t, fallbackMessage, err.Error())
}

func TestAuthStatusesMapToGenericError(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		_, err := c.ListCatalog(context.Background(), Credentials{}, KindBranches, "", 1, 10)
		assert.ErrorIs(t, err, ErrUnauthorized)
	}
}

func TestLatestSupersedesInFlightRequest(t *testing.T) {
	l := NewLatest()

	ctx1, tok1 := l.Begin(context.Background(), "colores")
	ctx2, tok2 := l.Begin(context.Background(), "colores")

	assert.Error(t, ctx1.Err(), "older request gets cancelled")
	assert.NoError(t, ctx2.Err())
	assert.False(t, l.Current("colores", tok1))
	assert.True(t, l.Current("colores", tok2))

	// keys do not interfere
	_, tok3 := l.Begin(context.Background(), "tallas")
	assert.True(t, l.Current("tallas", tok3))
	assert.True(t, l.Current("colores", tok2))

	l.End("colores", tok2)
	assert.False(t, l.Current("colores", tok2), "settled keys are retired")

	// a superseded request cannot retire the key out from under the newest
	_, tok4 := l.Begin(context.Background(), "colores")
	_, tok5 := l.Begin(context.Background(), "colores")
	l.End("colores", tok4)
	assert.True(t, l.Current("colores", tok5))
}
