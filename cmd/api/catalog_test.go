package main

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"mostrador/internal/upstream"
)

func TestSupersessionKeyIsScopedPerCaller(t *testing.T) {
	r1 := httptest.NewRequest("GET", "/v1/catalogo/colores?q=ro", nil)
	r1.RemoteAddr = "10.0.0.1:40001"
	r2 := httptest.NewRequest("GET", "/v1/catalogo/colores?q=az", nil)
	r2.RemoteAddr = "10.0.0.2:40002"

	assert.NotEqual(t,
		supersessionKey(r1, upstream.KindColors),
		supersessionKey(r2, upstream.KindColors),
		"unrelated callers must not share a cancellation key")

	r3 := httptest.NewRequest("GET", "/v1/catalogo/colores?sesion=aB3xK9&q=ro", nil)
	r3.RemoteAddr = "10.0.0.1:40001"
	r4 := httptest.NewRequest("GET", "/v1/catalogo/colores?sesion=aB3xK9&q=az", nil)
	r4.RemoteAddr = "10.0.0.2:40002"

	assert.Equal(t,
		supersessionKey(r3, upstream.KindColors),
		supersessionKey(r4, upstream.KindColors),
		"the composition code scopes the key when present")

	assert.NotEqual(t,
		supersessionKey(r3, upstream.KindColors),
		supersessionKey(r3, upstream.KindSizes),
		"each catalog kind supersedes independently")
}
