package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"mostrador/internal/params"
	"mostrador/internal/upstream"
)

// catalogHandler proxies the paginated catalog list/search endpoints and
// folds every fetched color/size into the entity cache, so labels of
// selected entities survive later pagination.
//
// Requests are superseded latest-wins per (session, kind): a newer search
// cancels the in-flight one, and a stale response that still completes is
// discarded instead of being applied.
func (app *application) catalogHandler(w http.ResponseWriter, r *http.Request) {
	kind, err := upstream.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	q := r.URL.Query()
	pg := params.Parse(q)
	search := strings.TrimSpace(q.Get("q"))

	key := supersessionKey(r, kind)
	ctx, token := app.latest.Begin(r.Context(), key)
	defer app.latest.End(key, token)

	page, err := app.upstream.ListCatalog(ctx, credentialsFrom(r), kind, search, pg.Page, pg.Limit)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// superseded by a newer search; the caller ignores this response
			w.WriteHeader(http.StatusNoContent)
			return
		}
		app.upstreamErrorResponse(w, r, err)
		return
	}
	if !app.latest.Current(key, token) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	switch kind {
	case upstream.KindColors:
		app.cache.MergeColors(page.Content)
	case upstream.KindSizes:
		app.cache.MergeSizes(page.Content)
	}

	app.jsonResponse(w, http.StatusOK, page)
}

// supersessionKey scopes latest-wins cancellation to a single caller: the
// composition code when the UI sends one, otherwise the caller's address.
// Unrelated clients searching the same catalog never cancel each other.
func supersessionKey(r *http.Request, kind upstream.Kind) string {
	scope := strings.TrimSpace(r.URL.Query().Get("sesion"))
	if scope == "" {
		scope = r.RemoteAddr
	}
	return scope + ":" + string(kind)
}
