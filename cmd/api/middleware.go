package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mostrador/internal/compose"
	"mostrador/internal/upstream"
)

type ctxKey string

const (
	credCtx    ctxKey = "credentials"
	sessionCtx ctxKey = "session"
)

// RequireCredentials extracts the caller's auth material for pass-through.
// The BFF never validates tokens itself; the upstream API is the authority
// and may still reject with 401/403.
func (app *application) RequireCredentials(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cred := upstream.Credentials{
			Authorization: r.Header.Get("Authorization"),
			Cookie:        r.Header.Get("Cookie"),
		}
		if cred.Authorization == "" && cred.Cookie == "" {
			app.unauthorizedErrorResponse(w, r, errors.New("credenciales faltantes"))
			return
		}
		ctx := context.WithValue(r.Context(), credCtx, cred)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func credentialsFrom(r *http.Request) upstream.Credentials {
	cred, _ := r.Context().Value(credCtx).(upstream.Credentials)
	return cred
}

// SessionContext resolves the {code} path param to a live composition
// session, refreshing its idle clock.
func (app *application) SessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		sess, ok := app.sessions.Get(code)
		if !ok {
			app.notFoundResponse(w, r, fmt.Errorf("composición %s no encontrada o expirada", code))
			return
		}
		ctx := context.WithValue(r.Context(), sessionCtx, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *compose.Session {
	sess, _ := r.Context().Value(sessionCtx).(*compose.Session)
	return sess
}

func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.config.rateLimiter.Enabled {
			if allow, retryAfter := app.rateLimiter.Allow(r.RemoteAddr); !allow {
				app.rateLimitExceededResponse(w, r, retryAfter)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
