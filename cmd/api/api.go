package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"mostrador/internal/catalog"
	"mostrador/internal/compose"
	"mostrador/internal/ratelimiter"
	"mostrador/internal/upstream"
)

type application struct {
	config      config
	logger      *zap.SugaredLogger
	upstream    *upstream.Client
	cache       *catalog.Cache
	sessions    *compose.Registry
	saver       *compose.Orchestrator
	latest      *upstream.Latest
	rateLimiter ratelimiter.Limiter
}

type config struct {
	addr        string
	env         string
	frontendURL string
	upstream    upstreamConfig
	media       mediaConfig
	session     sessionConfig
	rateLimiter ratelimiter.Config
}

type upstreamConfig struct {
	baseURL string
	timeout time.Duration
}

type mediaConfig struct {
	stagingDir   string
	maxPerColor  int
	maxFileBytes int64
}

type sessionConfig struct {
	ttl        time.Duration
	codeSecret string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{app.config.frontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(app.RateLimiterMiddleware)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Route("/catalogo", func(r chi.Router) {
			r.Use(app.RequireCredentials)
			r.Get("/{kind}", app.catalogHandler)
		})

		r.Route("/composiciones", func(r chi.Router) {
			r.Use(app.RequireCredentials)
			r.Post("/", app.createSessionHandler)

			r.Route("/{code}", func(r chi.Router) {
				r.Use(app.SessionContext)
				r.Get("/", app.getSessionHandler)
				r.Delete("/", app.deleteSessionHandler)

				r.Post("/colores/{colorID}/toggle", app.toggleColorHandler)
				r.Post("/colores/{colorID}/focus", app.focusColorHandler)
				r.Post("/tallas/{tallaID}/toggle", app.toggleSizeHandler)

				r.Get("/variantes", app.listRowsHandler)
				r.Patch("/variantes/{colorID}/{tallaID}", app.setFieldHandler)
				r.Post("/variantes/aplicar", app.applyFieldHandler)
				r.Delete("/variantes/{colorID}/{tallaID}", app.removeRowHandler)

				r.Route("/media", func(r chi.Router) {
					r.Post("/abrir", app.openMediaHandler)
					r.Post("/{colorID}/archivos", app.addMediaFilesHandler)
					r.Post("/candidato/aceptar", app.acceptCandidateHandler)
					r.Post("/candidato/cancelar", app.cancelCandidateHandler)
					r.Delete("/{colorID}/{itemID}", app.removeMediaHandler)
					r.Post("/descartar", app.discardMediaHandler)
					r.Post("/guardar", app.saveMediaHandler)
					r.Get("/preview/{itemID}", app.mediaPreviewHandler)
				})

				r.Post("/guardar", app.saveProductHandler)
			})
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())
		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)
	return nil
}
