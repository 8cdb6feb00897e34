package main

import (
	"expvar"
	"log"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mostrador/internal/catalog"
	"mostrador/internal/compose"
	"mostrador/internal/media"
	"mostrador/internal/ratelimiter"
	"mostrador/internal/upstream"
)

var version = "0.3.0"

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	core := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), zapcore.InfoLevel)

	return zap.New(core).Sugar(), nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("invalid %s=%q, defaulting to %d", key, v, fallback)
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid %s=%q, defaulting to %s", key, v, fallback)
	}
	return fallback
}

func loadRateLimiterConfig() ratelimiter.Config {
	enabled := false
	if v, ok := os.LookupEnv("RATE_LIMITER_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			enabled = b
		}
	}
	return ratelimiter.Config{
		RequestsPerTimeFrame: envInt("RATELIMITER_REQUESTS_COUNT", 200),
		TimeFrame:            5 * time.Second,
		Enabled:              enabled,
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg := config{
		addr:        envString("ADDR", ":8080"),
		env:         envString("ENV", "development"),
		frontendURL: envString("FRONTEND_URL", "http://localhost:3000"),
		upstream: upstreamConfig{
			baseURL: os.Getenv("UPSTREAM_API_URL"),
			timeout: envDuration("UPSTREAM_TIMEOUT", 30*time.Second),
		},
		media: mediaConfig{
			stagingDir:   envString("MEDIA_STAGING_DIR", os.TempDir()+"/mostrador-media"),
			maxPerColor:  envInt("MEDIA_MAX_PER_COLOR", 5),
			maxFileBytes: int64(envInt("MEDIA_MAX_FILE_MB", 5)) * 1024 * 1024,
		},
		session: sessionConfig{
			ttl:        envDuration("SESSION_TTL", 2*time.Hour),
			codeSecret: envString("SESSION_CODE_SECRET", "mostrador"),
		},
		rateLimiter: loadRateLimiterConfig(),
	}
	if cfg.upstream.baseURL == "" {
		log.Fatal("UPSTREAM_API_URL is required")
	}

	logger, err := NewLogger()
	if err != nil {
		log.Fatalf("error creating logger: %v", err)
	}
	defer logger.Sync()

	handleStore, err := media.NewDiskStore(cfg.media.stagingDir)
	if err != nil {
		logger.Fatal(err)
	}
	logger.Infow("media staging ready", "dir", cfg.media.stagingDir)

	codes, err := compose.NewCodeGenerator(cfg.session.codeSecret)
	if err != nil {
		logger.Fatal(err)
	}

	cache := catalog.NewCache()
	sessions := compose.NewRegistry(codes, cache, handleStore, compose.RegistryConfig{
		TTL:          cfg.session.ttl,
		MaxPerColor:  cfg.media.maxPerColor,
		MaxFileBytes: cfg.media.maxFileBytes,
	})

	client := upstream.NewClient(cfg.upstream.baseURL, cfg.upstream.timeout, logger)

	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)

	app := &application{
		config:      cfg,
		logger:      logger,
		upstream:    client,
		cache:       cache,
		sessions:    sessions,
		saver:       compose.NewOrchestrator(client, logger),
		latest:      upstream.NewLatest(),
		rateLimiter: rateLimiter,
	}

	expvar.NewString("version").Set(version)
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))
	expvar.Publish("sessions", expvar.Func(func() any {
		return sessions.Len()
	}))

	mux := app.mount()
	logger.Fatal(app.run(mux))
}
