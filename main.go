package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"spellcheck/internal/game"
	"spellcheck/internal/words"
	"spellcheck/internal/wordsource"
)

func main() {
	_ = godotenv.Load()

	isProduction := os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production"
	setupLogger(isProduction)
	if isProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	logInfo("Starting spellcheck in %s mode", map[bool]string{true: "production", false: "development"}[isProduction])

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := newApp(ctx, loadConfig(), isProduction)
	if err != nil {
		logFatal("Failed to initialise: %v", err)
	}

	app.Buffer.Warm()
	go app.Sessions.RunSweeper(ctx, app.Config.SweepInterval)

	startServer(setupRouter(app), app.Config.Port, func() {
		cancel()
		app.Buffer.Wait()
	})
}

// loadConfig reads every tunable from the environment.
func loadConfig() Config {
	bufDefaults := words.DefaultBufferConfig()
	return Config{
		Port:              getEnvString("PORT", "8080"),
		SessionTimeout:    getEnvDuration("SESSION_TIMEOUT", game.DefaultTimeout),
		SweepInterval:     getEnvDuration("SWEEP_INTERVAL", game.DefaultSweepInterval),
		WordFetchTimeout:  getEnvDuration("WORD_FETCH_TIMEOUT", 3*time.Second),
		MetadataTimeout:   getEnvDuration("METADATA_TIMEOUT", 2*time.Second),
		BufferTarget:      getEnvInt("BUFFER_TARGET", bufDefaults.BatchTarget),
		BufferLowWater:    getEnvInt("BUFFER_LOW_WATER", bufDefaults.LowWater),
		ReplenishAttempts: getEnvInt("REPLENISH_ATTEMPTS", bufDefaults.MaxAttempts),
		ReplenishSample:   getEnvInt("REPLENISH_SAMPLE", bufDefaults.PerQuerySample),
		LeaderboardSize:   getEnvInt("LEADERBOARD_SIZE", game.DefaultLeaderboardSize),
		EasyMinFreq:       getEnvFloat("EASY_MIN_FREQ", bufDefaults.Bands.EasyMin),
		MediumMinFreq:     getEnvFloat("MEDIUM_MIN_FREQ", bufDefaults.Bands.MediumMin),
		AudioURLTemplate:  getEnvString("AUDIO_URL_TEMPLATE", words.DefaultAudioURLTemplate),
		DatamuseURL:       getEnvString("DATAMUSE_URL", wordsource.DefaultDatamuseURL),
		DictionaryURL:     getEnvString("DICTIONARY_URL", wordsource.DefaultDictionaryURL),
		UpstreamRPS:       getEnvFloat("UPSTREAM_RPS", 10),
		UpstreamBurst:     getEnvInt("UPSTREAM_BURST", 20),
	}
}

// newApp wires the word pipeline, session store and leaderboards. ctx bounds
// background replenishment.
func newApp(ctx context.Context, cfg Config, production bool) (*App, error) {
	logger := slog.Default()

	local, err := words.DefaultLocalDictionary()
	if err != nil {
		return nil, err
	}
	logInfo("Loaded %d local dictionary entries", local.Len())

	// Word listing and metadata lookups have separate deadlines but share
	// one upstream throttle setting.
	fetchClient := wordsource.NewClient(cfg.WordFetchTimeout, cfg.UpstreamRPS, cfg.UpstreamBurst)
	metaClient := wordsource.NewClient(cfg.MetadataTimeout, cfg.UpstreamRPS, cfg.UpstreamBurst)

	bufCfg := words.DefaultBufferConfig()
	bufCfg.BatchTarget = cfg.BufferTarget
	bufCfg.LowWater = cfg.BufferLowWater
	bufCfg.MaxAttempts = cfg.ReplenishAttempts
	bufCfg.PerQuerySample = cfg.ReplenishSample
	bufCfg.Bands = words.FrequencyBands{EasyMin: cfg.EasyMinFreq, MediumMin: cfg.MediumMinFreq}

	seen := words.NewSeenSet()
	buffer := words.NewBuffer(ctx, bufCfg, wordsource.NewDatamuse(fetchClient, cfg.DatamuseURL), seen, logger)
	resolver := words.NewResolver(
		wordsource.NewDictionary(metaClient, cfg.DictionaryURL),
		wordsource.NewDatamuse(metaClient, cfg.DatamuseURL),
		logger,
	)

	board := game.NewLeaderboard(cfg.LeaderboardSize)
	return &App{
		Words:        words.NewService(buffer, seen, resolver, local, cfg.AudioURLTemplate, logger),
		Buffer:       buffer,
		Sessions:     game.NewStore(board, cfg.SessionTimeout, logger),
		Board:        board,
		Config:       cfg,
		IsProduction: production,
		StartTime:    time.Now(),
	}, nil
}

func setupRouter(app *App) *gin.Engine {
	router := gin.New()
	router.Use(requestIDMiddleware(), accessLogMiddleware(), recoveryMiddleware(), corsMiddleware())
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}

	noStore := noStoreMiddleware()
	router.GET(RouteRandomWord, noStore, app.randomWordHandler)
	router.GET(RouteResetSession, noStore, app.resetSessionHandler)
	router.GET(RouteLeaderboard, noStore, app.leaderboardHandler)
	router.GET(RouteCheckUsername, noStore, app.checkUsernameHandler)
	router.POST(RouteSessionCreate, noStore, app.createSessionHandler)
	router.POST(RouteSubmitAnswer, noStore, app.submitAnswerHandler)
	router.POST(RouteSessionEnd, noStore, app.endSessionHandler)

	router.GET(RouteHealthz, app.healthzHandler)
	return router
}

// startServer serves until SIGINT/SIGTERM, then drains connections and runs
// onShutdown.
func startServer(router *gin.Engine, port string, onShutdown func()) {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		logInfo("Shutdown signal received, shutting down server gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logWarn("HTTP server Shutdown: %v", err)
		}
		onShutdown()
		close(idleConnsClosed)
	}()

	logInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	logInfo("Server shutdown complete")
}
