package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"outfitgen/internal/http/handlers"
	httpapi "outfitgen/internal/http/httpapi"
	"outfitgen/internal/infra"
	"outfitgen/internal/outfit"
	"outfitgen/internal/providers/huggingface"
	"outfitgen/internal/providers/image"
	"outfitgen/internal/providers/text"
	"outfitgen/internal/retry"
	"outfitgen/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	textGen, err := text.NewGeminiGenerator(ctx, text.GeminiOptions{
		APIKey:  cfg.GoogleAPIKey,
		Timeout: cfg.TextTimeout,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create text generator")
	}

	hf, err := huggingface.NewClient(huggingface.Options{
		Token:          cfg.HuggingFaceToken,
		BaseURL:        cfg.HuggingFaceBaseURL,
		RequestTimeout: cfg.ImageTimeout,
		Logger:         &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create huggingface client")
	}
	retrier := retry.New(retry.Options{
		Policy: retry.Policy{Attempts: cfg.ImageRetries, Delay: cfg.ImageRetryDelay},
		Logger: &logger,
	})
	images := image.NewRetryingGenerator(hf, retrier, image.RetryingOptions{
		Model:          cfg.ImageModel,
		NegativePrompt: image.DefaultNegativePrompt,
	})

	store, err := storage.NewFileStore(cfg.ImageDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.ImageDir).Msg("failed to prepare image directory")
	}

	svc, err := outfit.NewService(outfit.Options{
		Text:      textGen,
		TextModel: cfg.TextModel,
		Images:    images,
		Store:     store,
		Naming:    storage.NamingFor(cfg.ImageNaming),
		BaseURL:   cfg.PublicBaseURL,
		Logger:    &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to wire outfit service")
	}

	app := handlers.NewApp(svc, store, logger)
	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("text_model", cfg.TextModel).
			Str("image_model", images.Model()).
			Str("image_dir", store.BasePath()).
			Dur("write_timeout", cfg.HTTPWriteTimeout).
			Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	// In-flight generations may sit in the retry loop; give them the write timeout,
	// which covers a full generation.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPWriteTimeout+5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
