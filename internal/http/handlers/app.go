package handlers

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"os"

	"outfitgen/internal/domain"
	"outfitgen/internal/infra"
)

type outfitGenerator interface {
	Generate(ctx context.Context, req domain.StyleRequest) (*domain.OutfitResult, error)
}

type imageOpener interface {
	Open(key string) (*os.File, fs.FileInfo, error)
}

// App holds the dependencies shared by the HTTP handlers.
type App struct {
	Outfits outfitGenerator
	Images  imageOpener
	Logger  infra.Logger
}

func NewApp(outfits outfitGenerator, images imageOpener, logger infra.Logger) *App {
	return &App{Outfits: outfits, Images: images, Logger: logger}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		a.Logger.Error().Err(err).Msg("encode response")
		code = http.StatusInternalServerError
		body = []byte(`{"detail":"Internal Server Error: encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(append(body, '\n'))
}

func (a *App) error(w http.ResponseWriter, code int, detail string) {
	a.json(w, code, errorResponse{Detail: detail})
}
