package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"outfitgen/internal/domain"
)

// GeneratedImage streams a stored image. The content type follows the file
// extension.
func (a *App) GeneratedImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	f, info, err := a.Images.Open(filename)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "Image not found")
			return
		}
		a.Logger.Error().Err(err).Str("filename", filename).Msg("open generated image")
		a.error(w, http.StatusInternalServerError, "Internal Server Error: "+err.Error())
		return
	}
	defer f.Close()
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
