package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"outfitgen/internal/domain"
	"outfitgen/internal/middleware"
	"outfitgen/internal/outfit"
)

const maxStyleRequestBytes = 1 << 20

// flexString accepts JSON strings as well as numbers and booleans, so
// {"age": 27} is read as "27".
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*s = flexString(n.String())
		return nil
	}
	if b, err := strconv.ParseBool(string(data)); err == nil {
		*s = flexString(strconv.FormatBool(b))
		return nil
	}
	return fmt.Errorf("expected a string, got %s", data)
}

type styleRequestBody struct {
	StyleIdea   flexString `json:"style_idea"`
	Gender      flexString `json:"gender"`
	Ethnicity   flexString `json:"ethnicity"`
	Age         flexString `json:"age"`
	SkinColor   flexString `json:"skin_color"`
	Season      flexString `json:"season"`
	Accessories flexString `json:"accessories"`
	Occasion    flexString `json:"occasion"`
}

func (b styleRequestBody) toDomain() domain.StyleRequest {
	return domain.StyleRequest{
		StyleIdea:   string(b.StyleIdea),
		Gender:      string(b.Gender),
		Ethnicity:   string(b.Ethnicity),
		Age:         string(b.Age),
		SkinColor:   string(b.SkinColor),
		Season:      string(b.Season),
		Accessories: string(b.Accessories),
		Occasion:    string(b.Occasion),
	}
}

// GenerateOutfit describes and renders an outfit for the posted style
// attributes. Pipeline failures of any kind map to 500.
func (a *App) GenerateOutfit(w http.ResponseWriter, r *http.Request) {
	var body styleRequestBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxStyleRequestBytes))
	if err := dec.Decode(&body); err != nil {
		var (
			syntaxErr *json.SyntaxError
			sizeErr   *http.MaxBytesError
		)
		switch {
		case errors.As(err, &sizeErr):
			a.error(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			a.error(w, http.StatusBadRequest, "invalid JSON body")
		default:
			a.error(w, http.StatusUnprocessableEntity, "invalid request body: "+err.Error())
		}
		return
	}
	req := body.toDomain()
	if err := req.Validate(); err != nil {
		a.error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	rid := middleware.RequestIDFromContext(r.Context())
	ctx := outfit.WithRequestID(r.Context(), rid)
	result, err := a.Outfits.Generate(ctx, req)
	if err != nil {
		stage, _ := outfit.FailedStage(err)
		a.Logger.Error().Err(err).Str("request_id", rid).Str("failed_at", string(stage)).Msg("error in /generate-outfit/")
		a.error(w, http.StatusInternalServerError, "Internal Server Error: "+err.Error())
		return
	}
	a.json(w, http.StatusOK, result)
}
