package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/kdimtricp/cinereco/internal/dataset"
	"github.com/kdimtricp/cinereco/internal/logging"
	"github.com/kdimtricp/cinereco/internal/recommend"
	"github.com/kdimtricp/cinereco/internal/search"
)

const maxBodySize = 1 << 20

type App struct {
	Engine   *recommend.Engine
	Search   *search.SearchService
	Snapshot *dataset.Snapshot
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func (app *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]any{
		"status":      "ok",
		"movies":      app.Snapshot.Len(),
		"fingerprint": app.Snapshot.Fingerprint,
		"built_at":    app.Snapshot.BuiltAt.UTC().Format(time.RFC3339),
	})
}

func (app *App) SearchHandler(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, r, http.StatusBadRequest, validationMessage(err), nil)
		return
	}

	res, err := app.Search.Search(r.Context(), req.Query)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			respondError(w, r, http.StatusBadRequest, "query is required", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "search failed", err)
		return
	}

	respondJSON(w, r, http.StatusOK, res)
}

func (app *App) RecommendHandler(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	id, err := req.MovieID()
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	bundle, err := app.Engine.Recommend(r.Context(), id)
	if err != nil {
		var nf *recommend.NotFoundError
		if errors.As(err, &nf) {
			respondError(w, r, http.StatusNotFound, nf.Error(), nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError,
			fmt.Sprintf("could not compute recommendations for movie %d", id), err)
		return
	}

	respondJSON(w, r, http.StatusOK, NewBundleView(bundle))
}

func (app *App) MovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseMovieID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	entry, ok := app.Snapshot.Entry(id)
	if !ok {
		respondError(w, r, http.StatusNotFound, (&recommend.NotFoundError{ID: id}).Error(), nil)
		return
	}

	respondJSON(w, r, http.StatusOK, newMovieDetail(entry))
}

// decodeBody reads a JSON body into dst. An empty body leaves dst untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("request body too large")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to write JSON response")
	}
}

// respondError writes {"error": message}. err, when set, is logged and never
// sent to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg(message)
	}
	respondJSON(w, r, status, map[string]string{"error": message})
}
