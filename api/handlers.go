package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aguxez/keecal/agent"
	"github.com/aguxez/keecal/ledger"
	"github.com/aguxez/keecal/models"
	"github.com/aguxez/keecal/tracker"
)

const maxImageBytes = 10 << 20

// Service is the subset of tracker.Tracker the handlers depend on.
type Service interface {
	Analyze(ctx context.Context, photo agent.Photo) (models.FoodEntry, error)
	AnalyzeAndCommit(ctx context.Context, photo agent.Photo) (models.FoodEntry, error)
	Commit(ctx context.Context, entry models.FoodEntry) error
	Today() tracker.Summary
	History() []models.DailyAggregate
	ExportCSV(w io.Writer) error
	Profile() (models.UserProfile, bool)
	SetupProfile(ctx context.Context, p models.UserProfile, limitOverride int) (models.UserProfile, error)
	Trainer() (models.Trainer, bool)
	SaveTrainer(ctx context.Context, t models.Trainer) error
	Reset(ctx context.Context) error
}

type Handlers struct {
	svc Service
	log zerolog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type profileResponse struct {
	Profile    models.UserProfile `json:"profile"`
	Configured bool               `json:"configured"`
}

type profileRequest struct {
	models.UserProfile
	DailyLimitOverride int `json:"dailyLimitOverride"`
}

type trainerResponse struct {
	Trainer    models.Trainer `json:"trainer"`
	Configured bool           `json:"configured"`
}

// HandleAnalyze accepts a multipart "image" field or a raw image body. With
// ?commit=true the entry is appended right away.
func (h *Handlers) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	photo, err := readPhoto(w, r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "bad_request"})
		return
	}

	commit, _ := strconv.ParseBool(r.URL.Query().Get("commit"))

	var entry models.FoodEntry
	if commit {
		entry, err = h.svc.AnalyzeAndCommit(r.Context(), photo)
	} else {
		entry, err = h.svc.Analyze(r.Context(), photo)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if commit {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, entry)
}

func (h *Handlers) HandleCommit(w http.ResponseWriter, r *http.Request) {
	var entry models.FoodEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid entry body", Code: "bad_request"})
		return
	}
	if err := h.svc.Commit(r.Context(), entry); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, entry)
}

func (h *Handlers) HandleToday(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Today())
}

func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.History())
}

func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="keecal-history.csv"`)
	if err := h.svc.ExportCSV(w); err != nil {
		h.log.Error().Stack().Err(err).Msg("csv export failed")
	}
}

func (h *Handlers) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, configured := h.svc.Profile()
	h.writeJSON(w, http.StatusOK, profileResponse{Profile: p, Configured: configured})
}

func (h *Handlers) HandlePutProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid profile body", Code: "bad_request"})
		return
	}
	saved, err := h.svc.SetupProfile(r.Context(), req.UserProfile, req.DailyLimitOverride)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, profileResponse{Profile: saved, Configured: true})
}

func (h *Handlers) HandleGetTrainer(w http.ResponseWriter, r *http.Request) {
	t, configured := h.svc.Trainer()
	h.writeJSON(w, http.StatusOK, trainerResponse{Trainer: t, Configured: configured})
}

func (h *Handlers) HandlePutTrainer(w http.ResponseWriter, r *http.Request) {
	var t models.Trainer
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid trainer body", Code: "bad_request"})
		return
	}
	if err := h.svc.SaveTrainer(r.Context(), t); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, trainerResponse{Trainer: t, Configured: true})
}

func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reset(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func readPhoto(w http.ResponseWriter, r *http.Request) (agent.Photo, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("image")
		if err != nil {
			return agent.Photo{}, fmt.Errorf("reading image field: %w", err)
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return agent.Photo{}, fmt.Errorf("reading image: %w", err)
		}
		return agent.Photo{
			Data:      data,
			MIMEType:  imageMIMEType(header.Header.Get("Content-Type")),
			Reference: r.FormValue("reference"),
		}, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return agent.Photo{}, fmt.Errorf("reading image: %w", err)
	}
	return agent.Photo{
		Data:      data,
		MIMEType:  imageMIMEType(r.Header.Get("Content-Type")),
		Reference: r.URL.Query().Get("reference"),
	}, nil
}

// imageMIMEType drops non-image types so the gateway sniffs the bytes instead.
func imageMIMEType(contentType string) string {
	if strings.HasPrefix(contentType, "image/") {
		return contentType
	}
	return ""
}

// statusFor maps core errors onto HTTP statuses.
func statusFor(err error) (int, string) {
	var verr models.ValidationError
	switch {
	case errors.Is(err, agent.ErrBusy):
		return http.StatusTooManyRequests, "busy"
	case errors.Is(err, agent.ErrProviderFailure):
		return http.StatusBadGateway, "provider_failure"
	case errors.Is(err, agent.ErrInvalidResponse):
		return http.StatusUnprocessableEntity, "invalid_response"
	case errors.Is(err, agent.ErrEmptyImage), errors.Is(err, ledger.ErrInvalidEntry), errors.As(err, &verr):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ledger.ErrDuplicateID):
		return http.StatusConflict, "duplicate_id"
	case errors.Is(err, ledger.ErrPersistence):
		return http.StatusServiceUnavailable, "persistence_failure"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, "cancelled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)

	ev := h.log.Warn()
	if status >= http.StatusInternalServerError {
		ev = h.log.Error().Stack()
	}
	ev.Err(err).Str("path", r.URL.Path).Str("code", code).Msg("request failed")

	h.writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("encoding response")
	}
}
