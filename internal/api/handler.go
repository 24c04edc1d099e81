package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"SendWave/internal/contacts"
	"SendWave/internal/csvparser"
	"SendWave/internal/db"
	"SendWave/internal/models"
)

// Dispatcher runs one campaign to completion. Satisfied by
// dispatch.Coordinator.
type Dispatcher interface {
	Dispatch(ctx context.Context, campaign models.Campaign) (*models.DispatchReport, error)
}

type Handler struct {
	Dispatcher Dispatcher
	Store      *db.Store // optional report history
	Log        *zap.Logger

	// MaxBatchSize bounds normalization output; mirrors the dispatch
	// policy so the operator sees truncation before sending.
	MaxBatchSize int

	// MaxUploadRows bounds how many CSV data rows an import keeps.
	MaxUploadRows int
}

// Routes wires the HTTP surface. CORS is wide open: the upload/mapping UI
// is served from a different origin.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Post("/api/send-bulk", h.SendBulk)
	r.Post("/api/contacts/import", h.ImportContacts)
	r.Post("/api/contacts/normalize", h.NormalizeContacts)
	r.Get("/healthz", h.Health)

	return r
}

// SendBulk accepts {subject, htmlTemplate, users[]} and returns the
// dispatch report. Requests failing validation are rejected with 400 before
// any provider call; a valid request always gets a complete report.
func (h *Handler) SendBulk(w http.ResponseWriter, r *http.Request) {
	var campaign models.Campaign

	if err := json.NewDecoder(r.Body).Decode(&campaign); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}

	// client disconnect cancels the dispatch
	report, err := h.Dispatcher.Dispatch(r.Context(), campaign)
	if err != nil {
		if models.IsConfigError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Log.Error("dispatch failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "dispatch failed")
		return
	}

	if h.Store != nil {
		// request context may already be cancelled; history is best-effort
		if _, err := h.Store.InsertReport(context.WithoutCancel(r.Context()), campaign.Subject, report); err != nil {
			h.Log.Error("failed to record campaign report", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, report)
}

type importResponse struct {
	Columns          []string            `json:"columns"`
	SuggestedMapping models.FieldMapping `json:"suggestedMapping"`
	Rows             []map[string]string `json:"rows"`
	Truncated        bool                `json:"truncated"`
}

// ImportContacts accepts a multipart CSV upload and returns its columns, a
// suggested field mapping, and the parsed rows for the mapping step. Rows
// beyond MaxUploadRows are dropped and reported via the truncated flag.
func (h *Handler) ImportContacts(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "csv file upload required")
		return
	}
	defer file.Close()

	columns, rows, truncated, err := csvparser.ParseRows(file, h.MaxUploadRows)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, importResponse{
		Columns:          columns,
		SuggestedMapping: contacts.AutoMap(columns),
		Rows:             rows,
		Truncated:        truncated,
	})
}

type normalizeRequest struct {
	Rows    []map[string]string `json:"rows"`
	Mapping models.FieldMapping `json:"mapping"`
}

type normalizeResponse struct {
	Contacts  []models.Contact `json:"contacts"`
	Truncated bool             `json:"truncated"`
}

// NormalizeContacts maps raw rows onto the contact schema with the given
// mapping, dropping rows without a resolvable email.
func (h *Handler) NormalizeContacts(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}

	list, truncated, err := contacts.Normalize(req.Rows, req.Mapping, h.MaxBatchSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, normalizeResponse{Contacts: list, Truncated: truncated})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
