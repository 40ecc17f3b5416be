// Package ledgerops exposes ledger upload/merge and ledger status over HTTP.
// It is a thin adapter: all policy lives in the ledger service.
package ledgerops

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/graos-sa/salescore/internal/encoding"
	"github.com/graos-sa/salescore/internal/ledger"
)

type Handler struct {
	svc *ledger.Service
}

func NewHandler(svc *ledger.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/{sector}/merge", h.merge)
	r.Get("/{sector}", h.info)
}

type mergeResponse struct {
	Added    int    `json:"added"`
	Total    int    `json:"total"`
	FileName string `json:"file_name"`
	Renamed  bool   `json:"renamed"`
}

type infoResponse struct {
	FileName     string     `json:"file_name"`
	Transactions int        `json:"transactions"`
	MaxDate      *time.Time `json:"max_date,omitempty"`
}

func (h *Handler) merge(w http.ResponseWriter, r *http.Request) {
	sector, err := ledger.ParseSector(chi.URLParam(r, "sector"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	outcome, err := h.svc.MergeUpload(sector, file)
	if err != nil {
		// Ledger corruption is reported verbatim, never downgraded to an
		// empty result.
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusCreated, mergeResponse{
		Added:    outcome.Added,
		Total:    outcome.Total,
		FileName: outcome.FileName,
		Renamed:  outcome.Renamed,
	})
}

func (h *Handler) info(w http.ResponseWriter, r *http.Request) {
	sector, err := ledger.ParseSector(chi.URLParam(r, "sector"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap, err := h.svc.Load(sector)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	resp := infoResponse{
		FileName:     filepath.Base(snap.Path),
		Transactions: len(snap.Table.Transactions),
	}

	if max, ok := snap.Table.MaxDate(); ok {
		resp.MaxDate = &max
	}

	writeJSON(w, http.StatusOK, resp)
}

// statusFor maps ledger failure modes onto HTTP statuses: bad input data is
// the caller's problem, everything else is ours.
func statusFor(err error) int {
	var malformed *ledger.MalformedLedgerError

	var schema *ledger.IncompatibleSchemaError

	switch {
	case errors.Is(err, ledger.ErrNoLedger):
		return http.StatusNotFound
	case errors.Is(err, encoding.ErrExhausted),
		errors.As(err, &malformed),
		errors.As(err, &schema):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
