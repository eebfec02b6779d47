// Package handler exposes the extraction pipeline over HTTP. It only
// translates between the wire and the service; no pipeline logic lives here.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/comptaflow/comptaflow/internal/domain/statement"
	"github.com/comptaflow/comptaflow/internal/domain/statement/exporter"
	"github.com/comptaflow/comptaflow/internal/domain/statement/signature"
	"github.com/comptaflow/comptaflow/pkg/money"
)

// maxUploadBytes caps uploaded statement size. Real relevés are a few
// hundred kilobytes; 20 MiB leaves room for heavy scans.
const maxUploadBytes = 20 << 20

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
)

// Pipeline is the service surface the handler consumes.
type Pipeline interface {
	Validate(data []byte) signature.ValidationResult
	Extract(ctx context.Context, data []byte) (*statement.ExtractionOutcome, error)
}

// Handler serves the statement endpoints.
type Handler struct {
	pipeline Pipeline
	registry signature.Registry
	logger   *slog.Logger
}

// NewHandler creates a new statement handler.
func NewHandler(pipeline Pipeline, registry signature.Registry, logger *slog.Logger) *Handler {
	return &Handler{
		pipeline: pipeline,
		registry: registry,
		logger:   logger,
	}
}

// Register mounts the statement routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/validate", h.ValidateStatement)
	mux.HandleFunc("POST /v1/extract", h.ExtractStatement)
	mux.HandleFunc("GET /v1/banks", h.ListBanks)
	mux.HandleFunc("GET /healthz", h.Health)
}

type validateResponse struct {
	Compatible     bool              `json:"compatible"`
	Bank           string            `json:"bank,omitempty"`
	Layout         string            `json:"layout,omitempty"`
	ErrorKind      string            `json:"error_kind,omitempty"`
	Message        string            `json:"message"`
	SupportedBanks map[string]string `json:"supported_banks"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Bank    string `json:"bank,omitempty"`
	Message string `json:"message"`
}

type bankInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ValidateStatement answers whether an uploaded document is a supported
// native statement, without running any parsing tier.
func (h *Handler) ValidateStatement(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	res := h.pipeline.Validate(data)
	writeJSON(w, http.StatusOK, validateResponse{
		Compatible:     res.Compatible,
		Bank:           res.Bank,
		Layout:         string(res.Layout),
		ErrorKind:      string(res.ErrorKind),
		Message:        res.Message,
		SupportedBanks: res.SupportedBanks,
	})
}

// ExtractStatement runs the full pipeline and streams back the tabular
// artifact. The format query parameter selects csv; the default is xlsx.
func (h *Handler) ExtractStatement(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	out, err := h.pipeline.Extract(r.Context(), data)
	if err != nil {
		h.writeExtractionError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	var artifact []byte
	var contentType, filename string
	switch format {
	case "csv":
		artifact, err = exporter.ToCSV(out.Transactions)
		contentType, filename = contentTypeCSV, "releve.csv"
	default:
		artifact, err = exporter.ToExcel(out.Transactions)
		contentType, filename = contentTypeXLSX, "releve.xlsx"
	}
	if err != nil {
		if errors.Is(err, exporter.ErrNoRows) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
				Error:   string(statement.ErrNoTransactionsFound),
				Bank:    out.Bank,
				Message: "Aucune transaction valide après normalisation.",
			})
			return
		}
		h.logger.Error("failed to render artifact", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   string(statement.ErrUnknown),
			Message: "Erreur interne lors de la génération du fichier.",
		})
		return
	}

	total := decimal.Zero
	for _, tx := range out.Transactions {
		total = total.Add(tx.Amount)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("X-Extraction-Method", string(out.Method))
	w.Header().Set("X-Bank-Code", out.Bank)
	w.Header().Set("X-Total-Amount", money.FormatEUR(total))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact); err != nil {
		h.logger.Warn("failed to write artifact", slog.Any("error", err))
	}
}

// ListBanks returns the supported institutions in registry order.
func (h *Handler) ListBanks(w http.ResponseWriter, r *http.Request) {
	banks := make([]bankInfo, 0, len(h.registry))
	for _, sig := range h.registry {
		banks = append(banks, bankInfo{Code: sig.Code, Name: sig.Description})
	}
	writeJSON(w, http.StatusOK, map[string]any{"banks": banks})
}

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readUpload pulls the statement bytes from a multipart "file" field, or
// from the raw body when the client posts the PDF directly.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err == nil {
		file, _, ferr := r.FormFile("file")
		if ferr != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:   "BAD_REQUEST",
				Message: "Le champ multipart \"file\" est requis.",
			})
			return nil, false
		}
		defer file.Close()
		data, rerr := io.ReadAll(file)
		if rerr != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:   "BAD_REQUEST",
				Message: "Lecture du fichier impossible.",
			})
			return nil, false
		}
		return data, true
	}

	data, err := io.ReadAll(r.Body)
	if err != nil || len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "BAD_REQUEST",
			Message: "Aucun document reçu.",
		})
		return nil, false
	}
	return data, true
}

// writeExtractionError maps pipeline failures to HTTP. Typed failures are
// client-facing 422s; anything else is a 500.
func (h *Handler) writeExtractionError(w http.ResponseWriter, err error) {
	if pe, ok := statement.AsPipelineError(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   string(pe.Kind),
			Bank:    pe.Bank,
			Message: pe.Message,
		})
		return
	}
	h.logger.Error("extraction failed", slog.Any("error", err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   string(statement.ErrUnknown),
		Message: "Erreur interne lors de l'extraction.",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
