package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comptaflow/comptaflow/internal/domain/statement"
	"github.com/comptaflow/comptaflow/internal/domain/statement/signature"
)

type fakePipeline struct {
	validation signature.ValidationResult
	outcome    *statement.ExtractionOutcome
	err        error
	gotData    []byte
}

func (f *fakePipeline) Validate(data []byte) signature.ValidationResult {
	f.gotData = data
	return f.validation
}

func (f *fakePipeline) Extract(_ context.Context, data []byte) (*statement.ExtractionOutcome, error) {
	f.gotData = data
	return f.outcome, f.err
}

func newTestHandler(p Pipeline) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(p, signature.DefaultRegistry(), logger)
}

func multipartBody(t *testing.T, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "releve.pdf")
	require.NoError(t, err)
	_, err = fw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func sampleOutcome() *statement.ExtractionOutcome {
	return &statement.ExtractionOutcome{
		Transactions: []statement.Transaction{{
			Date:   time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC),
			Label:  "BOULANGERIE PARIS",
			Amount: decimal.RequireFromString("-12.50"),
		}},
		Method: statement.MethodNativeRegex,
		Bank:   "CA",
	}
}

func TestValidateStatement(t *testing.T) {
	t.Run("returns the pipeline verdict", func(t *testing.T) {
		p := &fakePipeline{validation: signature.ValidationResult{
			Compatible: true,
			Bank:       "CA",
			Layout:     signature.LayoutDotDate,
			Message:    "Relevé Crédit Agricole reconnu.",
		}}
		body, contentType := multipartBody(t, []byte("%PDF-1.4"))
		req := httptest.NewRequest(http.MethodPost, "/v1/validate", body)
		req.Header.Set("Content-Type", contentType)

		rec := serve(newTestHandler(p), req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got validateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.True(t, got.Compatible)
		assert.Equal(t, "CA", got.Bank)
		assert.Equal(t, "DOT_DATE", got.Layout)
		assert.Equal(t, []byte("%PDF-1.4"), p.gotData)
	})

	t.Run("rejects an upload without a file field", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("other", "x"))
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/v1/validate", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		rec := serve(newTestHandler(&fakePipeline{}), req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("accepts a raw body upload", func(t *testing.T) {
		p := &fakePipeline{validation: signature.ValidationResult{Compatible: true, Bank: "BP"}}
		req := httptest.NewRequest(http.MethodPost, "/v1/validate", bytes.NewReader([]byte("%PDF-1.4 raw")))
		req.Header.Set("Content-Type", "application/pdf")

		rec := serve(newTestHandler(p), req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []byte("%PDF-1.4 raw"), p.gotData)
	})
}

func TestExtractStatement(t *testing.T) {
	t.Run("streams the workbook with provenance headers", func(t *testing.T) {
		p := &fakePipeline{outcome: sampleOutcome()}
		body, contentType := multipartBody(t, []byte("%PDF-1.4"))
		req := httptest.NewRequest(http.MethodPost, "/v1/extract", body)
		req.Header.Set("Content-Type", contentType)

		rec := serve(newTestHandler(p), req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, contentTypeXLSX, rec.Header().Get("Content-Type"))
		assert.Equal(t, "NATIVE_REGEX", rec.Header().Get("X-Extraction-Method"))
		assert.Equal(t, "CA", rec.Header().Get("X-Bank-Code"))
		assert.Equal(t, "-€12.50", rec.Header().Get("X-Total-Amount"))
		assert.NotEmpty(t, rec.Body.Bytes())
	})

	t.Run("format=csv selects the csv artifact", func(t *testing.T) {
		p := &fakePipeline{outcome: sampleOutcome()}
		body, contentType := multipartBody(t, []byte("%PDF-1.4"))
		req := httptest.NewRequest(http.MethodPost, "/v1/extract?format=csv", body)
		req.Header.Set("Content-Type", contentType)

		rec := serve(newTestHandler(p), req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, contentTypeCSV, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "15/03/2025")
		assert.Contains(t, rec.Body.String(), "BOULANGERIE PARIS")
	})

	t.Run("maps pipeline failures to 422", func(t *testing.T) {
		p := &fakePipeline{err: &statement.PipelineError{
			Kind:    statement.ErrScanned,
			Message: "Le document est un scan.",
		}}
		body, contentType := multipartBody(t, []byte("%PDF-1.4"))
		req := httptest.NewRequest(http.MethodPost, "/v1/extract", body)
		req.Header.Set("Content-Type", contentType)

		rec := serve(newTestHandler(p), req)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var got errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "SCANNED", got.Error)
	})

	t.Run("maps unexpected failures to 500", func(t *testing.T) {
		p := &fakePipeline{err: io.ErrUnexpectedEOF}
		body, contentType := multipartBody(t, []byte("%PDF-1.4"))
		req := httptest.NewRequest(http.MethodPost, "/v1/extract", body)
		req.Header.Set("Content-Type", contentType)

		rec := serve(newTestHandler(p), req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestListBanks(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/banks", nil)
	rec := serve(newTestHandler(&fakePipeline{}), req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Banks []bankInfo `json:"banks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Banks, 3)
	assert.Equal(t, "CA", got.Banks[0].Code)
	assert.Equal(t, "Crédit Agricole", got.Banks[0].Name)
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := serve(newTestHandler(&fakePipeline{}), req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
