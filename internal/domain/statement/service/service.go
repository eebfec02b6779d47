// Package service orchestrates the extraction pipeline: native text
// extraction, scan detection, optical recognition, bank validation, and the
// regex and language-model parsing tiers. All policy decisions (thresholds,
// tier order) live here; the stage packages stay mechanism-only.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/comptaflow/comptaflow/internal/domain/statement"
	"github.com/comptaflow/comptaflow/internal/domain/statement/llm"
	"github.com/comptaflow/comptaflow/internal/domain/statement/parser"
	"github.com/comptaflow/comptaflow/internal/domain/statement/pdftext"
	"github.com/comptaflow/comptaflow/internal/domain/statement/signature"
	"github.com/comptaflow/comptaflow/pkg/config"
)

// TierPriorityLLM lets deployments try the language model before the layout
// parsers. Anything else means regex-first.
const TierPriorityLLM = "llm"

// DocumentReader extracts the text layer of a PDF and classifies it as
// scanned or native. The production implementation is the pdftext package.
type DocumentReader interface {
	Text(data []byte) string
	Scanned(data []byte) bool
}

// OCREngine recovers text from image-only documents. A nil engine disables
// the optical tier.
type OCREngine interface {
	ExtractText(ctx context.Context, pdfData []byte) (string, error)
}

// LLMTier is the language-model fallback extractor. A nil tier disables it.
type LLMTier interface {
	Extract(ctx context.Context, text, bankHint string) (llm.Result, error)
}

type pdfReader struct{}

func (pdfReader) Text(data []byte) string  { return pdftext.Extract(data) }
func (pdfReader) Scanned(data []byte) bool { return pdftext.IsScanned(data) }

// Service runs the pipeline. It is stateless across requests and safe for
// concurrent use.
type Service struct {
	cfg      config.ExtractionConfig
	reader   DocumentReader
	detector *signature.Detector
	ocr      OCREngine
	llm      LLMTier
	logger   *slog.Logger
	now      func() time.Time
}

// New wires the pipeline stages. ocr and llmTier may be nil; the pipeline
// degrades rather than failing to start.
func New(cfg config.ExtractionConfig, detector *signature.Detector, ocr OCREngine, llmTier LLMTier, logger *slog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		reader:   pdfReader{},
		detector: detector,
		ocr:      ocr,
		llm:      llmTier,
		logger:   logger,
		now:      time.Now,
	}
}

// Validate answers the cheap pre-flight question: is this document a native
// PDF from a supported bank? It never runs OCR or any parsing tier.
func (s *Service) Validate(data []byte) signature.ValidationResult {
	text := s.reader.Text(data)
	scanned := s.reader.Scanned(data)
	return s.detector.Validate(text, scanned)
}

// Extract runs the full pipeline on one uploaded document. Terminal failures
// come back as *statement.PipelineError so callers can map them to typed
// responses.
func (s *Service) Extract(ctx context.Context, data []byte) (*statement.ExtractionOutcome, error) {
	start := s.now()
	requestID := uuid.NewString()
	log := s.logger.With(slog.String("request_id", requestID))

	outcome, err := s.extract(ctx, log, data)

	extractionDuration.Observe(s.now().Sub(start).Seconds())
	if err != nil {
		kind := statement.ErrUnknown
		if pe, ok := statement.AsPipelineError(err); ok {
			kind = pe.Kind
		}
		extractionRequests.WithLabelValues(string(kind)).Inc()
		log.Warn("extraction failed", slog.String("kind", string(kind)), slog.String("error", err.Error()))
		return nil, err
	}

	extractionRequests.WithLabelValues("SUCCESS").Inc()
	tierResults.WithLabelValues(string(outcome.Method)).Inc()
	log.Info("extraction succeeded",
		slog.String("bank", outcome.Bank),
		slog.String("method", string(outcome.Method)),
		slog.Int("transactions", len(outcome.Transactions)))
	return outcome, nil
}

func (s *Service) extract(ctx context.Context, log *slog.Logger, data []byte) (*statement.ExtractionOutcome, error) {
	text := s.reader.Text(data)
	scanned := s.reader.Scanned(data)
	ocrUsed := false

	if scanned || len(text) < s.cfg.MinNativeTextChars {
		recovered, ok := s.runOCR(ctx, log, data)
		switch {
		case ok:
			text = recovered
			ocrUsed = true
		case scanned:
			// An image-only document with no optical tier is a dead end.
			return nil, &statement.PipelineError{
				Kind:    statement.ErrScanned,
				Message: "Le document est un scan et la reconnaissance optique n'a rien extrait.",
			}
		}
	}

	s.logPreview(log, text)

	if len(strings.TrimSpace(text)) < s.cfg.MinReadableChars {
		return nil, &statement.PipelineError{
			Kind:    statement.ErrUnreadable,
			Message: "Le document ne contient pas assez de texte lisible.",
		}
	}

	// Scanned is false here: either the document was native, or OCR already
	// recovered a text layer worth validating.
	verdict := s.detector.Validate(text, false)
	if !verdict.Compatible {
		return nil, &statement.PipelineError{
			Kind:    verdict.ErrorKind,
			Message: verdict.Message,
		}
	}
	log = log.With(slog.String("bank", verdict.Bank))

	sig, _ := s.detector.Detect(text)
	for _, tier := range s.tierOrder() {
		var txs []statement.Transaction
		var method statement.Method

		switch tier {
		case TierPriorityLLM:
			txs = s.runLLM(ctx, log, text, sig.Description)
			method = statement.MethodLLM
		default:
			txs = s.runRegex(log, text, verdict.Layout)
			method = statement.MethodNativeRegex
			if ocrUsed {
				method = statement.MethodOCRRegex
			}
		}

		if len(txs) > 0 {
			return &statement.ExtractionOutcome{
				Transactions: txs,
				Method:       method,
				Bank:         verdict.Bank,
			}, nil
		}
	}

	return nil, &statement.PipelineError{
		Kind:    statement.ErrNoTransactionsFound,
		Bank:    verdict.Bank,
		Message: "Aucune transaction n'a pu être extraite du relevé.",
	}
}

// tierOrder returns the parsing tiers in configured priority order.
func (s *Service) tierOrder() []string {
	if s.cfg.TierPriority == TierPriorityLLM {
		return []string{TierPriorityLLM, "regex"}
	}
	return []string{"regex", TierPriorityLLM}
}

func (s *Service) runOCR(ctx context.Context, log *slog.Logger, data []byte) (string, bool) {
	if s.ocr == nil {
		ocrRuns.WithLabelValues("disabled").Inc()
		return "", false
	}
	text, err := s.ocr.ExtractText(ctx, data)
	if err != nil {
		ocrRuns.WithLabelValues("error").Inc()
		log.Warn("optical recognition failed", slog.String("error", err.Error()))
		return "", false
	}
	ocrRuns.WithLabelValues("ok").Inc()
	return text, true
}

func (s *Service) runRegex(log *slog.Logger, text string, layout signature.Layout) []statement.Transaction {
	parsers := parser.NewSet(s.now().UTC().Year())
	p, ok := parsers.For(layout)
	if !ok {
		log.Error("no parser registered for layout", slog.String("layout", string(layout)))
		return nil
	}
	txs := p.Parse(parser.SplitLines(text))
	log.Debug("regex tier finished", slog.Int("transactions", len(txs)))
	return txs
}

func (s *Service) runLLM(ctx context.Context, log *slog.Logger, text, bankHint string) []statement.Transaction {
	if s.llm == nil {
		return nil
	}
	res, err := s.llm.Extract(ctx, text, bankHint)
	if err != nil {
		log.Warn("language-model tier failed", slog.String("error", err.Error()))
		return nil
	}
	if res.Rejected > 0 {
		log.Debug("language-model tier rejected records", slog.Int("rejected", res.Rejected))
	}
	return res.Transactions
}

// logPreview logs the head of the working text when the debug preview is
// enabled. Statement text is sensitive, so this is off unless asked for.
func (s *Service) logPreview(log *slog.Logger, text string) {
	n := s.cfg.DebugPreviewChars
	if n <= 0 {
		return
	}
	log.Debug("extracted text preview", slog.String("preview", previewCut(text, n)))
}

// previewCut bounds text to n bytes on a rune boundary so accented
// characters are never split mid-sequence.
func previewCut(text string, n int) string {
	if len(text) <= n {
		return text
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}
