package main

import (
	"fmt"
	"log/slog"

	"github.com/comptaflow/comptaflow/internal/domain/statement/handler"
	"github.com/comptaflow/comptaflow/internal/domain/statement/llm"
	"github.com/comptaflow/comptaflow/internal/domain/statement/ocr"
	"github.com/comptaflow/comptaflow/internal/domain/statement/service"
	"github.com/comptaflow/comptaflow/internal/domain/statement/signature"
	"github.com/comptaflow/comptaflow/pkg/config"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	Registry  signature.Registry
	Detector  *signature.Detector
	OCREngine *ocr.Engine
	LLMTier   *llm.Extractor

	StatementService *service.Service
	StatementHandler *handler.Handler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:   cfg,
		Logger:   logger,
		Registry: signature.DefaultRegistry(),
	}
	deps.Detector = signature.NewDetector(deps.Registry)

	if err := deps.initOCR(); err != nil {
		return nil, fmt.Errorf("failed to init ocr: %w", err)
	}
	deps.initLLM()

	deps.StatementService = service.New(
		cfg.Extraction,
		deps.Detector,
		ocrEngineOrNil(deps.OCREngine),
		llmTierOrNil(deps.LLMTier),
		logger,
	)
	deps.StatementHandler = handler.NewHandler(deps.StatementService, deps.Registry, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initOCR wires the recognizer factory. Each document builds its own
// tesseract client; the probe here surfaces a broken install at startup
// instead of on the first scanned upload.
func (d *Dependencies) initOCR() error {
	factory := ocr.TesseractFactory(d.Config.OCR.Language, d.Config.OCR.PageSegMode)
	probe, err := factory()
	if err != nil {
		return err
	}
	if err := probe.Close(); err != nil {
		return err
	}
	d.OCREngine = ocr.NewEngine(d.Config.OCR, factory, d.Logger)
	d.Logger.Info("optical recognition initialized", slog.String("language", d.Config.OCR.Language))
	return nil
}

// initLLM wires the language-model tier when an API key is configured. The
// pipeline runs without it, so a missing key only logs.
func (d *Dependencies) initLLM() {
	model, err := llm.NewMistralModel(d.Config.LLM)
	if err != nil {
		d.Logger.Warn("language-model tier disabled", slog.String("reason", err.Error()))
		return
	}
	d.LLMTier = llm.NewExtractor(model, d.Logger, d.Config.LLM.MaxPromptChars)
	d.Logger.Info("language-model tier initialized", slog.String("model", d.Config.LLM.Model))
}

// ocrEngineOrNil avoids handing the service a typed-nil interface.
func ocrEngineOrNil(e *ocr.Engine) service.OCREngine {
	if e == nil {
		return nil
	}
	return e
}

func llmTierOrNil(e *llm.Extractor) service.LLMTier {
	if e == nil {
		return nil
	}
	return e
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	d.Logger.Info("cleanup completed")
}
