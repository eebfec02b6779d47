package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/comptaflow/comptaflow/pkg/config"
)

// Engine is the optical recognition pipeline for one document: rasterize,
// preprocess, recognize, concatenate. Each document gets its own recognizer
// from the factory, so one Engine serves concurrent documents.
type Engine struct {
	cfg         config.OCRConfig
	runner      Runner
	recognizers RecognizerFactory
	logger      *slog.Logger
}

// NewEngine builds an engine on the system pdftoppm binary and the given
// recognizer factory.
func NewEngine(cfg config.OCRConfig, recognizers RecognizerFactory, logger *slog.Logger) *Engine {
	return &Engine{cfg: cfg, runner: execRunner{}, recognizers: recognizers, logger: logger}
}

// ExtractText runs the whole chain over every page and joins the page texts
// with blank-line separators. The first failing stage aborts the document;
// there are no partial-page results.
func (e *Engine) ExtractText(ctx context.Context, pdfData []byte) (string, error) {
	workDir, err := os.MkdirTemp("", "comptaflow-ocr-*")
	if err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	recognizer, err := e.recognizers()
	if err != nil {
		return "", fmt.Errorf("create recognizer: %w", err)
	}
	defer recognizer.Close()

	pagePaths, err := e.rasterize(ctx, workDir, pdfData)
	if err != nil {
		return "", err
	}
	if len(pagePaths) == 0 {
		return "", fmt.Errorf("rasterization produced no pages")
	}

	texts := make([]string, 0, len(pagePaths))
	for i, path := range pagePaths {
		pageText, err := e.recognizePage(recognizer, path)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i+1, err)
		}
		e.logger.Debug("page recognized",
			slog.Int("page", i+1), slog.Int("chars", len(pageText)))
		texts = append(texts, pageText)
	}

	return strings.Join(texts, "\n\n"), nil
}

// rasterize renders every page to a PNG at the configured resolution and
// returns the page files in order.
func (e *Engine) rasterize(ctx context.Context, workDir string, pdfData []byte) ([]string, error) {
	pdfPath := filepath.Join(workDir, "input.pdf")
	if err := os.WriteFile(pdfPath, pdfData, 0o600); err != nil {
		return nil, fmt.Errorf("write temp document: %w", err)
	}

	prefix := filepath.Join(workDir, "page")
	err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-r", strconv.Itoa(e.cfg.DPI),
		"-png",
		pdfPath,
		prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}

	paths, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	// pdftoppm zero-pads page numbers, so a lexical sort is page order.
	sort.Strings(paths)
	return paths, nil
}

// recognizePage preprocesses one page image and hands it to the recognizer.
func (e *Engine) recognizePage(recognizer Recognizer, path string) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", fmt.Errorf("open page image: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, preprocess(img), imaging.PNG); err != nil {
		return "", fmt.Errorf("encode preprocessed page: %w", err)
	}

	return recognizer.Recognize(buf.Bytes())
}
