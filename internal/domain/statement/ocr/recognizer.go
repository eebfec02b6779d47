package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Recognizer turns one preprocessed page image (PNG bytes) into text.
type Recognizer interface {
	Recognize(imageData []byte) (string, error)
	Close() error
}

// RecognizerFactory constructs a fresh Recognizer. The engine builds one per
// document: a Tesseract client is stateful (SetImageFromBytes then Text), so
// sharing one across concurrent documents would mix their pages.
type RecognizerFactory func() (Recognizer, error)

// TesseractFactory returns a factory producing Tesseract clients with the
// given language model and page-segmentation mode.
func TesseractFactory(language string, pageSegMode int) RecognizerFactory {
	return func() (Recognizer, error) {
		return NewTesseractRecognizer(language, pageSegMode)
	}
}

// TesseractRecognizer wraps the Tesseract engine via gosseract. Tesseract
// must be installed on the host together with the language data the
// configuration names (French statements need tesseract-ocr-fra).
// A client holds the current image between calls, so each instance serves
// one document at a time.
type TesseractRecognizer struct {
	client *gosseract.Client
}

// NewTesseractRecognizer configures a Tesseract client with the given
// language model and page-segmentation mode (mode 6 treats the page as one
// uniform block of text, which suits tabular statements).
func NewTesseractRecognizer(language string, pageSegMode int) (*TesseractRecognizer, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("set OCR language %q: %w", language, err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(pageSegMode)); err != nil {
		client.Close()
		return nil, fmt.Errorf("set page segmentation mode %d: %w", pageSegMode, err)
	}
	return &TesseractRecognizer{client: client}, nil
}

func (r *TesseractRecognizer) Recognize(imageData []byte) (string, error) {
	if err := r.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("set page image: %w", err)
	}
	text, err := r.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognition failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (r *TesseractRecognizer) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
