// Package pdftext extracts native text from PDF documents and classifies
// documents as native or scanned. It handles text-layer PDFs only; scanned
// documents are routed to the ocr package by the pipeline.
package pdftext

import (
	"bytes"
	"errors"
	"strings"

	"github.com/ledongthuc/pdf"
)

// errDocumentFault marks a panic inside the pdf library while reading a
// malformed document.
var errDocumentFault = errors.New("pdftext: document fault")

// Extract pulls the text layer of every page, in page order, joined with a
// newline. It is a pure function of the input bytes: an unreadable or corrupt
// document yields "" — classifying that as an error is the pipeline's job,
// not this package's.
func Extract(data []byte) (text string) {
	// The pdf library panics on some malformed files; treat that the same
	// as any other unreadable document.
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil || pageText == "" {
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return b.String()
}

// extractLeading returns the combined text of the first maxPages pages.
// Unlike Extract, it reports reader-level faults so the scan classifier can
// distinguish "no text layer" from "could not open the document".
func extractLeading(data []byte, maxPages int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", errDocumentFault
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	n := reader.NumPage()
	if n > maxPages {
		n = maxPages
	}
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		b.WriteString(pageText)
	}
	return b.String(), nil
}
