// Package ocr converts scanned statement pages into text: rasterize the
// document at high resolution, run each page image through a preprocessing
// chain, then recognize it with Tesseract. Any stage failure aborts the
// whole document — the pipeline treats that as an empty tier, never as a
// partial result.
package ocr

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes external commands. It exists so tests can rasterize
// without poppler installed.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w (%s)", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
