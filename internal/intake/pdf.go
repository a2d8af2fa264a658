// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package intake

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

const defaultPdftotext = "pdftotext"

// runner abstracts command execution for testing.
type runner interface {
	run(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error
}

// execRunner is the production runner backed by os/exec.
type execRunner struct{}

func (execRunner) run(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
		return err
	}
	return nil
}

// PDFExtractor converts PDF bytes to text by piping them through the
// pdftotext binary. Page breaks arrive as form feeds and become newlines.
type PDFExtractor struct {
	binary string
	exec   runner
}

// NewPDFExtractor returns an extractor using the given binary, or pdftotext
// from PATH when empty.
func NewPDFExtractor(binary string) *PDFExtractor {
	if binary == "" {
		binary = defaultPdftotext
	}
	return &PDFExtractor{binary: binary, exec: execRunner{}}
}

// Extract runs the PDF body through pdftotext and returns the joined page
// text (R2.4).
func (p *PDFExtractor) Extract(ctx context.Context, body []byte) (string, error) {
	var out bytes.Buffer
	if err := p.exec.run(ctx, p.binary, []string{"-q", "-", "-"}, bytes.NewReader(body), &out); err != nil {
		return "", fmt.Errorf("running %s: %w", p.binary, err)
	}

	text := strings.TrimSpace(strings.ReplaceAll(out.String(), "\f", "\n"))
	if text == "" {
		return "", fmt.Errorf("%s produced empty output", p.binary)
	}
	return text, nil
}
