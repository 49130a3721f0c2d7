// Package parser provides PDF text extraction: in-process with
// github.com/ledongthuc/pdf, or through a remote extraction service.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/0xcro3dile/llm-evolution-explorer/pkg/metrics"
)

// NativePDFParser implements ports.DocumentParser in process.
type NativePDFParser struct{}

// NewNativePDFParser creates a NativePDFParser.
func NewNativePDFParser() *NativePDFParser {
	return &NativePDFParser{}
}

// Parse returns the text of every page followed by a newline, in page order.
// The first page that fails aborts the whole extraction.
func (p *NativePDFParser) Parse(ctx context.Context, data []byte, filename string) (text string, err error) {
	// The pdf package panics on some malformed input.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	pages := reader.NumPage()
	metrics.DocumentPages.Observe(float64(pages))

	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			sb.WriteString("\n")
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// SupportedFormats returns formats this parser handles.
func (p *NativePDFParser) SupportedFormats() []string {
	return []string{"pdf"}
}
