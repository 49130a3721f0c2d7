// Package usecases contains the application rules of the explorer: document
// ingestion, response generation with model fallback and the four setup flows.
// Use cases depend on ports only.
package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/entities"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/ports"
	apperrors "github.com/0xcro3dile/llm-evolution-explorer/pkg/errors"
	"github.com/0xcro3dile/llm-evolution-explorer/pkg/logger"
	"github.com/0xcro3dile/llm-evolution-explorer/pkg/metrics"
	"github.com/0xcro3dile/llm-evolution-explorer/pkg/tracer"
)

// Ingestor turns uploaded or dropped files into documents.
type Ingestor struct {
	parser   ports.DocumentParser
	loader   ports.DocumentLoader
	splitter *Splitter
	tempDir  string
}

// NewIngestor validates the chunk sizes and returns an Ingestor.
// loader may be nil when only uploads are ingested.
func NewIngestor(
	parser ports.DocumentParser,
	loader ports.DocumentLoader,
	tempDir string,
	chunkSize, chunkOverlap int,
) (*Ingestor, error) {
	splitter, err := NewSplitter(chunkSize, chunkOverlap)
	if err != nil {
		return nil, err
	}
	return &Ingestor{
		parser:   parser,
		loader:   loader,
		splitter: splitter,
		tempDir:  tempDir,
	}, nil
}

// ExtractText returns the text of a PDF, each page followed by a newline.
// Any failure aborts the extraction with a CodeExtraction error.
func (in *Ingestor) ExtractText(ctx context.Context, data []byte, filename string) (string, error) {
	ctx, span := tracer.Start(ctx, "ingest.extract_text")
	defer span.End()
	span.SetAttributes(attribute.String("document.name", filename), attribute.Int("document.bytes", len(data)))

	text, err := in.parser.Parse(ctx, data, filename)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", apperrors.Wrap(err, apperrors.CodeExtraction, "extracting text from PDF")
	}
	return text, nil
}

// SplitText splits text with the configured chunk size and overlap.
func (in *Ingestor) SplitText(text string) iter.Seq[entities.TextChunk] {
	return in.splitter.Chunks(text)
}

// IngestUpload stores an uploaded file in the temp directory and extracts its text.
func (in *Ingestor) IngestUpload(ctx context.Context, name string, data []byte) (*entities.Document, error) {
	path, err := SaveUploadedFile(data, name, in.tempDir)
	if err != nil {
		metrics.DocumentsIngestedTotal.WithLabelValues(string(entities.SourceUpload), "error").Inc()
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "saving uploaded file")
	}

	start := time.Now()
	text, err := in.ExtractText(ctx, data, name)
	if err != nil {
		metrics.DocumentsIngestedTotal.WithLabelValues(string(entities.SourceUpload), "error").Inc()
		logger.Error(ctx, "extraction failed", err, "document", name)
		return nil, err
	}
	metrics.DocumentsIngestedTotal.WithLabelValues(string(entities.SourceUpload), "ok").Inc()
	logger.Info(ctx, "document ingested",
		"document", name,
		"bytes", len(data),
		"chars", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &entities.Document{
		ID:        documentID(name, data),
		Name:      filepath.Base(name),
		Path:      path,
		Content:   text,
		Size:      int64(len(data)),
		Source:    entities.SourceUpload,
		CreatedAt: time.Now(),
	}, nil
}

// IngestFile loads a document from disk through the configured loader.
func (in *Ingestor) IngestFile(ctx context.Context, path string) (*entities.Document, error) {
	if in.loader == nil {
		return nil, apperrors.New(apperrors.CodeConfiguration, "no document loader configured")
	}
	doc, err := in.loader.Load(ctx, path)
	if err != nil {
		metrics.DocumentsIngestedTotal.WithLabelValues(string(entities.SourceInbox), "error").Inc()
		return nil, apperrors.Wrap(err, apperrors.CodeExtraction, "extracting text from PDF")
	}
	doc.Source = entities.SourceInbox
	metrics.DocumentsIngestedTotal.WithLabelValues(string(entities.SourceInbox), "ok").Inc()
	return doc, nil
}

// SaveUploadedFile writes data to directory/name, creating directory if needed,
// and returns the written path. Only the base name of name is used.
func SaveUploadedFile(data []byte, name, directory string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}

	path := filepath.Join(directory, base)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("writing file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing file: %w", err)
	}
	return path, nil
}

// documentID is a stable ID derived from the name and the content.
func documentID(name string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)[:8])
}
