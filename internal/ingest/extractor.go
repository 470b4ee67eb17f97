package ingest

import (
	"context"
	"log/slog"

	"github.com/docsage/docsage/pkg/textextract"
)

// Extractor turns a stored file into plain text. Unreadable or
// unsupported files yield empty text, not an error; an error means the
// whole processing run is unrecoverable.
type Extractor interface {
	Extract(ctx context.Context, path, mimeType string) (string, error)
}

// FileExtractor extracts text from files on local disk.
type FileExtractor struct{}

func NewFileExtractor() *FileExtractor {
	return &FileExtractor{}
}

func (e *FileExtractor) Extract(_ context.Context, path, mimeType string) (string, error) {
	result, err := textextract.ExtractFile(path, mimeType)
	if err != nil {
		slog.Warn("text extraction failed, continuing with empty text", "path", path, "error", err)
		return "", nil
	}
	return result.Content, nil
}
