// Package download writes generated documents to disk.
package download

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vietddude/itinerary/internal/core/domain"
	"github.com/vietddude/itinerary/internal/recovery/failure"
)

var errEmptyDocument = errors.New("document has no content")

// Save writes doc into dir under doc.Filename and returns the final path.
// The file appears atomically; a partially written document is never left
// behind. Failures are DOWNLOAD_ERROR pathway errors.
func Save(doc *domain.Document, dir string) (string, error) {
	if doc.Size() == 0 {
		return "", downloadError(errEmptyDocument)
	}
	name := filepath.Base(doc.Filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "itinerary.pdf"
	}
	if dir == "" {
		dir = "."
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", downloadError(fmt.Errorf("create output dir: %w", err))
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", downloadError(fmt.Errorf("create temp file: %w", err))
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(doc.Data); err != nil {
		tmp.Close()
		return "", downloadError(fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", downloadError(fmt.Errorf("sync temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return "", downloadError(fmt.Errorf("close temp file: %w", err))
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", downloadError(fmt.Errorf("chmod temp file: %w", err))
	}

	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", downloadError(fmt.Errorf("rename into place: %w", err))
	}
	return path, nil
}

func downloadError(err error) error {
	return &failure.PathwayError{Code: failure.CodeDownloadError, Message: "Failed to download PDF file", Err: err}
}
