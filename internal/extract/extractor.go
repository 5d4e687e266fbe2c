// Package extract provides text extraction from various document formats.
//
// Extraction failures are a normal, per-file condition: callers treat any
// returned error as "this file has no usable text" and keep going.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported marks a file extension no extractor handles.
var ErrUnsupported = errors.New("unsupported file format")

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content. An empty
// but readable file yields "", not an error. Unreadable files, corrupt
// content, and unrecognized extensions return an error.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".txt", ".md":
		return extractPlain(content)
	case ".pdf":
		return extractPDF(content)
	case ".docx", ".doc":
		return extractWordDocument(content)
	case ".json":
		return extractJSON(content)
	case ".xml":
		return extractXML(content)
	case ".xlsx":
		return extractExcel(content)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}
