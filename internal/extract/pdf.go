package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF concatenates per-page text with separating spaces. A PDF that
// yields no extractable text (e.g. a scanned image) yields "", not an
// error. Pages that fail to decode are skipped.
func extractPDF(content []byte) (_ string, err error) {
	// ledongthuc/pdf panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("open PDF: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, " "), nil
}
