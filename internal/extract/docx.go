package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// docxDocumentPath is the main document body inside a .docx zip.
const docxDocumentPath = "word/document.xml"

// textRun matches <w:t>text</w:t> including runs carrying attributes such
// as xml:space="preserve". Matching runs directly keeps paragraph text
// regardless of paragraph or run attributes.
var textRun = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// extractWordDocument extracts paragraph text from a word-processor file
// and joins the fragments with spaces. Legacy binary .doc files are not
// zip archives, so they fail at open and surface as unextractable.
func extractWordDocument(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open word document: %w", err)
	}
	docXML, err := readZipFile(zr, docxDocumentPath)
	if err != nil {
		return "", fmt.Errorf("open word document: %w", err)
	}
	matches := textRun.FindAllSubmatch(docXML, -1)
	fragments := make([]string, 0, len(matches))
	for _, m := range matches {
		if text := strings.TrimSpace(string(m[1])); text != "" {
			fragments = append(fragments, text)
		}
	}
	return strings.Join(fragments, " "), nil
}

// readZipFile returns the contents of the named file inside the archive.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}
