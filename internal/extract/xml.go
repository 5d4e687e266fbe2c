package extract

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// extractXML walks every element in document order, collecting trimmed
// character data (element text and tail text alike) and every attribute
// value as separate fragments, joined with spaces.
//
// encoding/xml never resolves external entities, so untrusted documents
// cannot trigger network or file fetches.
func extractXML(content []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	dec.Strict = false
	dec.CharsetReader = charsetReader

	var fragments []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			for _, attr := range t.Attr {
				if attr.Value != "" {
					fragments = append(fragments, attr.Value)
				}
			}
		case xml.CharData:
			if text := strings.TrimSpace(string(t)); text != "" {
				fragments = append(fragments, text)
			}
		}
	}
	return strings.Join(fragments, " "), nil
}

// charsetReader decodes non-UTF-8 XML declared encodings.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}
