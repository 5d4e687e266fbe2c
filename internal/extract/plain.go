package extract

import (
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// extractPlain decodes raw bytes to a string. The byte encoding is detected
// heuristically; when detection or decoding fails, the bytes are treated as
// UTF-8. Decoding is lenient in both paths: invalid sequences are dropped,
// never fatal. Empty content yields "".
func extractPlain(content []byte) (string, error) {
	if len(content) == 0 {
		return "", nil
	}
	if name := detectCharset(content); name != "" {
		if enc, err := htmlindex.Get(name); err == nil && enc != nil {
			if decoded, _, err := transform.Bytes(enc.NewDecoder(), content); err == nil {
				return dropInvalid(string(decoded)), nil
			}
		}
	}
	return dropInvalid(string(content)), nil
}

// detectCharset returns the most likely charset name for content, or ""
// when detection fails.
func detectCharset(content []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(content)
	if err != nil || result == nil {
		return ""
	}
	return result.Charset
}

// dropInvalid removes invalid UTF-8 sequences and the replacement runes the
// lenient decoders substitute for undecodable bytes.
func dropInvalid(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.ReplaceAll(s, "�", "")
}
