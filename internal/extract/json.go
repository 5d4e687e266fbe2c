package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// maxJSONDepth caps recursion when flattening nested JSON. Deeper values
// are silently ignored rather than failing the file.
const maxJSONDepth = 32

// extractJSON flattens a JSON document into a space-joined string of every
// object key and every scalar leaf value. Null leaves contribute nothing.
// Whitespace-only content yields "".
func extractJSON(content []byte) (string, error) {
	text, err := extractPlain(content)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var payload interface{}
	if err := dec.Decode(&payload); err != nil {
		return "", fmt.Errorf("parse JSON: %w", err)
	}
	var fragments []string
	collectJSON(payload, &fragments, 0)
	return strings.Join(fragments, " "), nil
}

// collectJSON walks the decoded value, appending object keys and scalar
// leaves in traversal order. Object keys are visited sorted: Go maps are
// unordered, and scoring needs a stable flattening.
func collectJSON(v interface{}, fragments *[]string, depth int) {
	if depth > maxJSONDepth {
		return
	}
	switch value := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(value))
		for k := range value {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			*fragments = append(*fragments, k)
			collectJSON(value[k], fragments, depth+1)
		}
	case []interface{}:
		for _, item := range value {
			collectJSON(item, fragments, depth+1)
		}
	case nil:
	case string:
		*fragments = append(*fragments, value)
	case json.Number:
		*fragments = append(*fragments, value.String())
	case bool:
		*fragments = append(*fragments, strconv.FormatBool(value))
	default:
		*fragments = append(*fragments, fmt.Sprint(value))
	}
}
