// Package models defines the data types shared across the sorting pipeline.
package models

// FallbackCategory is the reserved category for files nothing else claims.
// It never participates in rule scoring.
const FallbackCategory = "other"

// WeightedKeyword is a keyword with its scoring weight.
type WeightedKeyword struct {
	Keyword string
	Weight  float64
}

// Category is a named classification bucket. The name doubles as the
// destination subfolder under the target directory.
type Category struct {
	Name        string
	Keywords    []WeightedKeyword
	Marker      string // short display label used in run summaries
	Description string
}

// CategoryNames returns the names of the given categories in order.
func CategoryNames(categories []Category) []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names
}

// MarkerFor returns the display marker of the named category, or an empty
// string when the category is unknown.
func MarkerFor(categories []Category, name string) string {
	for _, c := range categories {
		if c.Name == name {
			return c.Marker
		}
	}
	return ""
}
