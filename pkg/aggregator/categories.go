package aggregator

import (
	"strings"

	apperrors "github.com/Ramsey-B/thistle/pkg/errors"
)

// Category maps a review category key onto the key it is reported under
type Category struct {
	Key   string
	Label string
}

// CategoryRegistry is the ordered set of categories that get averaged
type CategoryRegistry []Category

// DefaultCategories are the three categories every dashboard reports
var DefaultCategories = CategoryRegistry{
	{Key: "cleanliness", Label: "cleanliness"},
	{Key: "communication", Label: "communication"},
	{Key: "respect_house_rules", Label: "house_rules"},
}

// ParseCategories reads "key:label" entries. A bare key is its own label.
func ParseCategories(entries []string) (CategoryRegistry, error) {
	registry := CategoryRegistry{}
	seen := map[string]bool{}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		key, label, found := strings.Cut(entry, ":")
		key, label = strings.TrimSpace(key), strings.TrimSpace(label)
		if !found || label == "" {
			label = key
		}
		if key == "" {
			return nil, apperrors.NewValidationError("invalid metric category %q", entry)
		}
		if seen[key] {
			return nil, apperrors.NewValidationError("duplicate metric category %q", key)
		}
		seen[key] = true
		registry = append(registry, Category{Key: key, Label: label})
	}

	if len(registry) == 0 {
		return DefaultCategories, nil
	}
	return registry, nil
}

func (r CategoryRegistry) label(key string) (string, bool) {
	for _, c := range r {
		if c.Key == key {
			return c.Label, true
		}
	}
	return "", false
}
