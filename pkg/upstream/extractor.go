package upstream

import (
	"github.com/pkg/errors"

	"github.com/Ramsey-B/thistle/pkg/expressions"
)

// Extractor pulls the review array out of a decoded feed body using a
// JMESPath expression such as "result".
type Extractor struct {
	path *expressions.Path
}

// NewExtractor compiles the result path. Empty means DefaultResultPath.
func NewExtractor(path string) (*Extractor, error) {
	if path == "" {
		path = DefaultResultPath
	}
	compiled, err := expressions.Compile(path)
	if err != nil {
		return nil, errors.Wrap(err, "invalid upstream result path")
	}
	return &Extractor{path: compiled}, nil
}

// Extract accepts a bare array or an object holding one at the result path.
func (e *Extractor) Extract(body any) ([]any, error) {
	if items, ok := body.([]any); ok {
		return items, nil
	}

	if _, ok := body.(map[string]any); !ok {
		return nil, errors.Errorf("expected an object or array, got %T", body)
	}

	items, err := e.path.SelectArray(body)
	if err != nil {
		return nil, errors.Wrap(err, "review array not found")
	}
	return items, nil
}
