// Package expressions selects values out of decoded JSON with JMESPath.
package expressions

import (
	"strings"

	"github.com/jmespath/go-jmespath"
	"github.com/pkg/errors"
)

// Path is a compiled JMESPath expression. It is safe for concurrent use.
type Path struct {
	expression string
	compiled   *jmespath.JMESPath
}

func Compile(expression string) (*Path, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, errors.New("empty expression")
	}

	compiled, err := jmespath.Compile(expression)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid expression %q", expression)
	}
	return &Path{expression: expression, compiled: compiled}, nil
}

func (p *Path) String() string {
	return p.expression
}

// Select returns whatever the expression matches, nil when nothing does.
func (p *Path) Select(data any) (any, error) {
	result, err := p.compiled.Search(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to evaluate %q", p.expression)
	}
	return result, nil
}

// SelectArray requires the expression to match an array.
func (p *Path) SelectArray(data any) ([]any, error) {
	result, err := p.Select(data)
	if err != nil {
		return nil, err
	}

	switch v := result.(type) {
	case nil:
		return nil, errors.Errorf("%q matched nothing", p.expression)
	case []any:
		return v, nil
	default:
		return nil, errors.Errorf("%q matched %T, not an array", p.expression, result)
	}
}
