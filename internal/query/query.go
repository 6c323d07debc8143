// Package query projects decoded response data with JMESPath expressions.
package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmespath/go-jmespath"
)

// Apply evaluates expression against data. An empty expression returns data
// unchanged. Text bodies holding JSON are decoded first; other non-JSON data
// cannot be queried.
func Apply(data any, expression string) (any, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return data, nil
	}

	doc, err := normalize(data)
	if err != nil {
		return nil, err
	}

	jp, err := jmespath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}

	result, err := jp.Search(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to apply query: %w", err)
	}
	return result, nil
}

// normalize brings data into the plain map/slice shape jmespath expects.
func normalize(data any) (any, error) {
	switch v := data.(type) {
	case nil, map[string]any, []any, float64, bool:
		return v, nil
	case string:
		var doc any
		if err := json.Unmarshal([]byte(v), &doc); err != nil {
			return nil, fmt.Errorf("response body is text, not JSON: %w", err)
		}
		return doc, nil
	case []byte:
		return nil, fmt.Errorf("cannot query a binary response body (%d bytes)", len(v))
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("cannot query response data of type %T: %w", v, err)
		}
		var doc any
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("cannot query response data of type %T: %w", v, err)
		}
		return doc, nil
	}
}
