// Package endpoint turns a route string and parameters into a resolved
// request.Endpoint.
//
// It is a minimal default for the resolver collaborator: "{name}" path
// placeholders, remaining parameters as query string (GET, HEAD) or JSON body
// (other methods), and a base URL for relative routes. It is not a URI
// template engine.
package endpoint

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/jeffersonwarrior/reqcore/request"
)

// Resolver produces the method, URL, headers and body for a route.
type Resolver interface {
	Resolve(route string, params map[string]any) (request.Endpoint, error)
}

// DataParam is the parameter whose value is sent verbatim as the body.
const DataParam = "data"

// Defaults resolves routes against a base URL and default headers.
type Defaults struct {
	BaseURL string
	Headers map[string]string
}

var placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

// Resolve parses route ("GET /repos/{owner}/{repo}" or just a URL/path) and
// applies params. params is not modified.
func (d Defaults) Resolve(route string, params map[string]any) (request.Endpoint, error) {
	method, path := splitRoute(route)
	if path == "" {
		return request.Endpoint{}, fmt.Errorf("route %q has no path", route)
	}

	remaining := make(map[string]any, len(params))
	for k, v := range params {
		remaining[k] = v
	}

	var missing []string
	path = placeholderRe.ReplaceAllStringFunc(path, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := remaining[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		delete(remaining, name)
		return url.PathEscape(fmt.Sprint(v))
	})
	if len(missing) > 0 {
		return request.Endpoint{}, fmt.Errorf("missing parameters for %q: %s", route, strings.Join(missing, ", "))
	}

	u, err := d.absolute(path)
	if err != nil {
		return request.Endpoint{}, err
	}

	ep := request.Endpoint{
		Method:  method,
		Headers: make(map[string]string, len(d.Headers)),
	}
	for k, v := range d.Headers {
		ep.Headers[k] = v
	}

	if raw, ok := remaining[DataParam]; ok {
		delete(remaining, DataParam)
		body, err := encodeBody(raw)
		if err != nil {
			return request.Endpoint{}, err
		}
		ep.Body = body
	}

	if len(remaining) > 0 {
		if method == http.MethodGet || method == http.MethodHead || ep.Body != nil {
			q := u.Query()
			for _, k := range sortedKeys(remaining) {
				q.Set(k, fmt.Sprint(remaining[k]))
			}
			u.RawQuery = q.Encode()
		} else {
			body, err := json.Marshal(remaining)
			if err != nil {
				return request.Endpoint{}, fmt.Errorf("failed to encode body: %w", err)
			}
			ep.Body = body
		}
	}

	ep.URL = u.String()
	return ep, nil
}

// splitRoute separates an optional leading method from the path.
func splitRoute(route string) (method, path string) {
	route = strings.TrimSpace(route)
	if i := strings.IndexByte(route, ' '); i > 0 {
		return strings.ToUpper(route[:i]), strings.TrimSpace(route[i+1:])
	}
	return http.MethodGet, route
}

func (d Defaults) absolute(path string) (*url.URL, error) {
	u, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid route path %q: %w", path, err)
	}
	if u.IsAbs() || d.BaseURL == "" {
		return u, nil
	}

	base, err := url.Parse(strings.TrimRight(d.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", d.BaseURL, err)
	}
	return base.ResolveReference(&url.URL{
		Path:     strings.TrimLeft(u.Path, "/"),
		RawPath:  strings.TrimLeft(u.RawPath, "/"),
		RawQuery: u.RawQuery,
	}), nil
}

// encodeBody sends strings and byte slices as-is and JSON-encodes anything else.
func encodeBody(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	case json.RawMessage:
		return b, nil
	}
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode body: %w", err)
	}
	return body, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
