package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strings"
)

// Decoder turns a response body into Response.Data.
type Decoder func(body []byte) (any, error)

// DecoderRule selects a Decoder for content types matching Pattern.
// Pattern is matched against the full, lower-cased Content-Type header value.
type DecoderRule struct {
	Pattern *regexp.Regexp
	Decode  Decoder
}

// defaultDecoders is the built-in content-type dispatch table. Rules are
// tried in order; bodies that match none are returned as []byte.
var defaultDecoders = []DecoderRule{
	{Pattern: regexp.MustCompile(`^application/(json|[a-z0-9.+-]+\+json)(;|$)`), Decode: decodeJSON},
	{Pattern: regexp.MustCompile(`^text/|charset=utf-8`), Decode: decodeText},
}

func decodeJSON(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeText(body []byte) (any, error) {
	return string(body), nil
}

func decodeBinary(body []byte) (any, error) {
	if len(body) == 0 {
		return nil, nil
	}
	return body, nil
}

// selectDecoder returns the first rule matching contentType, or the binary
// decoder when nothing matches or the header is absent.
func selectDecoder(rules []DecoderRule, contentType string) Decoder {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "" {
		return decodeBinary
	}
	if mediaType, params, err := mime.ParseMediaType(ct); err == nil {
		// Normalize spacing so "application/json;charset=utf-8" and
		// "application/json; charset=utf-8" match the same rules.
		ct = mime.FormatMediaType(mediaType, params)
	}
	for _, rule := range rules {
		if rule.Pattern != nil && rule.Decode != nil && rule.Pattern.MatchString(ct) {
			return rule.Decode
		}
	}
	return decodeBinary
}

// hasNoBody reports whether the response carries no body by definition.
func hasNoBody(method string, status int) bool {
	return method == http.MethodHead || status == http.StatusNoContent || status == http.StatusResetContent
}

// finalURL is the URL the transport ended at, falling back to the request URL.
func finalURL(d *Descriptor, resp *http.Response) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return d.URL
}

// classify reads the response and returns either a Response (2xx) or a
// *RequestError. The body is always closed unless it is handed to the caller
// through Options.StreamBody.
func (c *Client) classify(d *Descriptor, resp *http.Response, opts Options) (*Response, *RequestError) {
	status := resp.StatusCode
	headers := foldHeaders(resp.Header)
	rateLimit := ParseRateLimitHeaders(resp.Header)
	u := finalURL(d, resp)
	success := status >= 200 && status < 300

	c.warnDeprecation(d, resp.Header)

	if success && opts.StreamBody && resp.Body != nil && !hasNoBody(d.Method, status) {
		return &Response{
			Status:    status,
			URL:       u,
			Headers:   headers,
			Data:      resp.Body,
			RateLimit: rateLimit,
		}, nil
	}

	data, err := c.readBody(d, resp)
	if err != nil {
		return nil, newBodyError(d, &ErrorResponse{
			Status:    status,
			URL:       u,
			Headers:   headers,
			RateLimit: rateLimit,
		}, err)
	}

	if !success {
		return nil, newHTTPError(d, &ErrorResponse{
			Status:    status,
			URL:       u,
			Headers:   headers,
			Data:      data,
			RateLimit: rateLimit,
		})
	}

	return &Response{
		Status:    status,
		URL:       u,
		Headers:   headers,
		Data:      data,
		RateLimit: rateLimit,
	}, nil
}

// readBody drains and closes the body and decodes it by content type.
func (c *Client) readBody(d *Descriptor, resp *http.Response) (any, error) {
	if resp.Body == nil {
		return nil, nil
	}
	defer resp.Body.Close()

	if hasNoBody(d.Method, resp.StatusCode) {
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	decode := selectDecoder(c.config.Decoders, resp.Header.Get("Content-Type"))
	data, err := decode(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	return data, nil
}

// warnDeprecation logs the Deprecation/Sunset headers of a response.
func (c *Client) warnDeprecation(d *Descriptor, h http.Header) {
	if h.Get("Deprecation") == "" {
		return
	}

	msg := fmt.Sprintf("%q is deprecated", d.Method+" "+redactURL(d.URL))
	if sunset := h.Get("Sunset"); sunset != "" {
		msg += ". It is scheduled to be removed on " + sunset
	}
	if link := deprecationLink(h.Values("Link")); link != "" {
		msg += ". See " + link
	}
	c.config.Logger.Warn().Str("request_id", d.ID).Msg(msg)
}

var deprecationLinkRe = regexp.MustCompile(`<([^>]+)>;\s*rel="deprecation"`)

func deprecationLink(values []string) string {
	for _, v := range values {
		if m := deprecationLinkRe.FindStringSubmatch(v); m != nil {
			return m[1]
		}
	}
	return ""
}
