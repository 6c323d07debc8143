package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"

	"github.com/jeffersonwarrior/reqcore/internal/query"
	"github.com/jeffersonwarrior/reqcore/request"
)

type requestFlags struct {
	fields      []string
	typedFields []string
	headers     []string
	data        string
	redirect    string
	query       string
	stream      bool
}

func (a *app) newRequestCmd() *cobra.Command {
	var f requestFlags

	cmd := &cobra.Command{
		Use:   "request ROUTE",
		Short: "Execute one route",
		Example: `  reqcore request "GET /orgs/{org}/repos" -f org=octokit -F per_page=5
  reqcore request "POST /repos/{owner}/{repo}/issues" -f owner=me -f repo=x -f title=bug
  reqcore request /rate_limit --query resources.core`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRequest(cmd, args[0], f)
		},
	}

	cmd.Flags().StringArrayVarP(&f.fields, "field", "f", nil, "Add a string parameter (key=value)")
	cmd.Flags().StringArrayVarP(&f.typedFields, "typed-field", "F", nil, "Add a parameter, converting true, false, null and numbers (key=value)")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, "Add a request header ('Name: value')")
	cmd.Flags().StringVar(&f.data, "data", "", "Request body as JSON, or @file (comments and trailing commas allowed)")
	cmd.Flags().StringVar(&f.redirect, "redirect", "", "Redirect policy: follow, manual or error (default from config)")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "JMESPath expression applied to the response data")
	cmd.Flags().BoolVar(&f.stream, "stream", false, "Write the raw response body to stdout without decoding")

	return cmd
}

func (a *app) runRequest(cmd *cobra.Command, route string, f requestFlags) error {
	if f.stream && f.query != "" {
		return fmt.Errorf("--query cannot be combined with --stream")
	}

	params, err := parseFields(f.fields, false)
	if err != nil {
		return err
	}
	typed, err := parseFields(f.typedFields, true)
	if err != nil {
		return err
	}
	for k, v := range typed {
		params[k] = v
	}
	if f.data != "" {
		body, err := readData(f.data)
		if err != nil {
			return err
		}
		params["data"] = body
	}

	headers, err := parseHeaders(f.headers)
	if err != nil {
		return err
	}

	redirect := f.redirect
	if redirect == "" {
		redirect = a.cfg.Redirect
	}
	policy, err := request.ParseRedirect(redirect)
	if err != nil {
		return err
	}

	ep, err := a.resolver().Resolve(route, params)
	if err != nil {
		return err
	}
	for k, v := range headers {
		ep.Headers[k] = v
	}

	hist, err := a.openHistory()
	if err != nil {
		return err
	}
	if hist != nil {
		defer hist.Close()
	}

	ctx, cancel := a.callContext(cmd.Context())
	defer cancel()

	resp, err := a.newClient(hist).Do(ctx, ep, request.Options{Redirect: policy, StreamBody: f.stream})
	if err != nil {
		var reqErr *request.RequestError
		if !errors.As(err, &reqErr) {
			return err
		}
		if werr := writeJSON(a.stdout, errorOutput(reqErr)); werr != nil {
			return werr
		}
		fmt.Fprintf(a.stderr, "%d %s %s: %s\n", reqErr.Status, ep.Method, reqErr.Request.URL, reqErr.Message)
		return reqErr
	}

	if body, ok := resp.Data.(io.ReadCloser); ok {
		defer body.Close()
		n, err := io.Copy(a.stdout, body)
		if err != nil {
			return fmt.Errorf("failed to stream response body: %w", err)
		}
		a.summarize(resp, ep.Method, n)
		return nil
	}

	var out any = responseOutput(resp)
	if f.query != "" {
		if out, err = query.Apply(resp.Data, f.query); err != nil {
			return err
		}
	}

	cw := &countingWriter{w: a.stdout}
	if err := writeJSON(cw, out); err != nil {
		return err
	}
	a.summarize(resp, ep.Method, cw.n)
	return nil
}

// summarize prints a one-line summary of a successful call to stderr.
func (a *app) summarize(resp *request.Response, method string, n int64) {
	line := fmt.Sprintf("%d %s %s %s in %s", resp.Status, method, resp.URL, humanize.Bytes(uint64(n)), resp.Duration.Round(time.Millisecond))
	if rl := resp.RateLimit; rl != nil && rl.Limit > 0 {
		line += fmt.Sprintf(", %s/%s requests left", humanize.Comma(int64(rl.Remaining)), humanize.Comma(int64(rl.Limit)))
		if !rl.Reset.IsZero() {
			line += ", resets " + humanize.Time(rl.Reset)
		}
	}
	fmt.Fprintln(a.stderr, line)
}

type responseJSON struct {
	Status  int               `json:"status"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Data    any               `json:"data"`
}

type errorJSON struct {
	Status   int           `json:"status"`
	Message  string        `json:"message"`
	Response *responseJSON `json:"response,omitempty"`
}

func responseOutput(resp *request.Response) responseJSON {
	return responseJSON{Status: resp.Status, URL: resp.URL, Headers: resp.Headers, Data: printable(resp.Data)}
}

func errorOutput(err *request.RequestError) errorJSON {
	out := errorJSON{Status: err.Status, Message: err.Message}
	if r := err.Response; r != nil {
		out.Response = &responseJSON{Status: r.Status, URL: r.URL, Headers: r.Headers, Data: printable(r.Data)}
	}
	return out
}

// printable keeps binary payloads out of the JSON output.
func printable(v any) any {
	if b, ok := v.([]byte); ok {
		return fmt.Sprintf("<%s binary>", humanize.Bytes(uint64(len(b))))
	}
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// parseFields turns key=value pairs into parameters. With typed set, true,
// false, null and integers are converted; "@path" reads the value from a file.
func parseFields(pairs []string, typed bool) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q: expected key=value", p)
		}
		if !typed {
			params[key] = value
			continue
		}
		v, err := typedValue(value)
		if err != nil {
			return nil, fmt.Errorf("invalid field %q: %w", p, err)
		}
		params[key] = v
	}
	return params, nil
}

func typedValue(s string) (any, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	if path, ok := strings.CutPrefix(s, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(b), nil
	}
	return s, nil
}

// parseHeaders parses "Name: value" pairs.
func parseHeaders(lines []string) (map[string]string, error) {
	headers := make(map[string]string, len(lines))
	for _, l := range lines {
		name, value, ok := strings.Cut(l, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q: expected 'Name: value'", l)
		}
		headers[strings.ToLower(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}

// readData returns a JSON body from an inline value or an @file. Comments and
// trailing commas are stripped.
func readData(arg string) (json.RawMessage, error) {
	raw := []byte(arg)
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read data file: %w", err)
		}
		raw = b
	}

	body := jsonc.ToJSON(raw)
	if !json.Valid(body) {
		return nil, fmt.Errorf("--data is not valid JSON")
	}
	return json.RawMessage(body), nil
}
