// Package request executes a single resolved endpoint through a pluggable
// transport and normalizes the outcome.
//
// A call goes through four stages:
//   - Request Builder: copies the resolved endpoint into a fresh Descriptor and
//     applies per-call options (redirect policy, cancellation context)
//   - Transport Adapter: resolves the Fetcher (per-call override first, then
//     the client default) and dispatches exactly once
//   - Response Classifier: picks a body decoder from the response content type
//     and splits 2xx from everything else
//   - Error Normalizer: turns transport failures, HTTP failures and body decode
//     failures into a single *RequestError
//
// Every call returns either a *Response or a *RequestError. The only
// exception is ErrFetchNotSet, returned as-is when no Fetcher is available.
//
// The package does no retries and enforces no timeout. Callers bound latency
// through the context they pass in.
//
// Example usage:
//
//	client := request.New()
//	resp, err := client.Do(ctx, request.Endpoint{
//	    Method: "GET",
//	    URL:    "https://api.github.com/orgs/octokit",
//	}, request.Options{Redirect: request.RedirectManual})
//	if err != nil {
//	    var reqErr *request.RequestError
//	    if errors.As(err, &reqErr) {
//	        log.Printf("status %d: %s", reqErr.Status, reqErr.Message)
//	    }
//	    return err
//	}
//	fmt.Println(resp.Status, resp.Data)
package request
