package jira

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// OutboundRequest is a fully resolved, authenticated request.
type OutboundRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Executor performs exactly one request/response exchange and returns the
// raw response body.
type Executor interface {
	Execute(ctx context.Context, req *OutboundRequest) (string, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, req *OutboundRequest) (string, error)

func (f ExecutorFunc) Execute(ctx context.Context, req *OutboundRequest) (string, error) {
	return f(ctx, req)
}

// HTTPDoer abstracts HTTP request execution. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPError is a response with a non-2xx status code.
type HTTPError struct {
	StatusCode int    // HTTP status code of the response
	Message    string // message extracted from Jira's error envelope
	Body       string // raw response body
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// HTTPExecutor is the default Executor. It issues a single request through
// its HTTPDoer, with no retries and no timeout of its own.
type HTTPExecutor struct {
	client HTTPDoer
}

// NewHTTPExecutor wraps client. A nil client selects a fresh *http.Client
// with no timeout.
func NewHTTPExecutor(client HTTPDoer) *HTTPExecutor {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPExecutor{client: client}
}

// Execute returns the body of a 2xx or 3xx response. Anything else is an
// *HTTPError wrapped in ErrTransport.
func (e *HTTPExecutor) Execute(ctx context.Context, out *OutboundRequest) (string, error) {
	var body io.Reader
	if len(out.Body) > 0 {
		body = bytes.NewReader(out.Body)
	}
	req, err := http.NewRequestWithContext(ctx, out.Method, out.URL, body)
	if err != nil {
		return "", ErrTransport.MsgErr("failed to create request", err)
	}
	for k, vs := range out.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", ErrTransport.MsgErr("request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", ErrTransport.MsgErr("failed to read response body", err)
	}

	if resp.StatusCode >= 400 {
		httpErr := &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
			Body:       string(respBody),
		}
		return "", ErrTransport.MsgErr(httpErr.Error(), httpErr).SetStatusCode(resp.StatusCode)
	}

	return string(respBody), nil
}

// errorMessage extracts a readable message from Jira's error envelope:
// {"errorMessages": [...], "errors": {"field": "msg"}} or {"message": "..."}.
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}
	var parts []string
	gjson.GetBytes(body, "errorMessages").ForEach(func(_, v gjson.Result) bool {
		parts = append(parts, v.String())
		return true
	})
	gjson.GetBytes(body, "errors").ForEach(func(k, v gjson.Result) bool {
		parts = append(parts, k.String()+": "+v.String())
		return true
	})
	if len(parts) == 0 {
		if m := gjson.GetBytes(body, "message"); m.Exists() {
			return m.String()
		}
		return strings.TrimSpace(string(body))
	}
	return strings.Join(parts, "; ")
}
