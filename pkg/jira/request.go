package jira

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/tansive/jiraclient/internal/common/logtrace"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RequestDescriptor is one logical API call. Endpoint methods create one per
// call; the client does not retain it.
type RequestDescriptor struct {
	Method string     // GET, POST, PUT, DELETE, ...
	Path   string     // relative to the configured host, e.g. /rest/api/2/statuscategory
	Query  url.Values // optional
	Body   any        // optional; []byte is sent verbatim, anything else is JSON-encoded

	// Operation names the endpoint method for logs and metrics.
	Operation string
}

func (d RequestDescriptor) validate() error {
	if strings.TrimSpace(d.Method) == "" {
		return ErrInvalidRequest.Msg("method is required")
	}
	if strings.TrimSpace(d.Path) == "" {
		return ErrInvalidRequest.Msg("path is required")
	}
	u, err := url.Parse(d.Path)
	if err != nil {
		return ErrInvalidRequest.MsgErr("unable to parse path", err)
	}
	if u.IsAbs() || u.Host != "" {
		return ErrInvalidRequest.Msg("path must be relative to the host: " + d.Path)
	}
	return nil
}

func (d RequestDescriptor) operation() string {
	if d.Operation != "" {
		return d.Operation
	}
	return "request"
}

func (d RequestDescriptor) encodeBody() ([]byte, error) {
	switch b := d.Body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, ErrInvalidRequest.MsgErr("unable to encode request body", err)
		}
		return data, nil
	}
}

// resolveURL appends the descriptor path and query to host.
func resolveURL(host string, d RequestDescriptor) string {
	path := d.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := strings.TrimRight(host, "/") + path
	if len(d.Query) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		u += sep + d.Query.Encode()
	}
	return u
}

// buildOutbound assembles the wire request. The X-Request-Id header carries
// the id stored in ctx by the client, if any.
func (c *Client) buildOutbound(ctx context.Context, d RequestDescriptor, token Token) (*OutboundRequest, error) {
	body, err := d.encodeBody()
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", token.HeaderValue())
	header.Set("Accept", "application/json")
	if id := logtrace.RequestIDFromContext(ctx); id != "" {
		header.Set("X-Request-Id", id)
	}
	if c.userAgent != "" {
		header.Set("User-Agent", c.userAgent)
	}
	if len(body) > 0 {
		header.Set("Content-Type", "application/json")
	}

	return &OutboundRequest{
		Method: strings.ToUpper(d.Method),
		URL:    resolveURL(c.config.Host, d),
		Header: header,
		Body:   body,
	}, nil
}
