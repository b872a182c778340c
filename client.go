package twirp

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
)

// Client issues Twirp calls against one service root URL. It is a thin
// wrapper over an *http.Client: no retries, no timeouts, no pooling beyond
// what the HTTP client provides. Safe for concurrent use.
type Client struct {
	http *http.Client
	root string
	log  *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the logger for per-call debug logs.
func WithClientLogger(log *zap.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient returns a Client calling methods under rootURL. Trailing slashes
// on rootURL are trimmed.
func NewClient(hc *http.Client, rootURL string, opts ...ClientOption) *Client {
	c := &Client{
		http: hc,
		root: strings.TrimRight(rootURL, "/"),
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the absolute URL for a method path. Exactly one slash joins
// the root and the path, whatever slashes the inputs carry.
func (c *Client) URL(path string) string {
	return c.root + "/" + strings.TrimLeft(path, "/")
}

// Call issues one POST of req to path under c's root and returns the decoded
// response. Encode failures return before any HTTP traffic; transport
// failures are a *TransportError; non-success statuses come back as a
// protocol error carried in a *BodyError (see DecodeResponse).
func Call[Out any, POut Ptr[Out], In proto.Message](ctx context.Context, c *Client, path string, req *Request[In]) (*Response[POut], error) {
	raw, err := EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	raw.URL = c.URL(path)

	hr, err := NewHTTPRequest(ctx, raw)
	if err != nil {
		return nil, err
	}

	c.log.Debug("twirp call", zap.String("url", raw.URL), zap.Int("body-len", len(raw.Body)))
	hres, err := c.http.Do(hr)
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	return DecodeHTTPResponse[Out, POut](hres)
}
