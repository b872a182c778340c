package twirp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

const (
	// ContentTypeProtobuf is the content type of request and success
	// response bodies.
	ContentTypeProtobuf = "application/protobuf"
	// ContentTypeJSON is the content type of error response bodies. It is
	// also accepted for request bodies.
	ContentTypeJSON = "application/json"

	headerContentType   = "Content-Type"
	headerContentLength = "Content-Length"

	protoHTTP11 = "HTTP/1.1"
)

// Ptr constrains a type parameter to a pointer to a protobuf message, so
// that decode functions can allocate the message themselves.
type Ptr[M any] interface {
	*M
	proto.Message
}

// Request carries the HTTP metadata of one RPC request plus its payload.
// The payload is either raw bytes (see RawRequest) or a decoded protobuf
// message.
type Request[T any] struct {
	// URL of the original request. Clients overwrite it with the computed
	// Twirp URL before sending; it is only meaningful on servers.
	URL string
	// Method is the HTTP verb, always POST for valid Twirp traffic.
	Method string
	// Proto is the HTTP version, e.g. "HTTP/1.1".
	Proto string
	// Header always carries at least Content-Type. Content-Length is
	// overwritten on serialization.
	Header http.Header
	// Body is the request payload.
	Body T
}

// Response carries the HTTP metadata of one RPC response plus its payload.
type Response[T any] struct {
	Proto      string
	Header     http.Header
	StatusCode int
	Body       T
}

// RawRequest is a request envelope whose payload is the raw body bytes.
type RawRequest = Request[[]byte]

// RawResponse is a response envelope whose payload is the raw body bytes.
type RawResponse = Response[[]byte]

// NewRequest returns a request envelope around body with Content-Type set
// to application/protobuf.
func NewRequest[T any](body T) *Request[T] {
	header := make(http.Header, 1)
	header.Set(headerContentType, ContentTypeProtobuf)
	return &Request[T]{
		Method: http.MethodPost,
		Proto:  protoHTTP11,
		Header: header,
		Body:   body,
	}
}

// NewResponse returns a 200 response envelope around body with Content-Type
// set to application/protobuf.
func NewResponse[T any](body T) *Response[T] {
	header := make(http.Header, 1)
	header.Set(headerContentType, ContentTypeProtobuf)
	return &Response[T]{
		Proto:      protoHTTP11,
		Header:     header,
		StatusCode: http.StatusOK,
		Body:       body,
	}
}

// CloneRequest copies r with a new payload, preserving all HTTP metadata.
func CloneRequest[U, T any](r *Request[T], body U) *Request[U] {
	return &Request[U]{
		URL:    r.URL,
		Method: r.Method,
		Proto:  r.Proto,
		Header: r.Header.Clone(),
		Body:   body,
	}
}

// CloneResponse copies r with a new payload, preserving all HTTP metadata.
func CloneResponse[U, T any](r *Response[T], body U) *Response[U] {
	return &Response[U]{
		Proto:      r.Proto,
		Header:     r.Header.Clone(),
		StatusCode: r.StatusCode,
		Body:       body,
	}
}

// ReadRequest consumes hr's body entirely and returns the raw request
// envelope. Metadata is captured before the body is read; a failed read is a
// *TransportError.
func ReadRequest(hr *http.Request) (*RawRequest, error) {
	req := &RawRequest{
		URL:    hr.URL.String(),
		Method: hr.Method,
		Proto:  hr.Proto,
		Header: hr.Header.Clone(),
	}
	body, err := io.ReadAll(hr.Body)
	if err != nil {
		return nil, &TransportError{Cause: fmt.Errorf("read request body: %w", err)}
	}
	req.Body = body
	return req, nil
}

// ReadResponse consumes hres's body entirely and returns the raw response
// envelope. A failed read is a *TransportError.
func ReadResponse(hres *http.Response) (*RawResponse, error) {
	defer hres.Body.Close()
	res := &RawResponse{
		Proto:      hres.Proto,
		Header:     hres.Header.Clone(),
		StatusCode: hres.StatusCode,
	}
	body, err := io.ReadAll(hres.Body)
	if err != nil {
		return nil, &TransportError{Cause: fmt.Errorf("read response body: %w", err)}
	}
	res.Body = body
	return res, nil
}

// NewHTTPRequest builds the outbound HTTP request for r. All envelope headers
// are copied, then Content-Length is overwritten with the payload length.
// POST is stamped regardless of r.Method.
func NewHTTPRequest(ctx context.Context, r *RawRequest) (*http.Request, error) {
	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(r.Body))
	if err != nil {
		return nil, &TransportError{Cause: fmt.Errorf("build request: %w", err)}
	}
	for name, values := range r.Header {
		hr.Header[name] = append([]string(nil), values...)
	}
	hr.ContentLength = int64(len(r.Body))
	hr.Header.Set(headerContentLength, strconv.Itoa(len(r.Body)))
	return hr, nil
}

// WriteResponse writes r to w, overwriting Content-Length with the payload
// length. A failed body write is a *TransportError.
func WriteResponse(w http.ResponseWriter, r *RawResponse) error {
	header := w.Header()
	for name, values := range r.Header {
		header[name] = append([]string(nil), values...)
	}
	header.Set(headerContentLength, strconv.Itoa(len(r.Body)))
	w.WriteHeader(r.StatusCode)
	if _, err := w.Write(r.Body); err != nil {
		return &TransportError{Cause: fmt.Errorf("write response body: %w", err)}
	}
	return nil
}

// DecodeRequest decodes a raw request body into the message type M.
// Bodies with Content-Type application/json are decoded as protojson,
// everything else as binary protobuf. Decode failures are wrapped in a
// *BodyError carrying the raw body and request metadata.
func DecodeRequest[M any, PM Ptr[M]](r *RawRequest) (*Request[PM], error) {
	msg := PM(new(M))
	var err error
	if contentType(r.Header) == ContentTypeJSON {
		err = protojson.Unmarshal(r.Body, msg)
	} else {
		err = proto.Unmarshal(r.Body, msg)
	}
	if err != nil {
		return nil, &BodyError{
			Body:   r.Body,
			Method: r.Method,
			Proto:  r.Proto,
			Header: r.Header,
			Err:    &DecodeError{Cause: err},
		}
	}
	return CloneRequest(r, msg), nil
}

// EncodeRequest encodes a typed request into a fresh raw body. Encode
// failures are a *EncodeError; no body exists yet, so they are never
// body-wrapped.
func EncodeRequest[M proto.Message](r *Request[M]) (*RawRequest, error) {
	body, err := proto.Marshal(r.Body)
	if err != nil {
		return nil, &EncodeError{Cause: err}
	}
	return CloneRequest(r, body), nil
}

// DecodeResponse decodes a raw response into the message type M. Success
// statuses decode the body as protobuf; any other status parses the body as
// the Twirp JSON error envelope, inheriting the HTTP status, and returns it
// as an error. Either way, parse failures and protocol errors are wrapped in
// a *BodyError carrying the raw body and response metadata.
func DecodeResponse[M any, PM Ptr[M]](r *RawResponse) (*Response[PM], error) {
	wrap := func(err error) error {
		return &BodyError{
			Body:       r.Body,
			Proto:      r.Proto,
			Header:     r.Header,
			StatusCode: r.StatusCode,
			Err:        err,
		}
	}

	if r.StatusCode < 200 || r.StatusCode > 299 {
		twerr, err := ParseError(r.StatusCode, r.Body)
		if err != nil {
			return nil, wrap(&JSONError{Cause: err})
		}
		return nil, wrap(twerr)
	}

	msg := PM(new(M))
	if err := proto.Unmarshal(r.Body, msg); err != nil {
		return nil, wrap(&DecodeError{Cause: err})
	}
	return CloneResponse(r, msg), nil
}

// EncodeResponse encodes a typed response into a fresh raw body.
func EncodeResponse[M proto.Message](r *Response[M]) (*RawResponse, error) {
	body, err := proto.Marshal(r.Body)
	if err != nil {
		return nil, &EncodeError{Cause: err}
	}
	return CloneResponse(r, body), nil
}

// DecodeHTTPRequest reads and decodes an inbound HTTP request in one step.
func DecodeHTTPRequest[M any, PM Ptr[M]](hr *http.Request) (*Request[PM], error) {
	raw, err := ReadRequest(hr)
	if err != nil {
		return nil, err
	}
	return DecodeRequest[M, PM](raw)
}

// DecodeHTTPResponse reads and decodes an inbound HTTP response in one step.
func DecodeHTTPResponse[M any, PM Ptr[M]](hres *http.Response) (*Response[PM], error) {
	raw, err := ReadResponse(hres)
	if err != nil {
		return nil, err
	}
	return DecodeResponse[M, PM](raw)
}

// EncodeHTTPRequest encodes a typed request and builds the outbound HTTP
// request in one step.
func EncodeHTTPRequest[M proto.Message](ctx context.Context, r *Request[M]) (*http.Request, error) {
	raw, err := EncodeRequest(r)
	if err != nil {
		return nil, err
	}
	return NewHTTPRequest(ctx, raw)
}

// contentType returns the media type of the Content-Type header, lowercased
// and with parameters such as "; charset=utf-8" stripped.
func contentType(header http.Header) string {
	value := header.Get(headerContentType)
	if value == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(value))
	}
	return mediaType
}
