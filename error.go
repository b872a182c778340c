package twirp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// Stable error codes emitted by the server dispatch.
const (
	CodeNotFound       = "not_found"
	CodeBadContentType = "bad_content_type"
	CodeProtobufDecode = "protobuf_decode_err"
	CodeInternal       = "internal_err"
)

// Error is the Twirp protocol error envelope. On the wire it is a JSON body
// of the form {"code":...,"msg":...,"meta":...}; the HTTP status travels in
// the status line, never in the body.
type Error struct {
	// StatusCode is the HTTP status of the error. It is not serialized;
	// when parsing it is taken from the HTTP layer.
	StatusCode int
	Code       string
	Msg        string
	// Meta is an optional structured value, omitted from output when nil.
	Meta json.RawMessage
}

// NewError returns an Error without meta.
func NewError(statusCode int, code, msg string) *Error {
	return &Error{StatusCode: statusCode, Code: code, Msg: msg}
}

// NewErrorMeta returns an Error with an optional meta value.
func NewErrorMeta(statusCode int, code, msg string, meta json.RawMessage) *Error {
	return &Error{StatusCode: statusCode, Code: code, Msg: msg, Meta: meta}
}

func (e *Error) Error() string {
	return fmt.Sprintf("twirp %s: %s", e.Code, e.Msg)
}

// Response renders e as a raw response envelope with a JSON body. Rendering
// never fails: if the body cannot be serialized it falls back to "{}".
func (e *Error) Response() *RawResponse {
	body, err := e.MarshalJSON()
	if err != nil {
		body = []byte("{}")
	}
	header := make(http.Header, 2)
	header.Set(headerContentType, ContentTypeJSON)
	header.Set(headerContentLength, strconv.Itoa(len(body)))
	return &RawResponse{
		Proto:      protoHTTP11,
		Header:     header,
		StatusCode: e.StatusCode,
		Body:       body,
	}
}

// WriteHTTP writes e to w as the canonical JSON error response.
func (e *Error) WriteHTTP(w http.ResponseWriter) {
	body, err := e.MarshalJSON()
	if err != nil {
		body = []byte("{}")
	}
	header := w.Header()
	header.Set(headerContentType, ContentTypeJSON)
	header.Set(headerContentLength, strconv.Itoa(len(body)))
	w.WriteHeader(e.StatusCode)
	w.Write(body) //nolint:errcheck
}

// Canonical dispatch errors.
func errNotFound() *Error {
	return NewError(http.StatusNotFound, CodeNotFound, "Not found")
}

func errBadContentType() *Error {
	return NewError(http.StatusUnsupportedMediaType, CodeBadContentType, "Content type must be application/protobuf")
}

func errBadProtobuf() *Error {
	return NewError(http.StatusBadRequest, CodeProtobufDecode, "Invalid protobuf body")
}

func errInternal() *Error {
	return NewError(http.StatusInternalServerError, CodeInternal, "Internal Error")
}

// TransportError wraps a failure of the underlying HTTP transport. It is
// propagated to the HTTP layer unchanged, never rendered as a JSON envelope.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string { return "transport: " + e.Cause.Error() }
func (e *TransportError) Unwrap() error { return e.Cause }

// EncodeError wraps a protobuf encode failure.
type EncodeError struct {
	Cause error
}

func (e *EncodeError) Error() string { return "encode protobuf: " + e.Cause.Error() }
func (e *EncodeError) Unwrap() error { return e.Cause }

// DecodeError wraps a payload decode failure.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string { return "decode body: " + e.Cause.Error() }
func (e *DecodeError) Unwrap() error { return e.Cause }

// JSONError wraps a failure to parse an error body as the Twirp JSON
// envelope.
type JSONError struct {
	Cause error
}

func (e *JSONError) Error() string { return "decode error body: " + e.Cause.Error() }
func (e *JSONError) Unwrap() error { return e.Cause }

// BodyError decorates another error with the raw body that was in flight
// when it occurred, so diagnostic consumers can inspect the bytes. The wire
// response produced from it never leaks the body.
type BodyError struct {
	// Body is the raw request or response body read before the error.
	Body []byte
	// Method is set when the error originated on a request.
	Method string
	Proto  string
	Header http.Header
	// StatusCode is set when the error originated on a response.
	StatusCode int
	// Err is the underlying error.
	Err error
}

func (e *BodyError) Error() string { return e.Err.Error() }
func (e *BodyError) Unwrap() error { return e.Err }

// RootError strips any BodyError layers from err and returns the underlying
// error.
func RootError(err error) error {
	for {
		be, ok := err.(*BodyError)
		if !ok {
			return err
		}
		err = be.Err
	}
}

// WriteError maps err to the canonical JSON error response and writes it to
// w. Protocol errors keep their own status and code, decode failures map to
// 400 protobuf_decode_err, anything else to 500 internal_err. Transport
// errors are returned to the caller instead of being written: they are
// connection failures the HTTP layer must handle.
func WriteError(w http.ResponseWriter, err error) error {
	switch root := RootError(err).(type) {
	case *Error:
		root.WriteHTTP(w)
	case *DecodeError:
		errBadProtobuf().WriteHTTP(w)
	case *TransportError:
		return root
	default:
		errInternal().WriteHTTP(w)
	}
	return nil
}
