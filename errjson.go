package twirp

import (
	"encoding/json"
	"fmt"

	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

// The JSON layout of Error is part of the wire protocol, so it is written by
// hand instead of relying on struct tags: code and msg in that order, meta
// only when present, status never.

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	out := jwriter.Writer{}
	out.RawByte('{')
	out.RawString(`"code":`)
	out.String(e.Code)
	out.RawString(`,"msg":`)
	out.String(e.Msg)
	if len(e.Meta) > 0 {
		out.RawString(`,"meta":`)
		out.Raw(e.Meta, nil)
	}
	out.RawByte('}')
	return out.Buffer.BuildBytes(), out.Error
}

// ParseError parses a Twirp JSON error body. The HTTP status is not part of
// the body; the caller supplies it from the HTTP layer. code and msg are
// required fields: a body without them is not an error envelope.
func ParseError(statusCode int, body []byte) (*Error, error) {
	e := &Error{StatusCode: statusCode}
	var hasCode, hasMsg bool

	in := jlexer.Lexer{Data: body}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeBytes()
		in.WantColon()
		switch string(key) {
		case "code":
			e.Code = in.String()
			hasCode = true
		case "msg":
			e.Msg = in.String()
			hasMsg = true
		case "meta":
			e.Meta = json.RawMessage(append([]byte(nil), in.Raw()...))
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	in.Consumed()

	if err := in.Error(); err != nil {
		return nil, err
	}
	if !hasCode || !hasMsg {
		return nil, fmt.Errorf("error body missing required fields (code: %t, msg: %t)", hasCode, hasMsg)
	}
	return e, nil
}
