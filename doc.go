// Package twirp implements the client and server runtime for the Twirp RPC
// protocol: protobuf payloads POSTed over HTTP, with a JSON error envelope.
//
// One RPC is one HTTP exchange. The runtime converts between three payload
// representations: native net/http requests and responses, the raw envelopes
// RawRequest and RawResponse carrying body bytes plus HTTP metadata, and
// typed envelopes Request[M] and Response[M] carrying a decoded protobuf
// message. ReadRequest, NewHTTPRequest, WriteResponse and ReadResponse move
// between HTTP and the raw envelopes; DecodeRequest, EncodeRequest,
// DecodeResponse and EncodeResponse move between raw and typed.
//
// Servers register a Handler per method on a Server and mount it as an
// http.Handler; clients wrap an *http.Client in a Client and invoke methods
// through Call. Both ends are normally driven by code emitted by the
// generator package rather than by hand.
package twirp
