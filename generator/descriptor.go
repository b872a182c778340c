// Package generator emits Go Twirp bindings from protobuf service
// descriptors: a service interface, a client calling through the runtime at
// the canonical Twirp paths, and a server constructor wiring an
// implementation into the runtime dispatch table.
package generator

import "strings"

// Service describes one protobuf service block, reduced to what the emitter
// needs.
type Service struct {
	// Package is the protobuf package, e.g. "example.echo".
	Package string
	// ProtoName is the service name exactly as written in the .proto file.
	ProtoName string
	// Name is the Go identifier for the service.
	Name string
	// GoPackage is the Go package name of the generated file.
	GoPackage string
	// Imports are the message packages referenced by the methods.
	Imports []Import
	Methods []Method
}

// Method describes one rpc within a service.
type Method struct {
	ProtoName string
	Name      string
	// InputType and OutputType are Go type references to the request and
	// response messages, without the leading "*". Messages from the
	// service's own package are unqualified.
	InputType  string
	OutputType string
}

// Import is one Go import of the generated file.
type Import struct {
	Alias string
	Path  string
}

// Path returns the Twirp routing path for m:
// /twirp/<package>.<ServiceProtoName>/<MethodProtoName>, proto names
// preserved verbatim.
func (s Service) Path(m Method) string {
	return "/twirp/" + s.Package + "." + s.ProtoName + "/" + m.ProtoName
}

// identifier converts a proto name to an exported Go identifier the way
// protoc-gen-go does: underscores dropped, following letters capitalized.
func identifier(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "")
}
