package generator

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// DefaultRuntimePackage is the import path of the runtime the generated code
// binds to.
const DefaultRuntimePackage = "github.com/vmg/twirp"

// Options are the free parameters of the generator.
type Options struct {
	// RuntimePackage overrides the import path of the runtime package.
	RuntimePackage string
	// GenerateClient and GenerateServer toggle the two bindings. The
	// service interface is always emitted.
	GenerateClient bool
	GenerateServer bool
}

// Generator emits Go source for protobuf services. It is a pure function of
// its options and the service descriptor.
type Generator struct {
	opts Options
	tmpl *template.Template
}

// New returns a Generator for the given options.
func New(opts Options) *Generator {
	if opts.RuntimePackage == "" {
		opts.RuntimePackage = DefaultRuntimePackage
	}
	return &Generator{
		opts: opts,
		tmpl: template.Must(template.New("service").Parse(serviceTemplate)),
	}
}

// FileName returns the output file name for svc's bindings. The proto
// package is part of the name so same-named services from different packages
// never collide in one output directory.
func FileName(svc Service) string {
	return strings.ToLower(svc.Package+"."+svc.ProtoName) + ".twirp.go"
}

// Generate returns the unformatted Go source of the bindings for svc. Run
// the result through Gofmt for cosmetics.
func (g *Generator) Generate(svc Service) ([]byte, error) {
	var buf bytes.Buffer
	err := g.tmpl.Execute(&buf, struct {
		Service Service
		Opts    Options
	}{svc, g.opts})
	if err != nil {
		return nil, fmt.Errorf("execute service template: %w", err)
	}
	return buf.Bytes(), nil
}

const serviceTemplate = `// Code generated by twirpgen. DO NOT EDIT.
// service: {{.Service.Package}}.{{.Service.ProtoName}}

package {{.Service.GoPackage}}

import (
	"context"
{{- if or .Opts.GenerateClient .Opts.GenerateServer}}
	"net/http"
{{- end}}

	twirp "{{.Opts.RuntimePackage}}"
{{- range .Service.Imports}}
	{{.Alias}} "{{.Path}}"
{{- end}}
)

// {{.Service.Name}} is the {{.Service.Package}}.{{.Service.ProtoName}} service.
// Implementations must be safe for concurrent invocation.
type {{.Service.Name}} interface {
{{- range .Service.Methods}}
	{{.Name}}(ctx context.Context, req *twirp.Request[*{{.InputType}}]) (*twirp.Response[*{{.OutputType}}], error)
{{- end}}
}
{{if .Opts.GenerateClient}}
// {{.Service.Name}}Client calls a remote {{.Service.Package}}.{{.Service.ProtoName}} service over HTTP.
type {{.Service.Name}}Client struct {
	client *twirp.Client
}

var _ {{.Service.Name}} = (*{{.Service.Name}}Client)(nil)

// New{{.Service.Name}}Client returns a client for the service rooted at rootURL.
func New{{.Service.Name}}Client(hc *http.Client, rootURL string, opts ...twirp.ClientOption) *{{.Service.Name}}Client {
	return &{{.Service.Name}}Client{client: twirp.NewClient(hc, rootURL, opts...)}
}
{{range .Service.Methods}}
func (c *{{$.Service.Name}}Client) {{.Name}}(ctx context.Context, req *twirp.Request[*{{.InputType}}]) (*twirp.Response[*{{.OutputType}}], error) {
	return twirp.Call[{{.OutputType}}](ctx, c.client, "{{$.Service.Path .}}", req)
}
{{end}}{{end}}
{{- if .Opts.GenerateServer}}
// {{.Service.Name}}Server exposes a {{.Service.Name}} implementation as an http.Handler.
type {{.Service.Name}}Server struct {
	server *twirp.Server
}

// New{{.Service.Name}}Server wires service into the runtime dispatch table.
func New{{.Service.Name}}Server(service {{.Service.Name}}, opts ...twirp.ServerOption) *{{.Service.Name}}Server {
	server := twirp.NewServer(opts...)
{{- range .Service.Methods}}
	server.Handle(http.MethodPost, "{{$.Service.Path .}}", func(ctx context.Context, raw *twirp.RawRequest) (*twirp.RawResponse, error) {
		req, err := twirp.DecodeRequest[{{.InputType}}](raw)
		if err != nil {
			return nil, err
		}
		res, err := service.{{.Name}}(ctx, req)
		if err != nil {
			return nil, err
		}
		return twirp.EncodeResponse(res)
	})
{{- end}}
	return &{{.Service.Name}}Server{server: server}
}

func (s *{{.Service.Name}}Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.ServeHTTP(w, r)
}
{{end}}`
