package generator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmg/twirp/generator"
)

func helloService() generator.Service {
	return generator.Service{
		Package:   "example.hello",
		ProtoName: "HelloWorld",
		Name:      "HelloWorld",
		GoPackage: "hellopb",
		Methods: []generator.Method{
			{ProtoName: "Hello", Name: "Hello", InputType: "HelloReq", OutputType: "HelloResp"},
			{ProtoName: "hello_again", Name: "HelloAgain", InputType: "HelloReq", OutputType: "HelloResp"},
		},
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	gen := generator.New(generator.Options{GenerateClient: true, GenerateServer: true})
	src, err := gen.Generate(helloService())
	require.NoError(t, err)

	out := string(src)
	a.Contains(out, "package hellopb\n")
	a.Contains(out, `twirp "github.com/vmg/twirp"`)
	a.Contains(out, "type HelloWorld interface {")
	a.Contains(out, "Hello(ctx context.Context, req *twirp.Request[*HelloReq]) (*twirp.Response[*HelloResp], error)")
	a.Contains(out, "func NewHelloWorldClient(hc *http.Client, rootURL string, opts ...twirp.ClientOption) *HelloWorldClient {")
	a.Contains(out, `twirp.Call[HelloResp](ctx, c.client, "/twirp/example.hello.HelloWorld/Hello", req)`)
	a.Contains(out, `twirp.Call[HelloResp](ctx, c.client, "/twirp/example.hello.HelloWorld/hello_again", req)`)
	a.Contains(out, "func NewHelloWorldServer(service HelloWorld, opts ...twirp.ServerOption) *HelloWorldServer {")
	a.Contains(out, `server.Handle(http.MethodPost, "/twirp/example.hello.HelloWorld/Hello", `)
	a.Contains(out, "twirp.DecodeRequest[HelloReq](raw)")
	a.Contains(out, "func (s *HelloWorldServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {")
}

func TestGenerateToggles(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	clientOnly, err := generator.New(generator.Options{GenerateClient: true}).Generate(helloService())
	require.NoError(t, err)
	a.Contains(string(clientOnly), "HelloWorldClient")
	a.NotContains(string(clientOnly), "HelloWorldServer")

	serverOnly, err := generator.New(generator.Options{GenerateServer: true}).Generate(helloService())
	require.NoError(t, err)
	a.Contains(string(serverOnly), "HelloWorldServer")
	a.NotContains(string(serverOnly), "HelloWorldClient")

	// The service interface is always emitted.
	a.Contains(string(clientOnly), "type HelloWorld interface {")
	a.Contains(string(serverOnly), "type HelloWorld interface {")
}

func TestGenerateInterfaceOnly(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	src, err := generator.New(generator.Options{}).Generate(helloService())
	require.NoError(t, err)

	out := string(src)
	a.Contains(out, "type HelloWorld interface {")
	a.NotContains(out, "HelloWorldClient")
	a.NotContains(out, "HelloWorldServer")
	// Nothing in an interface-only file uses net/http; importing it would
	// make the output uncompilable.
	a.NotContains(out, `"net/http"`)
	a.Contains(out, `"context"`)
	a.Contains(out, `twirp "github.com/vmg/twirp"`)
}

func TestFileName(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	a.Equal("example.hello.helloworld.twirp.go", generator.FileName(helloService()))

	other := helloService()
	other.Package = "example.other"
	a.NotEqual(generator.FileName(helloService()), generator.FileName(other))
}

func TestGenerateRuntimePackageOverride(t *testing.T) {
	t.Parallel()

	gen := generator.New(generator.Options{RuntimePackage: "example.com/alt/twirp"})
	src, err := gen.Generate(helloService())
	require.NoError(t, err)
	assert.Contains(t, string(src), `twirp "example.com/alt/twirp"`)
}

func TestGenerateForeignImports(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	svc := helloService()
	svc.Imports = []generator.Import{{Alias: "otherpb", Path: "example.com/other/otherpb"}}
	svc.Methods = []generator.Method{
		{ProtoName: "Hello", Name: "Hello", InputType: "otherpb.Thing", OutputType: "HelloResp"},
	}

	src, err := generator.New(generator.Options{GenerateServer: true}).Generate(svc)
	require.NoError(t, err)
	a.Contains(string(src), "otherpb \"example.com/other/otherpb\"")
	a.Contains(string(src), "twirp.DecodeRequest[otherpb.Thing](raw)")
}

func TestGofmtFallsBackOnBadSource(t *testing.T) {
	t.Parallel()

	src := []byte("package broken\nfunc {\n")
	assert.Equal(t, src, generator.Gofmt(src))
}

func TestGofmtKeepsValidSource(t *testing.T) {
	t.Parallel()

	src := []byte("package ok\n\nvar X = 1\n")
	out := generator.Gofmt(src)
	assert.Contains(t, string(out), "package ok")
}
