package generator

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/grpcreflect"
	"google.golang.org/grpc"
)

// Fetcher produces service descriptors from some source of .proto
// definitions.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Service, error)
}

// LocalFetcher parses .proto files from disk.
type LocalFetcher struct {
	filenames, importPaths []string
}

func NewLocalFetcher(filenames, importPaths []string) LocalFetcher {
	return LocalFetcher{filenames, importPaths}
}

func (f LocalFetcher) Fetch(context.Context) ([]Service, error) {
	fds, err := protoparse.Parser{
		LookupImport: desc.LoadFileDescriptor,
		ImportPaths:  f.importPaths,
	}.ParseFiles(f.filenames...)
	if err != nil {
		return nil, fmt.Errorf("can't parse proto files: %w", err)
	}

	var services []Service
	for _, fd := range fds {
		for _, sd := range fd.GetServices() {
			services = append(services, serviceFromDescriptor(sd))
		}
	}
	return services, nil
}

// RemoteFetcher pulls service descriptors from a running gRPC server over
// the reflection API.
type RemoteFetcher struct {
	conn  *grpc.ClientConn
	warns []string
}

func NewRemoteFetcher(conn *grpc.ClientConn) *RemoteFetcher {
	return &RemoteFetcher{conn: conn}
}

// Warnings returns the services listed by the server that could not be
// resolved during the last Fetch.
func (f *RemoteFetcher) Warnings() []string {
	return f.warns
}

func (f *RemoteFetcher) Fetch(ctx context.Context) ([]Service, error) {
	refClient := grpcreflect.NewClientAuto(ctx, f.conn)
	listServices, err := refClient.ListServices()
	if err != nil {
		return nil, fmt.Errorf("reflection fetching: %w", err)
	}

	var services []Service
	for _, name := range listServices {
		if strings.HasPrefix(name, "grpc.reflection.") {
			continue
		}
		sd, err := refClient.ResolveService(name)
		if err != nil {
			f.warns = append(f.warns, "service not found: "+name)
			continue
		}
		services = append(services, serviceFromDescriptor(sd))
	}
	return services, nil
}

func serviceFromDescriptor(sd *desc.ServiceDescriptor) Service {
	selfPath, selfPkg := goPackage(sd.GetFile())
	imports := &importSet{
		selfPath: selfPath,
		aliases:  make(map[string]string),
		taken:    map[string]bool{selfPkg: true},
	}

	svc := Service{
		Package:   sd.GetFile().GetPackage(),
		ProtoName: sd.GetName(),
		Name:      identifier(sd.GetName()),
		GoPackage: selfPkg,
	}
	for _, md := range sd.GetMethods() {
		svc.Methods = append(svc.Methods, Method{
			ProtoName:  md.GetName(),
			Name:       identifier(md.GetName()),
			InputType:  imports.typeRef(md.GetInputType()),
			OutputType: imports.typeRef(md.GetOutputType()),
		})
	}
	svc.Imports = imports.list()
	return svc
}

// goPackage resolves a file's go_package option to an import path and
// package name. Files without the option get no import path and a package
// name derived from the proto package.
func goPackage(fd *desc.FileDescriptor) (importPath, pkgName string) {
	gp := fd.AsFileDescriptorProto().GetOptions().GetGoPackage()
	if gp == "" {
		return "", sanitizePkg(strings.ReplaceAll(fd.GetPackage(), ".", "_"))
	}
	if i := strings.IndexByte(gp, ';'); i >= 0 {
		return gp[:i], sanitizePkg(gp[i+1:])
	}
	if !strings.Contains(gp, "/") {
		return "", sanitizePkg(gp)
	}
	return gp, sanitizePkg(path.Base(gp))
}

func sanitizePkg(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, name)
}

// messageName returns the Go type name of a message, flattening nested
// messages with underscores the way protoc-gen-go does.
func messageName(md *desc.MessageDescriptor) string {
	name := md.GetName()
	for parent, ok := md.GetParent().(*desc.MessageDescriptor); ok; parent, ok = parent.GetParent().(*desc.MessageDescriptor) {
		name = parent.GetName() + "_" + name
	}
	return name
}

// importSet tracks the message packages referenced by a service and hands
// out stable aliases for them. Messages from the service's own package stay
// unqualified.
type importSet struct {
	selfPath string
	aliases  map[string]string
	taken    map[string]bool
	order    []string
}

func (s *importSet) typeRef(md *desc.MessageDescriptor) string {
	name := messageName(md)
	importPath, pkgName := goPackage(md.GetFile())
	if importPath == "" || importPath == s.selfPath {
		return name
	}

	alias, ok := s.aliases[importPath]
	if !ok {
		alias = pkgName
		for n := 2; s.taken[alias]; n++ {
			alias = fmt.Sprintf("%s%d", pkgName, n)
		}
		s.taken[alias] = true
		s.aliases[importPath] = alias
		s.order = append(s.order, importPath)
	}
	return alias + "." + name
}

func (s *importSet) list() []Import {
	imports := make([]Import, 0, len(s.order))
	for _, p := range s.order {
		imports = append(imports, Import{Alias: s.aliases[p], Path: p})
	}
	return imports
}
