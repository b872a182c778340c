package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/vmg/twirp/generator"
)

type GenerateCommand struct {
	Proto []string `arg:"" optional:"" placeholder:"service.proto" help:"Proto files to generate from."`

	Out            string `default:"." type:"path" help:"Output directory."`
	RuntimePackage string `default:"${runtime_package}" help:"Import path of the runtime package referenced by generated code."`
	Client         bool   `default:"true" negatable:"" help:"Generate client bindings."`
	Server         bool   `default:"true" negatable:"" help:"Generate server bindings."`
	NoFormat       bool   `help:"Skip the gofmt pass."`
	Verbose        bool   `help:"Verbose output."`

	ImportPath     []string `type:"existingdir" placeholder:"./api/,./vendor/" help:"Proto import paths."`
	ReflectionAddr string   `group:"reflection" placeholder:"my-service:9090" help:"Fetch service definitions from a gRPC reflection endpoint."`
}

func (c *GenerateCommand) Validate() error {
	if len(c.Proto) == 0 && c.ReflectionAddr == "" {
		return errors.New("proto files or --reflection-addr is required")
	}
	if len(c.Proto) != 0 && c.ReflectionAddr != "" {
		return errors.New("proto files and --reflection-addr are mutually exclusive")
	}
	return nil
}

func (c *GenerateCommand) Run(ctx context.Context) error {
	zlog := zap.NewNop()
	if c.Verbose {
		zlog = zap.Must(zap.NewDevelopment())
	}

	services, err := c.fetch(ctx)
	if err != nil {
		return err
	}
	if len(services) == 0 {
		return errors.New("no services found")
	}

	gen := generator.New(generator.Options{
		RuntimePackage: c.RuntimePackage,
		GenerateClient: c.Client,
		GenerateServer: c.Server,
	})

	var errs error
	var written uint64
	for _, svc := range services {
		src, err := gen.Generate(svc)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("generate %s.%s: %w", svc.Package, svc.ProtoName, err))
			continue
		}
		if !c.NoFormat {
			src = generator.Gofmt(src)
		}

		name := filepath.Join(c.Out, generator.FileName(svc))
		if err := os.WriteFile(name, src, 0o644); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("write %s: %w", name, err))
			continue
		}
		written += uint64(len(src))
		zlog.Info("wrote bindings",
			zap.String("service", svc.Package+"."+svc.ProtoName),
			zap.String("file", name),
			zap.String("size", humanize.Bytes(uint64(len(src)))))
	}
	if errs != nil {
		return errs
	}

	fmt.Printf("generated %d service(s), %s\n", len(services), humanize.Bytes(written))
	return nil
}

func (c *GenerateCommand) fetch(ctx context.Context) ([]generator.Service, error) {
	if c.ReflectionAddr == "" {
		fetchCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return generator.NewLocalFetcher(c.Proto, c.ImportPath).Fetch(fetchCtx)
	}

	conn, err := grpc.Dial(
		c.ReflectionAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUserAgent("twirpgen"),
	)
	if err != nil {
		return nil, fmt.Errorf("create reflection conn: %w", err)
	}
	defer conn.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	fetcher := generator.NewRemoteFetcher(conn)
	services, err := fetcher.Fetch(fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("remote reflection fetching: %w", err)
	}
	for _, warn := range fetcher.Warnings() {
		log.Println("remote reflection fetching: ", warn)
	}
	return services, nil
}
