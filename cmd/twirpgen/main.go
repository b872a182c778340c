package main

import (
	"context"

	"github.com/alecthomas/kong"
	mangokong "github.com/alecthomas/mango-kong"

	"github.com/vmg/twirp/generator"
)

var CLI struct {
	Generate GenerateCommand   `cmd:"" help:"Generate Twirp bindings from protobuf service definitions."`
	Man      mangokong.ManFlag `help:"Write man page." hidden:""`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kongCtx := kong.Parse(
		&CLI,
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Vars{"runtime_package": generator.DefaultRuntimePackage},
		kong.Groups(map[string]string{
			"reflection": `Reflection flags:`,
		}),
		kong.ConfigureHelp(kong.HelpOptions{
			Tree:    true,
			Compact: true,
		}),
		kong.Description(`twirp stub generator

Reads protobuf service definitions, from .proto files or from a gRPC reflection endpoint, and emits type-safe Twirp clients and servers bound to the runtime package.
		`),
	)
	err := kongCtx.Run()
	kongCtx.FatalIfErrorf(err)
}
