package generator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmg/twirp/generator"
)

func TestLocalFetcher(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	fetcher := generator.NewLocalFetcher([]string{"echo.proto"}, []string{"testdata"})
	services, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 1)

	svc := services[0]
	a.Equal("example.echo", svc.Package)
	a.Equal("Echo", svc.ProtoName)
	a.Equal("Echo", svc.Name)
	a.Equal("echopb", svc.GoPackage)
	a.Empty(svc.Imports)

	require.Len(t, svc.Methods, 2)
	say := svc.Methods[0]
	a.Equal("Say", say.ProtoName)
	a.Equal("Say", say.Name)
	a.Equal("SayRequest", say.InputType)
	a.Equal("SayResponse", say.OutputType)
	a.Equal("/twirp/example.echo.Echo/Say", svc.Path(say))

	// Proto names survive verbatim in the path, Go names are camel-cased.
	many := svc.Methods[1]
	a.Equal("say_many", many.ProtoName)
	a.Equal("SayMany", many.Name)
	a.Equal("/twirp/example.echo.Echo/say_many", svc.Path(many))
}

func TestLocalFetcherMissingFile(t *testing.T) {
	t.Parallel()

	_, err := generator.NewLocalFetcher([]string{"nope.proto"}, []string{"testdata"}).Fetch(context.Background())
	assert.Error(t, err)
}
