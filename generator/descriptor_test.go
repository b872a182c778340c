package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifier(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Say":       "Say",
		"say":       "Say",
		"say_hello": "SayHello",
		"sayHello":  "SayHello",
		"_say":      "Say",
	}
	for in, want := range tests {
		assert.Equal(t, want, identifier(in), "identifier(%q)", in)
	}
}

func TestSanitizePkg(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "echo_v1", sanitizePkg("echo.v1"))
	assert.Equal(t, "my_pb", sanitizePkg("my-pb"))
}
