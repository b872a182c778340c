package generator

import (
	"bytes"
	"os/exec"
)

// Gofmt pipes src through the external gofmt binary. The pass is cosmetic:
// if gofmt cannot be spawned or rejects the source, src is returned
// unchanged.
func Gofmt(src []byte) []byte {
	cmd := exec.Command("gofmt")
	cmd.Stdin = bytes.NewReader(src)

	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return src
	}
	return out.Bytes()
}
