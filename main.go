// Command tfcs encrypts and decrypts files with Threefish in CBC mode with ciphertext stealing.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/idelchi/gogen/pkg/cobraext"
	"github.com/idelchi/tfcs/internal/commands"
	"github.com/idelchi/tfcs/internal/config"
)

// version is set at build time with -ldflags.
//
//nolint:gochecknoglobals
var version = "unknown - unofficial & generated by unknown"

func main() {
	var cfg config.Config

	root := commands.NewRootCommand(&cfg, version)

	if err := root.Execute(); err != nil {
		if errors.Is(err, cobraext.ErrExitGracefully) {
			return
		}

		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
