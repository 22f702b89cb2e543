package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/idelchi/gogen/pkg/cobraext"
	"github.com/idelchi/tfcs/internal/config"
	"github.com/idelchi/tfcs/internal/threefish"
)

// NewRootCommand creates the root command with common configuration.
// It sets up environment variable binding and flag handling.
// The env prefix is the command name, so every flag is also read from TFCS_<FLAG>.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	root := cobraext.NewDefaultRootCommand(version)

	root.Use = "tfcs [flags] command [flags]"
	root.Short = "Threefish file encryption utility"
	root.Long = `A file encryption utility built on the Threefish tweakable block cipher
in CBC mode with ciphertext stealing. Ciphertext is exactly one block longer
than the plaintext, with no padding.

Every flag can also be set through a TFCS_ prefixed environment variable,
for example TFCS_KEY or TFCS_BLOCK_SIZE.`

	flags := root.PersistentFlags()

	flags.BoolP("show", "s", false, "Show the configuration and exit")
	flags.IntP("parallel", "j", runtime.NumCPU(), "Number of parallel workers, defaults to number of CPUs")
	flags.BoolP("quiet", "q", false, "Suppress non-error output")
	flags.BoolP("delete", "d", false, "Delete the original file after successful encryption/decryption")
	flags.Bool("stats", false, "Print a summary when done")
	flags.Bool("dry", false, "Show what would be processed without writing anything")
	flags.Bool("preserve-timestamps", false, "Copy the modification time of the input to the output")

	flags.IntP("block-size", "b", threefish.BlockSize512, "Threefish block size in bytes (32, 64 or 128)")
	flags.StringP("key", "k", "", "Encryption key, hex-encoded, as long as the block size")
	flags.StringP("key-file", "f", "", "Path to a file with the hex-encoded encryption key")
	flags.StringP("passphrase", "p", "", "Derive the key from a passphrase with Argon2id")
	flags.String("salt", "", "Hex-encoded salt for passphrase derivation")
	flags.StringP("tweak", "t", "", "Hex-encoded 16 byte Threefish tweak, defaults to zero")

	flags.StringSliceP("include", "i", nil, "Patterns selecting files inside directories (find -path syntax)")
	flags.StringSliceP("exclude", "e", nil, "Patterns excluding files inside directories (find -path syntax)")
	flags.String("include-from", "", "JSONC file with an array of include patterns")
	flags.String("exclude-from", "", "JSONC file with an array of exclude patterns")

	flags.String("encrypt-ext", ".tf", "Suffix to append to encrypted files")
	flags.String("decrypt-ext", "", "Suffix to append to decrypted files, after stripping the encrypted suffix")

	root.AddCommand(
		NewEncryptCommand(cfg),
		NewDecryptCommand(cfg),
		NewGenerateCommand(),
	)

	return root
}
