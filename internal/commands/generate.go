package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idelchi/tfcs/internal/encryption"
	"github.com/idelchi/tfcs/internal/threefish"
)

// NewGenerateCommand creates a new cobra command that prints a random hex key.
func NewGenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "generate [flags]",
		Aliases: []string{"gen"},
		Short:   "Generate a new encryption key for the configured block size",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			size := viper.GetInt("block-size")

			switch size {
			case threefish.BlockSize256, threefish.BlockSize512, threefish.BlockSize1024:
			default:
				return threefish.SizeError(size)
			}

			fmt.Fprintln(cmd.OutOrStdout(), encryption.GenerateKey(size).AsHex())

			return nil
		},
	}
}
