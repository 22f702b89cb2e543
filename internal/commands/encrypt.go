package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/tfcs/internal/config"
	"github.com/idelchi/tfcs/internal/logic"
)

// NewEncryptCommand creates a new cobra command for the encrypt subcommand.
func NewEncryptCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "encrypt [flags] paths...",
		Aliases: []string{"enc"},
		Short:   "Encrypt files, or stdin to stdout with \"-\"",
		Args:    cobra.MinimumNArgs(1),
		PreRunE: preRun(cfg),
		RunE: func(_ *cobra.Command, _ []string) error {
			return logic.Run(cfg)
		},
	}

	cmd.Flags().String("iv", "", "Hex-encoded IV, one block long, instead of a random one")

	return cmd
}
