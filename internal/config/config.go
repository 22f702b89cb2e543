// Package config holds the runtime configuration shared by all commands.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/idelchi/gogen/pkg/validator"
)

// Config holds all settings, populated from flags and TFCS_* environment variables.
type Config struct {
	// Show prints the configuration and exits
	Show bool `mapstructure:"show"`

	// Key material, exactly one source must be set
	Key        string `label:"--key"        mapstructure:"key"        mask:"fixed" validate:"required_without_all=KeyFile Passphrase,exclusive=KeyFile,exclusive=Passphrase"` //nolint:lll
	KeyFile    string `label:"--key-file"   mapstructure:"key-file"   validate:"exclusive=Passphrase"`
	Passphrase string `label:"--passphrase" mapstructure:"passphrase" mask:"fixed" validate:"required_with=Salt"`
	Salt       string `label:"--salt"       mapstructure:"salt"       validate:"required_with=Passphrase"`

	// Cipher parameters
	BlockSize int    `label:"--block-size" mapstructure:"block-size" validate:"oneof=32 64 128"`
	Tweak     string `label:"--tweak"      mapstructure:"tweak"      validate:"omitempty,len=32"`
	IV        string `label:"--iv"         mapstructure:"iv"`

	// File selection
	Include     []string `mapstructure:"include"`
	Exclude     []string `mapstructure:"exclude"`
	IncludeFrom string   `label:"--include-from" mapstructure:"include-from" validate:"omitempty,file"`
	ExcludeFrom string   `label:"--exclude-from" mapstructure:"exclude-from" validate:"omitempty,file"`

	// Processing
	Parallel           int  `label:"--parallel" mapstructure:"parallel" validate:"min=1"`
	Quiet              bool `mapstructure:"quiet"`
	Delete             bool `mapstructure:"delete"`
	Stats              bool `mapstructure:"stats"`
	Dry                bool `mapstructure:"dry"`
	PreserveTimestamps bool `mapstructure:"preserve-timestamps"`

	Suffixes Suffixes `mapstructure:",squash"`

	// Set by the command, not by flags
	Decrypt bool     `mapstructure:"-"`
	Files   []string `label:"files" mapstructure:"-" validate:"min=1"`
}

// Suffixes controls how output file names are derived from input file names.
type Suffixes struct {
	Encrypt string `label:"--encrypt-ext" mapstructure:"encrypt-ext" validate:"required"`
	// Decrypt must differ from Encrypt, or decrypting x.tf would overwrite x.tf itself.
	Decrypt string `label:"--decrypt-ext" mapstructure:"decrypt-ext" validate:"nefield=Encrypt"`
}

// Display reports whether the configuration should be printed instead of run.
func (c *Config) Display() bool {
	return c.Show
}

// Stream reports whether the configuration asks for stdin to stdout processing.
func (c *Config) Stream() bool {
	return len(c.Files) == 1 && c.Files[0] == "-"
}

// Validate checks config against its struct tags and c against the cross-field rules
// that tags cannot express.
func (c *Config) Validate(config any) error {
	validator := validator.NewValidator()

	if err := registerExclusive(validator); err != nil {
		return err
	}

	if errs := validator.Validate(config); errs != nil {
		return errors.Join(errs...)
	}

	if c.Tweak != "" {
		if _, err := hex.DecodeString(c.Tweak); err != nil {
			return fmt.Errorf("invalid tweak: %w", err)
		}
	}

	if c.Salt != "" {
		if _, err := hex.DecodeString(c.Salt); err != nil {
			return fmt.Errorf("invalid salt: %w", err)
		}
	}

	if c.IV != "" {
		iv, err := hex.DecodeString(c.IV)
		if err != nil {
			return fmt.Errorf("invalid IV: %w", err)
		}

		if len(iv) != c.BlockSize {
			return fmt.Errorf("invalid IV: got %d bytes, block size is %d", len(iv), c.BlockSize)
		}
	}

	if c.Stream() && c.Delete {
		return errors.New("--delete cannot be used when streaming stdin to stdout")
	}

	for _, f := range c.Files {
		if f == "-" && len(c.Files) > 1 {
			return fmt.Errorf("%q must be the only argument", f)
		}
	}

	return nil
}
