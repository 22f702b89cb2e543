package encryption

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/idelchi/gogen/pkg/key"
	"github.com/tink-crypto/tink-go/v2/subtle/random"
	"golang.org/x/crypto/argon2"

	"github.com/idelchi/tfcs/internal/config"
)

// Argon2id parameters for passphrase-derived keys.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// LoadKey resolves the key from the hex string, the key file or the passphrase,
// whichever is configured, and checks it matches the block size.
func LoadKey(cfg *config.Config) ([]byte, error) {
	var (
		encryptionKey key.Key
		err           error
	)

	switch {
	case cfg.Key != "":
		encryptionKey, err = key.FromHex(cfg.Key)
	case cfg.KeyFile != "":
		var data []byte

		data, err = os.ReadFile(filepath.Clean(cfg.KeyFile))
		if err != nil {
			return nil, fmt.Errorf("reading key file: %w", err)
		}

		encryptionKey, err = key.FromHex(string(data))
	case cfg.Passphrase != "":
		var salt key.Key

		salt, err = key.FromHex(cfg.Salt)
		if err != nil {
			return nil, fmt.Errorf("decoding salt: %w", err)
		}

		encryptionKey = DeriveKey([]byte(cfg.Passphrase), salt, cfg.BlockSize)
	default:
		return nil, ErrNoKey
	}

	if err != nil {
		return nil, fmt.Errorf("decoding key: %w", err)
	}

	if len(encryptionKey) != cfg.BlockSize {
		return nil, fmt.Errorf("%w: got %d bytes (%d hex characters), block size %d needs %d bytes",
			ErrKeySize, len(encryptionKey), 2*len(encryptionKey), cfg.BlockSize, cfg.BlockSize)
	}

	return encryptionKey, nil
}

// DeriveKey stretches a passphrase into a key of the given size with Argon2id.
func DeriveKey(passphrase, salt []byte, size int) []byte {
	return argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, uint32(size)) //nolint:gosec
}

// GenerateKey returns a fresh random key for the given block size.
func GenerateKey(size int) key.Key {
	return random.GetRandomBytes(uint32(size)) //nolint:gosec
}
