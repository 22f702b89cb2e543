package encryption

import "errors"

var (
	// ErrNoKey is returned when no key source is configured.
	ErrNoKey = errors.New("no key, key file or passphrase given")
	// ErrKeySize is returned when the key length does not match the block size.
	ErrKeySize = errors.New("key length does not match block size")
	// ErrSameFile is returned when the output path of a file is the file itself.
	ErrSameFile = errors.New("output would overwrite input, set a different suffix")
)
