// Package cbccs implements cipher block chaining with ciphertext stealing over byte streams.
//
// For a plaintext of n full blocks the stream is the IV followed by n ciphertext blocks.
// When the plaintext ends in a partial block of r bytes, the last two blocks are
// replaced by the stolen block and the first r bytes of the previous ciphertext block.
// A plaintext shorter than one block treats the IV as that previous block, so the
// stream is E(IV xor pad(M)) followed by the first r bytes of the IV.
// The output is always exactly one block longer than the input and no padding is added.
// There is no header and no authentication tag.
package cbccs

import (
	"bytes"
	"crypto/cipher"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrIVSize is returned when the IV length differs from the block size.
	ErrIVSize = errors.New("cbccs: IV length must equal block size")
	// ErrTruncated is returned when a ciphertext stream is too short to hold the IV.
	ErrTruncated = errors.New("cbccs: ciphertext shorter than one block")
	// ErrClosed is returned by Write and Close after Close.
	ErrClosed = errors.New("cbccs: write to closed stream")
)

// state tracks where a stream is relative to its first and last block.
type state byte

const (
	// awaitingFirstBlock: no full block has been processed yet.
	awaitingFirstBlock state = iota
	// streaming: at least one full block has been processed and one is held back.
	streaming
	// draining: Close is writing the tail.
	draining
	// closed: nothing more may be written.
	closed
)

// Encrypt reads plaintext from src until EOF and writes the CBC-CS stream to dst.
func Encrypt(dst io.Writer, src io.Reader, block cipher.Block, iv []byte) error {
	enc, err := NewEncrypter(dst, block, iv)
	if err != nil {
		return err
	}

	if _, err := io.Copy(enc, src); err != nil {
		return fmt.Errorf("encrypting stream: %w", err)
	}

	return enc.Close()
}

// Decrypt reads a CBC-CS stream from src until EOF and writes the plaintext to dst.
func Decrypt(dst io.Writer, src io.Reader, block cipher.Block) error {
	dec := NewDecrypter(dst, block)

	if _, err := io.Copy(dec, src); err != nil {
		return fmt.Errorf("decrypting stream: %w", err)
	}

	return dec.Close()
}

// Seal encrypts msg in memory and returns the IV-prefixed ciphertext.
func Seal(block cipher.Block, iv, msg []byte) ([]byte, error) {
	var out bytes.Buffer

	out.Grow(block.BlockSize() + len(msg))

	if err := Encrypt(&out, bytes.NewReader(msg), block, iv); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// Open decrypts a ciphertext produced by Seal.
func Open(block cipher.Block, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < block.BlockSize() {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(ciphertext))
	}

	var out bytes.Buffer

	out.Grow(len(ciphertext) - block.BlockSize())

	if err := Decrypt(&out, bytes.NewReader(ciphertext), block); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}
