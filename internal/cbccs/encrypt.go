package cbccs

import (
	"crypto/cipher"
	"crypto/subtle"
	"fmt"
	"io"
)

// Encrypter is an io.WriteCloser that encrypts everything written to it in CBC mode
// with ciphertext stealing and writes the result to the underlying writer.
//
// The most recent ciphertext block is held back until the next full plaintext block
// arrives, since a trailing partial block replaces it with a stolen block.
// Close must be called to flush the tail; it does not close the underlying writer.
type Encrypter struct {
	w     io.Writer
	block cipher.Block
	size  int
	state state

	// pending is the chain value: the IV or the last ciphertext block, not yet written
	pending []byte

	// buf holds plaintext bytes that do not yet form a full block
	buf []byte

	// err is the first write error, returned by every later call
	err error
}

// NewEncrypter returns an Encrypter writing to w.
// The IV must be exactly one block long and becomes the first block of the output.
func NewEncrypter(w io.Writer, block cipher.Block, iv []byte) (*Encrypter, error) {
	size := block.BlockSize()

	if len(iv) != size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrIVSize, len(iv), size)
	}

	pending := make([]byte, size)
	copy(pending, iv)

	return &Encrypter{
		w:       w,
		block:   block,
		size:    size,
		state:   awaitingFirstBlock,
		pending: pending,
		buf:     make([]byte, 0, size),
	}, nil
}

// Write implements io.Writer, encrypting every complete block as soon as it is available.
func (e *Encrypter) Write(data []byte) (int, error) {
	if e.state == closed {
		return 0, ErrClosed
	}

	if e.err != nil {
		return 0, e.err
	}

	n := len(data)

	if len(e.buf) > 0 {
		k := copy(e.buf[len(e.buf):e.size], data)
		e.buf = e.buf[:len(e.buf)+k]
		data = data[k:]

		if len(e.buf) < e.size {
			return n, nil
		}

		if err := e.encryptBlock(e.buf); err != nil {
			return 0, err
		}

		e.buf = e.buf[:0]
	}

	for len(data) >= e.size {
		if err := e.encryptBlock(data[:e.size]); err != nil {
			return 0, err
		}

		data = data[e.size:]
	}

	e.buf = append(e.buf, data...)

	return n, nil
}

// Close implements io.Closer, writing the held back block and the stolen tail if any.
func (e *Encrypter) Close() error {
	if e.state == closed {
		return ErrClosed
	}

	if e.err != nil {
		return e.err
	}

	e.state = draining
	defer func() { e.state = closed }()

	residual := len(e.buf)

	if residual == 0 {
		return e.emit(e.pending, "writing final ciphertext block")
	}

	// C_n = E(C_{n-1} xor pad(B_n)), written in full, followed by the first
	// len(B_n) bytes of C_{n-1}. With no full block before, C_{n-1} is the IV.
	stolen := make([]byte, e.size)
	copy(stolen, e.buf)
	subtle.XORBytes(stolen, stolen, e.pending)
	e.block.Encrypt(stolen, stolen)

	if err := e.emit(stolen, "writing stolen ciphertext block"); err != nil {
		return err
	}

	return e.emit(e.pending[:residual], "writing ciphertext tail")
}

// encryptBlock writes the held back block and chains the next plaintext block into it.
func (e *Encrypter) encryptBlock(plaintext []byte) error {
	if err := e.emit(e.pending, "writing ciphertext block"); err != nil {
		return err
	}

	subtle.XORBytes(e.pending, e.pending, plaintext)
	e.block.Encrypt(e.pending, e.pending)

	e.state = streaming

	return nil
}

func (e *Encrypter) emit(data []byte, what string) error {
	if _, err := e.w.Write(data); err != nil {
		e.err = fmt.Errorf("%s: %w", what, err)

		return e.err
	}

	return nil
}
