package cbccs

import (
	"crypto/cipher"
	"crypto/subtle"
	"fmt"
	"io"
)

// Decrypter is an io.WriteCloser that consumes a stream produced by Encrypter and
// writes the recovered plaintext to the underlying writer.
//
// The last full ciphertext block is held back until more input shows whether it is
// an ordinary block or the stolen block of a partial tail.
// Close must be called to flush the tail; it does not close the underlying writer.
type Decrypter struct {
	w     io.Writer
	block cipher.Block
	size  int
	state state

	// chain is the ciphertext block preceding pending, valid once hasChain is set
	chain    []byte
	hasChain bool

	// pending is the last complete block seen, valid once state is streaming
	pending []byte

	// buf holds ciphertext bytes that do not yet form a full block
	buf []byte

	// plain is scratch space for one decrypted block
	plain []byte

	err error
}

// NewDecrypter returns a Decrypter writing plaintext to w.
// The first block of the stream is taken as the IV.
func NewDecrypter(w io.Writer, block cipher.Block) *Decrypter {
	size := block.BlockSize()

	return &Decrypter{
		w:       w,
		block:   block,
		size:    size,
		state:   awaitingFirstBlock,
		chain:   make([]byte, size),
		pending: make([]byte, size),
		buf:     make([]byte, 0, size),
		plain:   make([]byte, size),
	}
}

// Write implements io.Writer.
func (d *Decrypter) Write(data []byte) (int, error) {
	if d.state == closed {
		return 0, ErrClosed
	}

	if d.err != nil {
		return 0, d.err
	}

	n := len(data)

	if len(d.buf) > 0 {
		k := copy(d.buf[len(d.buf):d.size], data)
		d.buf = d.buf[:len(d.buf)+k]
		data = data[k:]

		if len(d.buf) < d.size {
			return n, nil
		}

		if err := d.push(d.buf); err != nil {
			return 0, err
		}

		d.buf = d.buf[:0]
	}

	for len(data) >= d.size {
		if err := d.push(data[:d.size]); err != nil {
			return 0, err
		}

		data = data[d.size:]
	}

	d.buf = append(d.buf, data...)

	return n, nil
}

// Close implements io.Closer, resolving the held back block and any stolen tail.
// It returns ErrTruncated if the stream was shorter than one block.
func (d *Decrypter) Close() error {
	if d.state == closed {
		return ErrClosed
	}

	if d.err != nil {
		return d.err
	}

	wasStreaming := d.state == streaming

	d.state = draining
	defer func() { d.state = closed }()

	if !wasStreaming {
		return fmt.Errorf("%w: %d bytes", ErrTruncated, len(d.buf))
	}

	residual := len(d.buf)

	if residual == 0 {
		if !d.hasChain {
			// Only the IV: the message was empty.
			return nil
		}

		d.block.Decrypt(d.plain, d.pending)
		subtle.XORBytes(d.plain, d.plain, d.chain)

		return d.emit(d.plain, "writing final plaintext block")
	}

	// pending is C_n = E(C_{n-1} xor pad(B_n)) and buf holds C_{n-1}[:residual].
	// Decrypting C_n gives back the rest of C_{n-1}, since pad(B_n) is zero there.
	tail := d.buf

	d.block.Decrypt(d.plain, d.pending)

	prev := make([]byte, d.size)
	copy(prev, tail)
	copy(prev[residual:], d.plain[residual:])

	subtle.XORBytes(d.plain[:residual], d.plain[:residual], tail)

	if d.hasChain {
		d.block.Decrypt(prev, prev)
		subtle.XORBytes(prev, prev, d.chain)

		if err := d.emit(prev, "writing plaintext block"); err != nil {
			return err
		}
	}

	return d.emit(d.plain[:residual], "writing plaintext tail")
}

// push accepts the next full ciphertext block. The previously pending block is now known
// to be an ordinary one and is decrypted, or becomes the chain value if it was the IV.
func (d *Decrypter) push(block []byte) error {
	if d.state == streaming {
		if d.hasChain {
			d.block.Decrypt(d.plain, d.pending)
			subtle.XORBytes(d.plain, d.plain, d.chain)

			if err := d.emit(d.plain, "writing plaintext block"); err != nil {
				return err
			}
		}

		d.chain, d.pending = d.pending, d.chain
		d.hasChain = true
	}

	copy(d.pending, block)
	d.state = streaming

	return nil
}

func (d *Decrypter) emit(data []byte, what string) error {
	if _, err := d.w.Write(data); err != nil {
		d.err = fmt.Errorf("%s: %w", what, err)

		return d.err
	}

	return nil
}
