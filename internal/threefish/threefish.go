package threefish

import (
	"encoding/binary"
	"fmt"
)

// Cipher is Threefish keyed for one block size and tweak.
// It implements crypto/cipher.Block and is safe for concurrent use as long as SetTweak is not called.
type Cipher struct {
	// p selects the variant
	p *params

	// key holds the key words, kept so the schedule can be rebuilt on SetTweak
	key []uint64

	// sched is the cached subkey schedule for key and the current tweak
	sched schedule
}

// New returns a Cipher for the given key and tweak.
// The key length selects the variant and must be 32, 64 or 128 bytes.
// The tweak must be TweakSize bytes; nil selects the all-zero tweak.
func New(key, tweak []byte) (*Cipher, error) {
	p := paramsFor(len(key))
	if p == nil {
		return nil, SizeError(len(key))
	}

	t, err := tweakWords(tweak)
	if err != nil {
		return nil, err
	}

	c := &Cipher{
		p:   p,
		key: make([]uint64, p.words),
	}

	load(c.key, key)
	c.sched = expand(p, c.key, t)

	return c, nil
}

// SetTweak replaces the tweak and recomputes the subkey schedule.
func (c *Cipher) SetTweak(tweak []byte) error {
	t, err := tweakWords(tweak)
	if err != nil {
		return err
	}

	c.sched = expand(c.p, c.key, t)

	return nil
}

// BlockSize returns the block size in bytes.
func (c *Cipher) BlockSize() int { return c.p.blockSize() }

// Encrypt encrypts the first block in src into dst.
// Dst and src must overlap entirely or not at all.
func (c *Cipher) Encrypt(dst, src []byte) {
	c.check(dst, src)

	var state [16]uint64

	v := state[:c.p.words]

	load(v, src)
	encryptWords(c.p, c.sched, v)
	store(dst, v)
}

// Decrypt decrypts the first block in src into dst.
// Dst and src must overlap entirely or not at all.
func (c *Cipher) Decrypt(dst, src []byte) {
	c.check(dst, src)

	var state [16]uint64

	v := state[:c.p.words]

	load(v, src)
	decryptWords(c.p, c.sched, v)
	store(dst, v)
}

func (c *Cipher) check(dst, src []byte) {
	size := c.p.blockSize()

	if len(src) < size {
		panic("threefish: input not full block")
	}

	if len(dst) < size {
		panic("threefish: output not full block")
	}
}

// Encrypt encrypts a single block with a one-off key schedule.
// blockSize must be 32, 64 or 128 and key and plaintext must both be blockSize bytes long.
func Encrypt(blockSize int, key, tweak, plaintext []byte) ([]byte, error) {
	c, err := newChecked(blockSize, key, tweak, plaintext)
	if err != nil {
		return nil, err
	}

	out := make([]byte, blockSize)
	c.Encrypt(out, plaintext)

	return out, nil
}

// Decrypt is the inverse of Encrypt.
func Decrypt(blockSize int, key, tweak, ciphertext []byte) ([]byte, error) {
	c, err := newChecked(blockSize, key, tweak, ciphertext)
	if err != nil {
		return nil, err
	}

	out := make([]byte, blockSize)
	c.Decrypt(out, ciphertext)

	return out, nil
}

func newChecked(blockSize int, key, tweak, block []byte) (*Cipher, error) {
	if paramsFor(blockSize) == nil {
		return nil, SizeError(blockSize)
	}

	if len(key) != blockSize {
		return nil, fmt.Errorf("%w: key is %d bytes, want %d", ErrBufferSize, len(key), blockSize)
	}

	if len(block) != blockSize {
		return nil, fmt.Errorf("%w: block is %d bytes, want %d", ErrBufferSize, len(block), blockSize)
	}

	return New(key, tweak)
}

// encryptWords runs the full forward transform on v in place.
func encryptWords(p *params, sched schedule, v []uint64) {
	for d := 0; d < p.rounds; d += 8 {
		sched.inject(v, d/4)

		for r := d; r < d+4; r++ {
			round(v, p.rot[r%8], p.perm[r%4])
		}

		sched.inject(v, d/4+1)

		for r := d + 4; r < d+8; r++ {
			round(v, p.rot[r%8], p.perm[r%4])
		}
	}

	sched.inject(v, p.rounds/4)
}

// decryptWords runs the inverse transform on v in place.
func decryptWords(p *params, sched schedule, v []uint64) {
	sched.eject(v, p.rounds/4)

	for d := p.rounds; d > 0; {
		d -= 4

		for r := d + 3; r >= d; r-- {
			roundInv(v, p.rot[r%8], p.perm[r%4])
		}

		sched.eject(v, d/4)
	}
}

func tweakWords(tweak []byte) ([2]uint64, error) {
	var t [2]uint64

	switch len(tweak) {
	case 0:
		return t, nil
	case TweakSize:
		t[0] = binary.LittleEndian.Uint64(tweak[0:8])
		t[1] = binary.LittleEndian.Uint64(tweak[8:16])

		return t, nil
	default:
		return t, fmt.Errorf("%w: got %d bytes", ErrTweakSize, len(tweak))
	}
}

// load reads little-endian words from src into dst.
func load(dst []uint64, src []byte) {
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint64(src[i*8:])
	}
}

// store writes src as little-endian words into dst.
func store(dst []byte, src []uint64) {
	for i, w := range src {
		binary.LittleEndian.PutUint64(dst[i*8:], w)
	}
}
