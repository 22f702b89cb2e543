package cbccs_test

import (
	"bytes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"fmt"
	"math/bits"
	"math/rand/v2"
	"testing"

	"github.com/idelchi/tfcs/internal/cbccs"
	"github.com/idelchi/tfcs/internal/threefish"
)

var sizes = []int{threefish.BlockSize256, threefish.BlockSize512, threefish.BlockSize1024}

func newBlock(t *testing.T, key []byte) cipher.Block {
	t.Helper()

	b, err := threefish.New(key, nil)
	if err != nil {
		t.Fatalf("threefish.New: %v", err)
	}

	return b
}

func random(rng *rand.Rand, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(rng.Uint32())
	}

	return b
}

func lengths(bs int) []int {
	return []int{
		0, 1, 2, bs - 1, bs, bs + 1,
		2*bs - 1, 2 * bs, 2*bs + 1,
		3*bs + bs/2,
		5*bs - 3, 5 * bs, 5*bs + 3,
		17*bs + 11,
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, bs := range sizes {
		rng := rand.New(rand.NewPCG(uint64(bs), 1))
		block := newBlock(t, random(rng, bs))

		for _, n := range lengths(bs) {
			t.Run(fmt.Sprintf("%d/%d", bs, n), func(t *testing.T) {
				t.Parallel()

				iv := random(rand.New(rand.NewPCG(uint64(n), 2)), bs)
				msg := random(rand.New(rand.NewPCG(uint64(n), 3)), n)

				sealed, err := cbccs.Seal(block, iv, msg)
				if err != nil {
					t.Fatalf("Seal: %v", err)
				}

				if len(sealed) != bs+n {
					t.Fatalf("ciphertext is %d bytes, want %d", len(sealed), bs+n)
				}

				if n >= bs && !bytes.Equal(sealed[:bs], iv) {
					t.Fatalf("first block is not the IV")
				}

				opened, err := cbccs.Open(block, sealed)
				if err != nil {
					t.Fatalf("Open: %v", err)
				}

				if !bytes.Equal(opened, msg) {
					t.Fatalf("round trip mismatch\n got: %x\nwant: %x", opened, msg)
				}
			})
		}
	}
}

// Writing in arbitrary chunk sizes must give the same bytes as a single write.
func TestChunkedWrites(t *testing.T) {
	t.Parallel()

	const bs = threefish.BlockSize512

	rng := rand.New(rand.NewPCG(5, 5))
	block := newBlock(t, random(rng, bs))
	iv := random(rng, bs)
	msg := random(rng, 7*bs+29)

	want, err := cbccs.Seal(block, iv, msg)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	for _, chunk := range []int{1, 3, 7, bs - 1, bs, bs + 1, 200} {
		t.Run(fmt.Sprint(chunk), func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer

			enc, err := cbccs.NewEncrypter(&out, block, iv)
			if err != nil {
				t.Fatalf("NewEncrypter: %v", err)
			}

			writeChunks(t, enc, msg, chunk)

			if err := enc.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			if !bytes.Equal(out.Bytes(), want) {
				t.Fatalf("chunked output differs from single write")
			}

			var plain bytes.Buffer

			dec := cbccs.NewDecrypter(&plain, block)
			writeChunks(t, dec, want, chunk)

			if err := dec.Close(); err != nil {
				t.Fatalf("Decrypter.Close: %v", err)
			}

			if !bytes.Equal(plain.Bytes(), msg) {
				t.Fatalf("chunked decryption mismatch")
			}
		})
	}
}

func writeChunks(t *testing.T, w interface{ Write([]byte) (int, error) }, data []byte, chunk int) {
	t.Helper()

	for len(data) > 0 {
		k := min(chunk, len(data))

		n, err := w.Write(data[:k])
		if err != nil {
			t.Fatalf("Write: %v", err)
		}

		if n != k {
			t.Fatalf("Write returned %d, want %d", n, k)
		}

		data = data[k:]
	}
}

// Block-aligned input must be plain CBC, chaining included on the last block.
func TestAlignedMatchesCBC(t *testing.T) {
	t.Parallel()

	for _, bs := range sizes {
		rng := rand.New(rand.NewPCG(uint64(bs), 9))
		block := newBlock(t, random(rng, bs))
		iv := random(rng, bs)
		msg := random(rng, 4*bs)

		want := make([]byte, len(msg))
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(want, msg)

		got, err := cbccs.Seal(block, iv, msg)
		if err != nil {
			t.Fatalf("Seal: %v", err)
		}

		if !bytes.Equal(got[:bs], iv) || !bytes.Equal(got[bs:], want) {
			t.Fatalf("block size %d: output is not IV || CBC(msg)", bs)
		}
	}
}

// With a partial tail, everything up to the penultimate block is plain CBC, the stolen
// block chains from the penultimate ciphertext and the tail is its truncated prefix.
func TestStealingLayout(t *testing.T) {
	t.Parallel()

	const (
		bs       = threefish.BlockSize256
		full     = 3
		residual = 11
	)

	rng := rand.New(rand.NewPCG(3, 3))
	block := newBlock(t, random(rng, bs))
	iv := random(rng, bs)
	msg := random(rng, full*bs+residual)

	cbc := make([]byte, full*bs)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(cbc, msg[:full*bs])

	got, err := cbccs.Seal(block, iv, msg)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	penultimate := cbc[(full-1)*bs:]

	stolen := make([]byte, bs)
	copy(stolen, msg[full*bs:])

	for i := range stolen {
		stolen[i] ^= penultimate[i]
	}

	block.Encrypt(stolen, stolen)

	want := append([]byte{}, iv...)
	want = append(want, cbc[:(full-1)*bs]...)
	want = append(want, stolen...)
	want = append(want, penultimate[:residual]...)

	if !bytes.Equal(got, want) {
		t.Fatalf("stealing layout mismatch\n got: %x\nwant: %x", got, want)
	}
}

func TestSubBlockLayout(t *testing.T) {
	t.Parallel()

	const bs = threefish.BlockSize512

	rng := rand.New(rand.NewPCG(5, 5))
	block := newBlock(t, random(rng, bs))
	iv := random(rng, bs)

	for _, r := range []int{1, 17, bs - 1} {
		msg := random(rng, r)

		got, err := cbccs.Seal(block, iv, msg)
		if err != nil {
			t.Fatalf("Seal(%d bytes): %v", r, err)
		}

		stolen := make([]byte, bs)
		copy(stolen, msg)

		for i := range stolen {
			stolen[i] ^= iv[i]
		}

		block.Encrypt(stolen, stolen)

		want := append(stolen, iv[:r]...)

		if !bytes.Equal(got, want) {
			t.Errorf("%d bytes: layout mismatch\n got: %x\nwant: %x", r, got, want)
		}

		plain, err := cbccs.Open(block, got)
		if err != nil {
			t.Fatalf("Open(%d bytes): %v", r, err)
		}

		if !bytes.Equal(plain, msg) {
			t.Errorf("%d bytes: round trip mismatch", r)
		}
	}
}

func TestFixtures(t *testing.T) {
	t.Parallel()

	pattern := make([]byte, 100)
	for i := range pattern {
		pattern[i] = byte(i*7 + 3)
	}

	counting := func(from, n int) []byte {
		b := make([]byte, n)
		for i := range b {
			b[i] = byte(from + i)
		}

		return b
	}

	tests := []struct {
		name string
		key  []byte
		iv   []byte
		msg  []byte
		want string
	}{
		{
			name: "512-bit zero key, 100-byte pattern",
			key:  make([]byte, 64),
			iv:   make([]byte, 64),
			msg:  pattern,
			want: "00000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000" +
				"b9373981d94dd3d0d9e8b38de92f89af28c7ca3ed33fd3759b8fd71a020b0e1ca4e0f79172d1e9664b1e6294108989e14a7d12412b59a7bb8546620f2f298dc8" +
				"cf890eb954888c55773bff235fc5c6469c98b2a23bcb30238e72d1fad8e45e60e684861b",
		},
		{
			name: "256-bit, message shorter than a block",
			key:  counting(0, 32),
			iv:   counting(32, 32),
			msg:  []byte("threefish"),
			want: "fd36201c008689719f010e6a487c307074cb49ec9e8110291d8757352f4f20df" +
				"202122232425262728",
		},
		{
			name: "256-bit, two full blocks",
			key:  counting(0, 32),
			iv:   counting(32, 32),
			msg:  counting(0, 64),
			want: "202122232425262728292a2b2c2d2e2f303132333435363738393a3b3c3d3e3f" +
				"16a17a91f817c13b2da98f7076cf1bdbc2d1a1b1f7c1974f45b4ab2492774530" +
				"c2342abffd7081312446c3b12da66cf60281f4def557aef1329b8315694fdbb5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			block := newBlock(t, tt.key)

			got, err := cbccs.Seal(block, tt.iv, tt.msg)
			if err != nil {
				t.Fatalf("Seal: %v", err)
			}

			if hex.EncodeToString(got) != tt.want {
				t.Fatalf("ciphertext mismatch\n got: %x\nwant: %s", got, tt.want)
			}

			if len(got) != len(tt.key)+len(tt.msg) {
				t.Fatalf("ciphertext is %d bytes, want %d", len(got), len(tt.key)+len(tt.msg))
			}

			opened, err := cbccs.Open(block, got)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}

			if !bytes.Equal(opened, tt.msg) {
				t.Fatalf("round trip mismatch")
			}
		})
	}
}

func TestEmptyMessage(t *testing.T) {
	t.Parallel()

	block := newBlock(t, make([]byte, threefish.BlockSize512))
	iv := bytes.Repeat([]byte{0xa5}, threefish.BlockSize512)

	got, err := cbccs.Seal(block, iv, nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	if !bytes.Equal(got, iv) {
		t.Fatalf("empty message should produce only the IV, got %x", got)
	}

	opened, err := cbccs.Open(block, got)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if len(opened) != 0 {
		t.Fatalf("expected empty plaintext, got %d bytes", len(opened))
	}
}

func TestTruncated(t *testing.T) {
	t.Parallel()

	block := newBlock(t, make([]byte, threefish.BlockSize256))

	for _, n := range []int{0, 1, threefish.BlockSize256 - 1} {
		if _, err := cbccs.Open(block, make([]byte, n)); !errors.Is(err, cbccs.ErrTruncated) {
			t.Errorf("Open(%d bytes): got %v, want ErrTruncated", n, err)
		}

		var out bytes.Buffer

		err := cbccs.Decrypt(&out, bytes.NewReader(make([]byte, n)), block)
		if !errors.Is(err, cbccs.ErrTruncated) {
			t.Errorf("Decrypt(%d bytes): got %v, want ErrTruncated", n, err)
		}

		if out.Len() != 0 {
			t.Errorf("Decrypt(%d bytes) wrote %d bytes of plaintext", n, out.Len())
		}
	}
}

func TestInvalidIV(t *testing.T) {
	t.Parallel()

	block := newBlock(t, make([]byte, threefish.BlockSize512))

	if _, err := cbccs.NewEncrypter(&bytes.Buffer{}, block, make([]byte, 16)); !errors.Is(err, cbccs.ErrIVSize) {
		t.Fatalf("got %v, want ErrIVSize", err)
	}
}

func TestWriteAfterClose(t *testing.T) {
	t.Parallel()

	block := newBlock(t, make([]byte, threefish.BlockSize256))

	enc, err := cbccs.NewEncrypter(&bytes.Buffer{}, block, make([]byte, threefish.BlockSize256))
	if err != nil {
		t.Fatalf("NewEncrypter: %v", err)
	}

	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := enc.Write([]byte("x")); !errors.Is(err, cbccs.ErrClosed) {
		t.Errorf("Write after Close: got %v, want ErrClosed", err)
	}

	if err := enc.Close(); !errors.Is(err, cbccs.ErrClosed) {
		t.Errorf("second Close: got %v, want ErrClosed", err)
	}

	dec := cbccs.NewDecrypter(&bytes.Buffer{}, block)
	if _, err := dec.Write(make([]byte, threefish.BlockSize256)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := dec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := dec.Write([]byte("x")); !errors.Is(err, cbccs.ErrClosed) {
		t.Errorf("Decrypter Write after Close: got %v, want ErrClosed", err)
	}
}

var errSink = errors.New("sink full")

// failingWriter accepts limit bytes and then fails.
type failingWriter struct {
	limit int
}

func (f *failingWriter) Write(p []byte) (int, error) {
	if len(p) > f.limit {
		return 0, errSink
	}

	f.limit -= len(p)

	return len(p), nil
}

func TestWriteErrorsPropagate(t *testing.T) {
	t.Parallel()

	const bs = threefish.BlockSize256

	block := newBlock(t, make([]byte, bs))
	msg := make([]byte, 4*bs+5)

	for _, limit := range []int{0, bs, 3 * bs, 5 * bs} {
		err := cbccs.Encrypt(&failingWriter{limit: limit}, bytes.NewReader(msg), block, make([]byte, bs))
		if !errors.Is(err, errSink) {
			t.Errorf("limit %d: got %v, want errSink", limit, err)
		}
	}

	sealed, err := cbccs.Seal(block, make([]byte, bs), msg)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	for _, limit := range []int{0, 2 * bs, 4 * bs} {
		err := cbccs.Decrypt(&failingWriter{limit: limit}, bytes.NewReader(sealed), block)
		if !errors.Is(err, errSink) {
			t.Errorf("decrypt limit %d: got %v, want errSink", limit, err)
		}
	}
}

// Flipping one bit in the first plaintext block must scramble that block and every
// later one, including the stolen block and the tail.
func TestDiffusion(t *testing.T) {
	t.Parallel()

	const bs = threefish.BlockSize512

	rng := rand.New(rand.NewPCG(11, 11))
	block := newBlock(t, random(rng, bs))
	iv := random(rng, bs)
	msg := random(rng, 6*bs)

	a, err := cbccs.Seal(block, iv, msg)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	msg[3] ^= 0x10

	b, err := cbccs.Seal(block, iv, msg)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	for i := bs; i < len(a); i += bs {
		var diff int
		for j := i; j < i+bs; j++ {
			diff += bits.OnesCount8(a[j] ^ b[j])
		}

		ratio := float64(diff) / float64(bs*8)
		if ratio < 0.35 || ratio > 0.65 {
			t.Errorf("block at offset %d: %.3f of bits changed", i, ratio)
		}
	}
}

// Without authentication, tampering goes unnoticed and yields garbled plaintext.
func TestTamperingIsNotDetected(t *testing.T) {
	t.Parallel()

	const bs = threefish.BlockSize256

	block := newBlock(t, make([]byte, bs))
	msg := bytes.Repeat([]byte("attack at dawn! "), 6)

	sealed, err := cbccs.Seal(block, make([]byte, bs), msg)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	sealed[bs+1] ^= 0x01

	opened, err := cbccs.Open(block, sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if len(opened) != len(msg) || bytes.Equal(opened, msg) {
		t.Fatalf("tampered ciphertext should decrypt to different plaintext of the same length")
	}
}
