package threefish

// C240 is the key schedule parity constant.
const C240 = 0x1BD11BDAA9FC1A22

const (
	// BlockSize256 is the block and key size of Threefish-256 in bytes.
	BlockSize256 = 32
	// BlockSize512 is the block and key size of Threefish-512 in bytes.
	BlockSize512 = 64
	// BlockSize1024 is the block and key size of Threefish-1024 in bytes.
	BlockSize1024 = 128
	// TweakSize is the size of the tweak in bytes.
	TweakSize = 16
)

//nolint:gochecknoglobals
var (
	rot256 = [8][2]uint8{
		{14, 16},
		{52, 57},
		{23, 40},
		{5, 37},
		{25, 33},
		{46, 12},
		{58, 22},
		{32, 32},
	}

	rot512 = [8][4]uint8{
		{46, 36, 19, 37},
		{33, 27, 14, 42},
		{17, 49, 36, 39},
		{44, 9, 54, 56},
		{39, 30, 34, 24},
		{13, 50, 10, 17},
		{25, 29, 39, 43},
		{8, 35, 56, 22},
	}

	rot1024 = [8][8]uint8{
		{24, 13, 8, 47, 8, 17, 22, 37},
		{38, 19, 10, 55, 49, 18, 23, 52},
		{33, 4, 51, 13, 34, 41, 59, 17},
		{5, 20, 48, 41, 47, 28, 16, 25},
		{41, 9, 37, 31, 12, 47, 44, 30},
		{16, 34, 56, 51, 4, 53, 42, 41},
		{31, 44, 47, 46, 19, 42, 44, 25},
		{9, 48, 35, 52, 23, 31, 37, 20},
	}

	// Row k is the word order seen by round k mod 4: row 1 composed with itself k times.
	perm256 = [4][4]uint8{
		{0, 1, 2, 3},
		{0, 3, 2, 1},
		{0, 1, 2, 3},
		{0, 3, 2, 1},
	}

	perm512 = [4][8]uint8{
		{0, 1, 2, 3, 4, 5, 6, 7},
		{2, 1, 4, 7, 6, 5, 0, 3},
		{4, 1, 6, 3, 0, 5, 2, 7},
		{6, 1, 0, 7, 2, 5, 4, 3},
	}

	perm1024 = [4][16]uint8{
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
		{0, 9, 2, 13, 6, 11, 4, 15, 10, 7, 12, 3, 14, 5, 8, 1},
		{0, 7, 2, 5, 4, 3, 6, 1, 12, 15, 14, 13, 8, 11, 10, 9},
		{0, 15, 2, 11, 6, 13, 4, 9, 14, 1, 8, 5, 10, 3, 12, 7},
	}
)

// params describes one Threefish variant. Only the three values below exist.
type params struct {
	// words is the number of 64-bit words per block (N).
	words int

	// rounds is the total number of rounds, a multiple of 8.
	rounds int

	// rot holds the 8 rotation rows, each words/2 long.
	rot [8][]uint8

	// perm holds the 4 permutation rows, each words long.
	perm [4][]uint8
}

//nolint:gochecknoglobals
var (
	params256 = func() *params {
		p := &params{words: 4, rounds: 72}
		for i := range rot256 {
			p.rot[i] = rot256[i][:]
		}
		for i := range perm256 {
			p.perm[i] = perm256[i][:]
		}

		return p
	}()

	params512 = func() *params {
		p := &params{words: 8, rounds: 72}
		for i := range rot512 {
			p.rot[i] = rot512[i][:]
		}
		for i := range perm512 {
			p.perm[i] = perm512[i][:]
		}

		return p
	}()

	params1024 = func() *params {
		p := &params{words: 16, rounds: 80}
		for i := range rot1024 {
			p.rot[i] = rot1024[i][:]
		}
		for i := range perm1024 {
			p.perm[i] = perm1024[i][:]
		}

		return p
	}()
)

// paramsFor returns the variant for a block size in bytes, or nil.
func paramsFor(blockSize int) *params {
	switch blockSize {
	case BlockSize256:
		return params256
	case BlockSize512:
		return params512
	case BlockSize1024:
		return params1024
	default:
		return nil
	}
}

// blockSize returns the block size in bytes.
func (p *params) blockSize() int { return p.words * 8 }
