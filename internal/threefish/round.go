package threefish

import "math/bits"

// mix is the add-rotate-xor step applied to a pair of words.
func mix(x0, x1 uint64, r uint8) (uint64, uint64) {
	y0 := x0 + x1

	return y0, bits.RotateLeft64(x1, int(r)) ^ y0
}

// mixInv undoes mix with the same rotation amount.
func mixInv(y0, y1 uint64, r uint8) (uint64, uint64) {
	x1 := bits.RotateLeft64(y0^y1, -int(r))

	return y0 - x1, x1
}

// round mixes the word pairs (perm[2j], perm[2j+1]) of v in place, rotating by rot[j].
func round(v []uint64, rot, perm []uint8) {
	for j, r := range rot {
		a, b := perm[2*j], perm[2*j+1]
		v[a], v[b] = mix(v[a], v[b], r)
	}
}

// roundInv undoes one call to round with the same rotation row and permutation.
func roundInv(v []uint64, rot, perm []uint8) {
	for j, r := range rot {
		a, b := perm[2*j], perm[2*j+1]
		v[a], v[b] = mixInv(v[a], v[b], r)
	}
}
