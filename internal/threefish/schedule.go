package threefish

// schedule is the sequence of subkeys injected every four rounds.
// Row s holds the N words added before round 4s; the last row is the output whitening.
type schedule [][]uint64

// expand derives the subkeys for one (key, tweak) pair.
// key must hold p.words words and tweak exactly two.
func expand(p *params, key []uint64, tweak [2]uint64) schedule {
	n := p.words

	ext := make([]uint64, n+1)
	copy(ext, key)

	ext[n] = C240
	for _, k := range key {
		ext[n] ^= k
	}

	t := [3]uint64{tweak[0], tweak[1], tweak[0] ^ tweak[1]}

	count := p.rounds/4 + 1
	words := make([]uint64, count*n)
	sched := make(schedule, count)

	for s := range count {
		sub := words[s*n : (s+1)*n : (s+1)*n]

		for i := range sub {
			sub[i] = ext[(s+i)%(n+1)]
		}

		sub[n-3] += t[s%3]
		sub[n-2] += t[(s+1)%3]
		sub[n-1] += uint64(s)

		sched[s] = sub
	}

	return sched
}

// inject adds subkey s to the state.
func (k schedule) inject(v []uint64, s int) {
	for i, w := range k[s] {
		v[i] += w
	}
}

// eject subtracts subkey s from the state.
func (k schedule) eject(v []uint64, s int) {
	for i, w := range k[s] {
		v[i] -= w
	}
}
