package playlist

// deterministicShuffle reorders tracks in place using a time-seeded,
// non-cryptographic swap: for each position i, swap with j = (seed +
// i*17) mod (i+1). It only needs to produce a different order across
// runs, not a uniform distribution.
func deterministicShuffle(tracks []string, seed uint64) {
	for i := 0; i < len(tracks); i++ {
		j := (seed + uint64(i)*17) % uint64(i+1)
		tracks[i], tracks[j] = tracks[j], tracks[i]
	}
}
