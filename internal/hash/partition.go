package hash

// DefaultSeed seeds the bucket partition hash.
const DefaultSeed uint64 = 0xDEADBEEF

// Partition mixes a packed k-mer with seed (murmur3 finalizer).
func Partition(kmer, seed uint64) uint64 {
	x := kmer ^ seed
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

// Bucket returns Partition(kmer, seed) reduced to [0, n).
func Bucket(kmer, seed uint64, n int) int {
	return int(Partition(kmer, seed) % uint64(n))
}
