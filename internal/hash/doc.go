// Package hash provides the hashing primitives of the graph and index builders.
//
// # Rolling hash
//
// Roller computes a strand-symmetric rolling hash over every k-mer of a
// sequence. For each window it combines a forward polynomial hash with the
// polynomial hash of the window's reverse complement:
//
//	H[i] = F[i] ^ R[i] ^ salt
//
// Both halves are rolled in O(1) per position with wrapping uint64
// arithmetic. Because XOR is symmetric, a k-mer and its reverse complement
// hash to the same value, and hashing the reverse complement of a read yields
// the reversed hash sequence.
//
// # Partition hash
//
// Partition scatters packed k-mers over buckets with a seeded 64-bit mixer.
// The mapping is stable across runs and platforms.
//
// # CRC32C
//
// Bucket and index files carry CRC32-Castagnoli checksums:
//
//	checksum := hash.CRC32C(data)
package hash
