// Package bucket implements the on-disk format shared by run, bucket and
// index files.
//
// A file is a sequence of blocks of fixed-size records followed by a trailer:
//
//	[block]*  [trailer: 32 bytes]
//
// Each block is [uncompressed u32][compressed u32][payload]; a compressed
// size of 0 means the payload is stored raw. The trailer holds the record
// count, block count, record size, compression, k and a CRC32C over all
// bytes that precede it. All integers are little endian.
//
// Compression is deterministic, so identical record streams produce
// byte-identical files.
package bucket
