// Package extindex builds and serves the external k-mer extension index.
//
// An index stores, for every distinct k-mer of a read set, one byte of
// extension bits: the low nibble marks the nucleotides that follow the k-mer
// in some (k+1)-mer of the input, the high nibble the nucleotides that precede
// it. Build runs a disk-backed pipeline of five stages separated by barriers:
//
//	split   (k+1)-mers of every read shard into sorted, partitioned runs
//	count   merge the runs of each bucket into kp1.b<bucket>.bkt
//	derive  emit the two k-mers of every (k+1)-mer and count them into k.b<bucket>.bkt
//	index   assign dense ids by prefix sum and write index.b<bucket>.kmr
//	fill    OR the extension bits and write index.b<bucket>.ext and the manifest
//
// Identical input, shard count and bucket count produce byte-identical files.
// A finished index is opened with Open or OpenDir and can be copied to any
// blobstore.Store with Publish.
package extindex
