// Package manifest persists the description of a finished extension index.
//
// # Layout
//
// A published index is a flat set of blobs:
//
//	index.b000.kmr ... index.bNNN.kmr   sorted K-mers with counts per bucket
//	index.b000.ext ... index.bNNN.ext   one mask byte per K-mer
//	MANIFEST.json                       this manifest
//	CURRENT                             name of the live manifest
//
// Each bucket entry carries the global offset of its first K-mer, so the
// dense index of a K-mer is offset + rank within its bucket.
//
// # Atomic Protocol
//
// Save writes the manifest blob first and the CURRENT pointer last. Readers
// start from CURRENT, so they observe either the previous or the new index.
// With a DynamoDB commit store the CURRENT update is a conditional write.
package manifest
