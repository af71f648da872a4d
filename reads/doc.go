// Package reads provides the read source consumed by the graph and index
// builders.
//
// A Stream yields Read values until io.EOF. Builders that make two passes
// over the input call Reset between passes. The package ships in-memory
// streams, a read-count limiter, a deterministic partitioner that splits one
// stream into shards, and a FASTA/FASTQ parser that transparently handles
// gzip and zstd input.
package reads
