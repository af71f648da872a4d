// Package abruijn builds k-mer graphs of DNA sequencing reads.
//
// Two constructions are offered:
//
//   - BuildGraph samples landmark k-mers from every read and links them into
//     a strand-symmetric in-memory graph whose edges carry the read segments
//     between landmarks. Condensation optionally merges unbranched chains.
//   - BuildExtensionIndex runs a disk-backed pipeline that records, for
//     every distinct k-mer, which nucleotides precede and follow it in the
//     reads. The result is a set of bucket files plus a manifest that
//     OpenExtensionIndex loads and extindex.Publish copies to a blob store.
//
// # Quick Start
//
//	stream, _ := reads.Open("reads.fq.gz")
//	g, stats, _ := abruijn.BuildGraph(ctx, stream, abruijn.WithK(21), abruijn.WithCondense(true))
//
//	stats, _ := abruijn.BuildExtensionIndex(ctx, stream,
//	    abruijn.WithK(21),
//	    abruijn.WithWorkers(8),
//	    abruijn.WithWorkDir("./idx"),
//	)
//	idx, _ := abruijn.OpenExtensionIndex(ctx, "./idx")
//	defer idx.Close()
//	mask, ok := idx.Mask(kmer)
//
// # Errors
//
// Errors returned by this package match one of ErrInvalidConfig,
// ErrInvariant, ErrStageFailed or ErrNotFound with errors.Is; the cause stays
// reachable through errors.Unwrap.
package abruijn
