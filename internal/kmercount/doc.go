// Package kmercount counts packed k-mers on disk.
//
// A Spiller buffers k-mers per bucket and writes sorted, deduplicated run
// files whenever its memory reservation is exhausted. Merge combines the
// runs of one bucket into a single sorted bucket file with summed counts.
//
//	sp := kmercount.NewSpiller(kmercount.Options{Dir: dir, Prefix: "kp1.s000", Buckets: 16})
//	_ = sp.Add(ctx, kmer)
//	runs, _ := sp.Close(ctx)
//	_, _ = kmercount.Merge(ctx, fs.Default, runs[0], "kp1.b000.bkt", kmercount.MergeOptions{})
package kmercount
