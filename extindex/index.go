package extindex

import (
	"context"
	"fmt"
	"iter"
	"runtime"
	"slices"

	"github.com/hupe1980/abruijn/blobstore"
	"github.com/hupe1980/abruijn/internal/bucket"
	"github.com/hupe1980/abruijn/internal/manifest"
	"github.com/hupe1980/abruijn/internal/parallel"
	"github.com/hupe1980/abruijn/sequence"
)

// Index is a loaded extension index. It is safe for concurrent readers.
type Index struct {
	m      *manifest.Manifest
	t      *table
	counts [][]uint32
	masks  [][]byte
}

// OpenDir opens the index built into dir.
func OpenDir(ctx context.Context, dir string) (*Index, error) {
	return Open(ctx, blobstore.NewLocalStore(dir))
}

// Open follows CURRENT in store and loads every bucket the manifest lists.
// Bucket files are checked against the manifest checksums.
func Open(ctx context.Context, store blobstore.Store) (*Index, error) {
	m, err := manifest.Load(ctx, store)
	if err != nil {
		return nil, err
	}
	idx := &Index{
		m:      m,
		t:      newTable(m.Buckets, m.Seed),
		counts: make([][]uint32, m.Buckets),
		masks:  make([][]byte, m.Buckets),
	}

	runner := parallel.NewRunner(runtime.GOMAXPROCS(0), nil)
	err = parallel.ForEach(ctx, runner, m.Files, func(ctx context.Context, f manifest.BucketFile) error {
		return idx.load(ctx, store, f)
	})
	if err != nil {
		return nil, err
	}
	if got := idx.t.assignOffsets(); got != m.Total {
		return nil, fmt.Errorf("%w: index holds %d k-mers, manifest %d", manifest.ErrInvalid, got, m.Total)
	}
	return idx, nil
}

func (idx *Index) load(ctx context.Context, store blobstore.Store, f manifest.BucketFile) error {
	err := readBucket(ctx, store, f.Kmers, f.KmersChecksum, func(r *bucket.Reader) error {
		counts, err := r.ReadKmerCounts()
		if err != nil {
			return err
		}
		kmers := make([]uint64, len(counts))
		cs := make([]uint32, len(counts))
		for i, kc := range counts {
			kmers[i], cs[i] = kc.Kmer, kc.Count
		}
		idx.t.kmers[f.Bucket], idx.counts[f.Bucket] = kmers, cs
		return nil
	})
	if err != nil {
		return err
	}
	err = readBucket(ctx, store, f.Masks, f.MasksChecksum, func(r *bucket.Reader) error {
		masks, err := r.ReadMasks()
		idx.masks[f.Bucket] = masks
		return err
	})
	if err != nil {
		return err
	}
	if n := uint64(len(idx.masks[f.Bucket])); n != f.Count || uint64(len(idx.t.kmers[f.Bucket])) != n {
		return fmt.Errorf("%w: bucket %d holds %d masks and %d k-mers, manifest %d",
			manifest.ErrInvalid, f.Bucket, n, len(idx.t.kmers[f.Bucket]), f.Count)
	}
	return nil
}

// readBucket decodes the bucket file name while its blob is open.
func readBucket(ctx context.Context, store blobstore.Store, name string, checksum uint32, fn func(*bucket.Reader) error) error {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer blob.Close()

	data, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	r, err := bucket.NewReader(data)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if got := r.Trailer().Checksum; got != checksum {
		return fmt.Errorf("%w: %s has %08x, manifest %08x", ErrChecksumMismatch, name, got, checksum)
	}
	if err := fn(r); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// K returns the k-mer length.
func (idx *Index) K() int { return idx.m.K }

// Canonical reports whether k-mers are stored in canonical orientation only.
func (idx *Index) Canonical() bool { return idx.m.Canonical }

// Len returns the number of stored k-mers.
func (idx *Index) Len() uint64 { return idx.m.Total }

// Stats returns the counters of the build that wrote the index.
func (idx *Index) Stats() Stats {
	return Stats{
		MaxReadLength: idx.m.Stats.MaxReadLength,
		Reads:         idx.m.Stats.Reads,
		KPlusOneMers:  idx.m.Stats.KPlusOneMers,
		KMers:         idx.m.Total,
		Buckets:       idx.m.Buckets,
	}
}

// key returns the stored form of x and whether it is x's reverse complement.
func (idx *Index) key(x sequence.Kmer) (sequence.Kmer, bool) {
	x = sequence.Kmer(uint64(x) & sequence.KmerMask(idx.m.K))
	if !idx.m.Canonical {
		return x, false
	}
	if x.IsCanonical(idx.m.K) {
		return x, false
	}
	return x.Complement(idx.m.K), true
}

func (idx *Index) locate(x sequence.Kmer) (b, i int, flipped, ok bool) {
	key, flipped := idx.key(x)
	b = idx.t.bucket(uint64(key))
	i, ok = slices.BinarySearch(idx.t.kmers[b], uint64(key))
	return b, i, flipped, ok
}

// Lookup returns the dense id of x, in [0, Len()).
func (idx *Index) Lookup(x sequence.Kmer) (uint64, bool) {
	b, i, _, ok := idx.locate(x)
	if !ok {
		return 0, false
	}
	return idx.t.offsets[b] + uint64(i), true
}

// Mask returns the extension bits of x, oriented to x.
func (idx *Index) Mask(x sequence.Kmer) (Mask, bool) {
	b, i, flipped, ok := idx.locate(x)
	if !ok {
		return 0, false
	}
	m := Mask(idx.masks[b][i])
	if flipped {
		m = m.Complement()
	}
	return m, true
}

// Count returns how many stored (k+1)-mers start or end with x or, in
// canonical mode, its reverse complement.
func (idx *Index) Count(x sequence.Kmer) (uint32, bool) {
	b, i, _, ok := idx.locate(x)
	if !ok {
		return 0, false
	}
	return idx.counts[b][i], true
}

// Successors returns the k-mers that follow x in the indexed reads.
func (idx *Index) Successors(x sequence.Kmer) []sequence.Kmer {
	m, ok := idx.Mask(x)
	if !ok {
		return nil
	}
	var out []sequence.Kmer
	for _, n := range m.Successors() {
		out = append(out, x.Append(idx.m.K, n))
	}
	return out
}

// Predecessors returns the k-mers that precede x in the indexed reads.
func (idx *Index) Predecessors(x sequence.Kmer) []sequence.Kmer {
	m, ok := idx.Mask(x)
	if !ok {
		return nil
	}
	var out []sequence.Kmer
	for _, n := range m.Predecessors() {
		out = append(out, x.Prepend(idx.m.K, n))
	}
	return out
}

// All yields every stored k-mer with its mask in dense id order.
func (idx *Index) All() iter.Seq2[sequence.Kmer, Mask] {
	return func(yield func(sequence.Kmer, Mask) bool) {
		for b, kmers := range idx.t.kmers {
			for i, x := range kmers {
				if !yield(sequence.Kmer(x), Mask(idx.masks[b][i])) {
					return
				}
			}
		}
	}
}

// Close drops the loaded buckets.
func (idx *Index) Close() error {
	for b := range idx.t.kmers {
		idx.t.kmers[b], idx.counts[b], idx.masks[b] = nil, nil, nil
	}
	return nil
}
