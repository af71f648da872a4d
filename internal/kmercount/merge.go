package kmercount

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/hupe1980/abruijn/internal/bucket"
	"github.com/hupe1980/abruijn/internal/fs"
	"github.com/hupe1980/abruijn/internal/queue"
	"github.com/hupe1980/abruijn/internal/resource"
)

// ErrUnsorted is returned when a run is not strictly increasing.
var ErrUnsorted = errors.New("kmercount: run is not sorted")

// MergeOptions configures Merge.
type MergeOptions struct {
	K           int
	Compression bucket.Compression
	Controller  *resource.Controller
	// RemoveRuns deletes the inputs after a successful merge.
	RemoveRuns bool
}

type source struct {
	next func() (bucket.KmerCount, error, bool)
	stop func()
	last uint64
	read bool
}

func (s *source) advance(i int) (queue.Item, bool, error) {
	kc, err, ok := s.next()
	if !ok {
		return queue.Item{}, false, nil
	}
	if err != nil {
		return queue.Item{}, false, err
	}
	if s.read && kc.Kmer <= s.last {
		return queue.Item{}, false, ErrUnsorted
	}
	s.last, s.read = kc.Kmer, true
	return queue.Item{Key: kc.Kmer, Count: kc.Count, Source: i}, true, nil
}

// Merge k-way merges sorted runs into the bucket file dst, summing the counts
// of equal k-mers. It returns the number of distinct k-mers written.
func Merge(ctx context.Context, fsys fs.FileSystem, runs []string, dst string, opts MergeOptions) (uint64, error) {
	files := make([]*bucket.File, 0, len(runs))
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	for _, name := range runs {
		f, err := bucket.Open(fsys, name)
		if err != nil {
			return 0, err
		}
		files = append(files, f)
	}

	out, err := bucket.Create(ctx, fsys, dst, bucket.WriterOptions{
		RecordSize:  bucket.KmerCountSize,
		K:           opts.K,
		Compression: opts.Compression,
	}, opts.Controller)
	if err != nil {
		return 0, err
	}

	if err := mergeInto(ctx, files, out); err != nil {
		out.Abort()
		return 0, fmt.Errorf("merge %s: %w", dst, err)
	}
	t, err := out.Commit()
	if err != nil {
		return 0, err
	}

	if opts.RemoveRuns {
		for _, f := range files {
			_ = f.Close()
		}
		files = nil
		for _, name := range runs {
			if err := fsys.Remove(name); err != nil {
				return 0, err
			}
		}
	}
	return t.Records, nil
}

func mergeInto(ctx context.Context, files []*bucket.File, out *bucket.FileWriter) error {
	sources := make([]*source, len(files))
	for i, f := range files {
		next, stop := iter.Pull2(f.KmerCounts())
		sources[i] = &source{next: next, stop: stop}
	}
	defer func() {
		for _, s := range sources {
			s.stop()
		}
	}()

	q := queue.New(len(sources))
	for i, s := range sources {
		it, ok, err := s.advance(i)
		if err != nil {
			return err
		}
		if ok {
			q.Push(it)
		}
	}

	var (
		cur     bucket.KmerCount
		pending bool
		n       int
	)
	for q.Len() > 0 {
		if n++; n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		top, _ := q.Top()
		if pending && top.Key == cur.Kmer {
			cur.Count = addSaturating(cur.Count, top.Count)
		} else {
			if pending {
				if err := out.AppendKmerCount(cur); err != nil {
					return err
				}
			}
			cur, pending = bucket.KmerCount{Kmer: top.Key, Count: top.Count}, true
		}

		next, ok, err := sources[top.Source].advance(top.Source)
		if err != nil {
			return err
		}
		if ok {
			q.ReplaceTop(next)
		} else {
			q.Pop()
		}
	}
	if pending {
		return out.AppendKmerCount(cur)
	}
	return nil
}

// ReadBucket decodes a whole bucket file.
func ReadBucket(fsys fs.FileSystem, name string) ([]bucket.KmerCount, error) {
	f, err := bucket.Open(fsys, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.ReadKmerCounts()
}
