package manifest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/abruijn/blobstore"
	"github.com/hupe1980/abruijn/codec"
)

const (
	FileName        = "MANIFEST.json"
	CurrentFileName = "CURRENT"
	// CurrentVersion is the version of the manifest format.
	CurrentVersion = 1
)

// Manifest describes a finished extension index.
type Manifest struct {
	Version     int          `json:"version"`
	K           int          `json:"k"`
	Canonical   bool         `json:"canonical"`
	Seed        uint64       `json:"seed"`
	Buckets     int          `json:"buckets"`
	Compression string       `json:"compression"`
	Codec       string       `json:"codec"`
	Total       uint64       `json:"total"`
	Stats       BuildStats   `json:"stats"`
	Files       []BucketFile `json:"files"`
}

// BuildStats are the counters of the build that produced the index.
type BuildStats struct {
	Reads         uint64 `json:"reads"`
	MaxReadLength int    `json:"max_read_length"`
	KPlusOneMers  uint64 `json:"kplus1_mers"`
}

// BucketFile describes the files of one bucket.
type BucketFile struct {
	Bucket        int    `json:"bucket"`
	Kmers         string `json:"kmers"`
	Masks         string `json:"masks"`
	Count         uint64 `json:"count"`
	Offset        uint64 `json:"offset"`
	KmersChecksum uint32 `json:"kmers_checksum"`
	MasksChecksum uint32 `json:"masks_checksum"`
}

// New returns an empty manifest for the given layout.
func New(k, buckets int, canonical bool, seed uint64) *Manifest {
	return &Manifest{
		Version:   CurrentVersion,
		K:         k,
		Canonical: canonical,
		Seed:      seed,
		Buckets:   buckets,
	}
}

// Names returns the blob names the manifest references, in bucket order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, 2*len(m.Files))
	for _, f := range m.Files {
		names = append(names, f.Kmers, f.Masks)
	}
	return names
}

// Validate checks the bucket table: one entry per bucket in order, with
// offsets forming a prefix sum of the counts.
func (m *Manifest) Validate() error {
	if m.Version != CurrentVersion {
		return fmt.Errorf("%w: %d", ErrIncompatibleVersion, m.Version)
	}
	if m.K < 1 || m.Buckets < 1 {
		return fmt.Errorf("%w: k=%d buckets=%d", ErrInvalid, m.K, m.Buckets)
	}
	if len(m.Files) != m.Buckets {
		return fmt.Errorf("%w: %d files for %d buckets", ErrInvalid, len(m.Files), m.Buckets)
	}
	var off uint64
	for i, f := range m.Files {
		if f.Bucket != i {
			return fmt.Errorf("%w: entry %d is bucket %d", ErrInvalid, i, f.Bucket)
		}
		if f.Offset != off {
			return fmt.Errorf("%w: bucket %d offset %d, want %d", ErrInvalid, i, f.Offset, off)
		}
		off += f.Count
	}
	if off != m.Total {
		return fmt.Errorf("%w: total %d, buckets sum to %d", ErrInvalid, m.Total, off)
	}
	return nil
}

// Save writes the manifest and then points CURRENT at it.
func Save(ctx context.Context, store blobstore.Store, m *Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	m.Codec = codec.Default.Name()
	data, err := encode(m)
	if err != nil {
		return err
	}
	if err := store.Put(ctx, FileName, data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := store.Put(ctx, CurrentFileName, []byte(FileName)); err != nil {
		return fmt.Errorf("write %s: %w", CurrentFileName, err)
	}
	return nil
}

// Load follows CURRENT and decodes the manifest it names.
func Load(ctx context.Context, store blobstore.Store) (*Manifest, error) {
	cur, err := blobstore.Get(ctx, store, CurrentFileName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	name := strings.TrimSpace(string(cur))
	if name == "" {
		return nil, fmt.Errorf("%w: empty %s", ErrInvalid, CurrentFileName)
	}

	data, err := blobstore.Get(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", name, err)
	}
	m, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", name, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Encode returns the on-disk form of m.
func Encode(m *Manifest) ([]byte, error) { return encode(m) }

func encode(m *Manifest) ([]byte, error) {
	if ind, ok := codec.Default.(interface{ MarshalIndent(any) ([]byte, error) }); ok {
		return ind.MarshalIndent(m)
	}
	return codec.Default.Marshal(m)
}

func decode(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := codec.Default.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}
