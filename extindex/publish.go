package extindex

import (
	"context"
	"fmt"

	"github.com/hupe1980/abruijn/blobstore"
	"github.com/hupe1980/abruijn/internal/manifest"
	"github.com/hupe1980/abruijn/internal/parallel"
)

// DefaultPublishWorkers is the number of concurrent uploads of Publish.
const DefaultPublishWorkers = 4

// Publish copies the finished index in workdir into dst. Bucket files go
// first, then the manifest, and CURRENT last, so readers of dst never see a
// partial index.
func Publish(ctx context.Context, workdir string, dst blobstore.Store) error {
	return Copy(ctx, blobstore.NewLocalStore(workdir), dst)
}

// Copy copies the index referenced by CURRENT in src into dst.
func Copy(ctx context.Context, src, dst blobstore.Store) error {
	m, err := manifest.Load(ctx, src)
	if err != nil {
		return err
	}
	runner := parallel.NewRunner(DefaultPublishWorkers, nil)
	err = parallel.ForEach(ctx, runner, m.Names(), func(ctx context.Context, name string) error {
		return copyBlob(ctx, src, dst, name)
	})
	if err != nil {
		return err
	}
	return manifest.Save(ctx, dst, m)
}

func copyBlob(ctx context.Context, src, dst blobstore.Store, name string) error {
	b, err := src.Open(ctx, name)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer b.Close()
	if err := blobstore.Upload(ctx, dst, name, blobstore.Reader(ctx, b)); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}
