package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/abruijn"
)

func newIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [flags] reads_1.fq [reads_2.fq ...]",
		Short: "Build an external k-mer extension index",
		Long: `
Build a disk-backed extension index: for every distinct k-mer of the reads,
the nucleotides that precede and follow it. Intermediate runs and the final
index files are written to --workdir; memory use is bounded by
--memory-limit.

With --publish the finished index is copied to a directory, s3://bucket/prefix
or minio://endpoint/bucket/prefix. CURRENT is written last.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runIndex,
	}
	addBuildFlags(cmd.Flags())
	addPublishFlags(cmd)
	cmd.Flags().IntP("workers", "w", defaultWorkers(), "concurrent tasks per stage and read shards")
	cmd.Flags().StringP("workdir", "d", "./abruijn-index", "directory the index is built in")
	cmd.Flags().Int("buckets", 64, "hash partitions")
	cmd.Flags().Bool("canonical", false, "store each k-mer once in canonical orientation")
	cmd.Flags().String("compression", "lz4", "bucket compression: none, lz4 or zstd")
	cmd.Flags().Int64("memory-limit", 0, "k-mer buffer memory in bytes (0 = unlimited)")
	cmd.Flags().Int64("io-limit", 0, "bucket write bandwidth in bytes per second (0 = unlimited)")
	cmd.Flags().String("publish", "", "copy the finished index to this target")
	return cmd
}

func (a *app) runIndex(cmd *cobra.Command, args []string) error {
	s := a.settings
	ctx := contextOf(cmd)

	stream, closeReads, err := openReads(args, s.Paired)
	if err != nil {
		return err
	}
	defer closeReads()

	stats, err := abruijn.BuildExtensionIndex(ctx, stream, s.options(a.logger)...)
	if err != nil {
		return err
	}
	a.logger.Info("Index built",
		"workdir", s.WorkDir,
		"reads", stats.Reads,
		"max_read_length", stats.MaxReadLength,
		"kplus1_mers", stats.KPlusOneMers,
		"kmers", stats.KMers,
	)

	if s.Publish == "" {
		return nil
	}
	return a.publish(ctx, s.WorkDir, s.Publish)
}
