package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/abruijn"
	"github.com/hupe1980/abruijn/codec"
	"github.com/hupe1980/abruijn/internal/fs"
)

func newGraphCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph [flags] reads.fq [reads2.fq ...]",
		Short: "Build a landmark graph and write it as JSON or DOT",
		Long: `
Build a strand-symmetric landmark graph. Every read contributes the two
k-mers with the smallest hashes to the landmark set; a second pass links the
landmark occurrences of each read by the read segment between them.

Inputs may be FASTA or FASTQ, optionally gzip or zstd compressed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runGraph,
	}
	addBuildFlags(cmd.Flags())
	cmd.Flags().StringP("out", "o", "", "output file (default stdout)")
	cmd.Flags().StringP("format", "f", "json", "output format: json, go-json or dot")
	cmd.Flags().Bool("condense", false, "merge unbranched chains before writing")
	cmd.Flags().Int("label-len", 10, "symbols of vertex data shown in DOT labels")
	return cmd
}

func (a *app) runGraph(cmd *cobra.Command, args []string) error {
	s := a.settings
	stream, closeReads, err := openReads(args, s.Paired)
	if err != nil {
		return err
	}
	defer closeReads()

	g, stats, err := abruijn.BuildGraph(contextOf(cmd), stream, s.options(a.logger)...)
	if err != nil {
		return err
	}
	a.logger.Info("Graph built",
		"vertices", g.Len(),
		"reads", stats.Reads,
		"landmarks", stats.Landmarks,
		"edges", stats.Edges,
		"merges", stats.Merges,
	)

	var buf bytes.Buffer
	switch s.Format {
	case "dot":
		if err := g.WriteDOT(&buf, s.LabelLen); err != nil {
			return err
		}
	default:
		c, ok := codec.ByName(s.Format)
		if !ok {
			return fmt.Errorf("unknown format %q", s.Format)
		}
		data, err := g.Snapshot().Encode(c)
		if err != nil {
			return err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	if s.Out == "" {
		_, err = cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	return fs.WriteFile(fs.Default, s.Out, buf.Bytes())
}
