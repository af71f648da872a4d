package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/abruijn"
	"github.com/hupe1980/abruijn/sequence"
)

func newQueryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [flags] kmer [kmer ...]",
		Short: "Print the extension masks of k-mers from a finished index",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runQuery,
	}
	cmd.Flags().StringP("workdir", "d", "./abruijn-index", "directory of the index")
	return cmd
}

func (a *app) runQuery(cmd *cobra.Command, args []string) error {
	idx, err := abruijn.OpenExtensionIndex(contextOf(cmd), a.settings.WorkDir)
	if err != nil {
		return err
	}
	defer idx.Close()

	out := cmd.OutOrStdout()
	for _, arg := range args {
		if len(arg) != idx.K() {
			return fmt.Errorf("k-mer %q has length %d, index has k=%d", arg, len(arg), idx.K())
		}
		x, err := sequence.ParseKmer(arg)
		if err != nil {
			return err
		}
		m, ok := idx.Mask(x)
		if !ok {
			fmt.Fprintf(out, "%s\tabsent\n", arg)
			continue
		}
		n, _ := idx.Count(x)
		fmt.Fprintf(out, "%s\t%s\t%d\n", arg, m, n)
	}
	return nil
}
