package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hupe1980/abruijn"
	"github.com/hupe1980/abruijn/reads"
)

type app struct {
	v        *viper.Viper
	cfgFile  string
	settings settings
	logger   *abruijn.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: newViper()}

	root := &cobra.Command{
		Use:           "abruijn",
		Short:         "Build k-mer graphs and extension indexes from sequencing reads",
		SilenceUsage:  true,
		Version:       "0.1.0",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default ./abruijn.yaml if present)")
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "text", "log format: text or json")

	root.AddCommand(
		newGraphCmd(a),
		newIndexCmd(a),
		newQueryCmd(a),
		newPublishCmd(a),
	)
	return root
}

// init binds the flags of the running command, reads the config file and
// decodes the merged settings.
func (a *app) init(cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err == nil {
			err = a.v.BindPFlag(f.Name, f)
		}
	})
	if err != nil {
		return err
	}
	if err := readConfig(a.v, a.cfgFile); err != nil {
		return err
	}
	if a.settings, err = loadSettings(a.v); err != nil {
		return err
	}
	a.logger, err = a.settings.logger()
	return err
}

func addBuildFlags(fs *pflag.FlagSet) {
	fs.Int("k", abruijn.DefaultK, "k-mer length")
	fs.Int("read-limit", 0, "process at most this many reads per pass (0 = all)")
	fs.Bool("paired", false, "treat the inputs as left/right pairs of mate files")
}

// openReads opens every input. With paired set, consecutive inputs are
// mates.
func openReads(paths []string, paired bool) (reads.Stream, func(), error) {
	var (
		streams []reads.Stream
		closers []func() error
	)
	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}
	if paired && len(paths)%2 != 0 {
		return nil, nil, fmt.Errorf("paired input needs an even number of files, got %d", len(paths))
	}
	step := 1
	if paired {
		step = 2
	}
	for i := 0; i < len(paths); i += step {
		if paired {
			p, err := reads.OpenPaired(paths[i], paths[i+1])
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			streams, closers = append(streams, p), append(closers, p.Close)
			continue
		}
		f, err := reads.Open(paths[i])
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		streams, closers = append(streams, f), append(closers, f.Close)
	}
	return reads.Concat(streams...), closeAll, nil
}

func defaultWorkers() int { return runtime.GOMAXPROCS(0) }

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
