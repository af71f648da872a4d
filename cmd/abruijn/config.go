package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/hupe1980/abruijn"
)

// envPrefix prefixes every environment variable, e.g. ABRUIJN_K.
const envPrefix = "ABRUIJN"

// settings is the merged view of flags, environment and config file.
type settings struct {
	K           int    `mapstructure:"k"`
	Workers     int    `mapstructure:"workers"`
	WorkDir     string `mapstructure:"workdir"`
	ReadLimit   int    `mapstructure:"read-limit"`
	Paired      bool   `mapstructure:"paired"`
	Buckets     int    `mapstructure:"buckets"`
	Canonical   bool   `mapstructure:"canonical"`
	Compression string `mapstructure:"compression"`
	MemoryLimit int64  `mapstructure:"memory-limit"`
	IOLimit     int64  `mapstructure:"io-limit"`

	Out      string `mapstructure:"out"`
	Format   string `mapstructure:"format"`
	Condense bool   `mapstructure:"condense"`
	LabelLen int    `mapstructure:"label-len"`

	Publish        string `mapstructure:"publish"`
	DDBTable       string `mapstructure:"ddb-table"`
	Region         string `mapstructure:"region"`
	MinioAccessKey string `mapstructure:"minio-access-key"`
	MinioSecretKey string `mapstructure:"minio-secret-key"`
	MinioInsecure  bool   `mapstructure:"minio-insecure"`

	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// readConfig loads path, or abruijn.{yaml,json,toml} from the working
// directory when path is empty. A missing default file is not an error.
func readConfig(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("abruijn")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &nf) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func loadSettings(v *viper.Viper) (settings, error) {
	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

func (s settings) logger() (*abruijn.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", s.LogLevel, err)
	}
	switch s.LogFormat {
	case "", "text":
		return abruijn.NewTextLogger(level), nil
	case "json":
		return abruijn.NewJSONLogger(level), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", s.LogFormat)
	}
}

// options maps the settings onto build options. Settings without a flag on
// the running command keep their zero value and the library default.
func (s settings) options(l *abruijn.Logger) []abruijn.Option {
	opts := []abruijn.Option{
		abruijn.WithK(s.K),
		abruijn.WithWorkDir(s.WorkDir),
		abruijn.WithReadLimit(s.ReadLimit),
		abruijn.WithBuckets(s.Buckets),
		abruijn.WithCanonical(s.Canonical),
		abruijn.WithCompression(s.Compression),
		abruijn.WithMemoryLimit(s.MemoryLimit),
		abruijn.WithIOLimit(s.IOLimit),
		abruijn.WithCondense(s.Condense),
		abruijn.WithLogger(l),
	}
	if s.Workers > 0 {
		opts = append(opts, abruijn.WithWorkers(s.Workers))
	}
	return opts
}
