package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"

	"github.com/hupe1980/abruijn"
	"github.com/hupe1980/abruijn/blobstore"
	miniostore "github.com/hupe1980/abruijn/blobstore/minio"
	s3store "github.com/hupe1980/abruijn/blobstore/s3"
)

func newPublishCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish [flags] workdir target",
		Short: "Copy a finished index to a directory, S3 or MinIO",
		Long: `
Copy the index in workdir to target. Targets are a local directory,
s3://bucket/prefix or minio://endpoint/bucket/prefix. Bucket files are
uploaded first and CURRENT last. With --ddb-table the CURRENT pointer of an
S3 target is committed to DynamoDB with a conditional write.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.publish(contextOf(cmd), args[0], args[1])
		},
	}
	addPublishFlags(cmd)
	return cmd
}

func addPublishFlags(cmd *cobra.Command) {
	cmd.Flags().String("ddb-table", "", "DynamoDB table holding the CURRENT pointer of an S3 target")
	cmd.Flags().String("region", "", "AWS region")
	cmd.Flags().String("minio-access-key", "", "MinIO access key")
	cmd.Flags().String("minio-secret-key", "", "MinIO secret key")
	cmd.Flags().Bool("minio-insecure", false, "connect to MinIO over plain HTTP")
}

func (a *app) publish(ctx context.Context, workdir, target string) error {
	dst, err := a.openTarget(ctx, target)
	if err != nil {
		return err
	}
	if err := abruijn.PublishExtensionIndex(ctx, workdir, dst); err != nil {
		return err
	}
	a.logger.Info("Index published", "workdir", workdir, "target", target)
	return nil
}

type target struct {
	scheme string
	host   string // MinIO endpoint
	bucket string
	prefix string
	path   string // local directory
}

func parseTarget(raw string) (target, error) {
	if !strings.Contains(raw, "://") {
		return target{scheme: "file", path: raw}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return target{}, fmt.Errorf("publish target %q: %w", raw, err)
	}
	rest := strings.Trim(u.Path, "/")
	switch u.Scheme {
	case "file":
		return target{scheme: "file", path: u.Path}, nil
	case "s3":
		if u.Host == "" {
			return target{}, fmt.Errorf("publish target %q: missing bucket", raw)
		}
		return target{scheme: "s3", bucket: u.Host, prefix: prefixOf(rest)}, nil
	case "minio":
		bucket, prefix, _ := strings.Cut(rest, "/")
		if u.Host == "" || bucket == "" {
			return target{}, fmt.Errorf("publish target %q: want minio://endpoint/bucket[/prefix]", raw)
		}
		return target{scheme: "minio", host: u.Host, bucket: bucket, prefix: prefixOf(prefix)}, nil
	default:
		return target{}, fmt.Errorf("publish target %q: unsupported scheme %q", raw, u.Scheme)
	}
}

func prefixOf(p string) string {
	if p == "" {
		return ""
	}
	return p + "/"
}

func (a *app) openTarget(ctx context.Context, raw string) (blobstore.Store, error) {
	t, err := parseTarget(raw)
	if err != nil {
		return nil, err
	}
	s := a.settings

	switch t.scheme {
	case "s3":
		store, err := s3store.New(ctx, t.bucket, s3store.WithPrefix(t.prefix), s3store.WithRegion(s.Region))
		if err != nil {
			return nil, err
		}
		if s.DDBTable == "" {
			return store, nil
		}
		var loadOpts []func(*config.LoadOptions) error
		if s.Region != "" {
			loadOpts = append(loadOpts, config.WithRegion(s.Region))
		}
		cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, err
		}
		return s3store.NewDDBCommitStore(store, dynamodb.NewFromConfig(cfg), s.DDBTable, raw), nil
	case "minio":
		return miniostore.Dial(miniostore.Config{
			Endpoint:  t.host,
			AccessKey: s.MinioAccessKey,
			SecretKey: s.MinioSecretKey,
			Secure:    !s.MinioInsecure,
			Region:    s.Region,
			Bucket:    t.bucket,
			Prefix:    t.prefix,
		})
	default:
		return blobstore.NewLocalStore(t.path), nil
	}
}
