// Package s3 provides Amazon S3 implementations of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("indexes/run-1"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	err = extindex.Publish(ctx, workdir, store)
//
// # Features
//
//   - Range reads for opening published bucket files
//   - Multipart uploads with CRC32C checksums for large files
//   - Automatic pagination for listing
//   - DDBCommitStore: a DynamoDB table holds the CURRENT pointer, so
//     concurrent publishers cannot overwrite each other's commit
package s3
