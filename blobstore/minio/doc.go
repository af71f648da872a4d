// Package minio provides a blobstore.Store on MinIO and other S3-compatible
// services (Ceph, Garage, SeaweedFS) using the MinIO client.
//
// # Basic Usage
//
//	store, err := minio.Dial(minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	    Bucket:    "indexes",
//	    Prefix:    "run-1",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = extindex.Publish(ctx, workdir, store)
//
// An existing *minio.Client can be wrapped with NewStore.
package minio
