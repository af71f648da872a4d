// Package fs provides the file-system abstraction used for bucket, run and
// index files.
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test utility that injects open, write, sync and close errors
//
// Production code uses fs.Default. Tests inject a FaultyFS to force a stage
// of the index builder to fail:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".bkt", fs.Fault{FailAfterBytes: 0})
//
// Operations take no context.Context; local file IO is not interruptible at
// the syscall level. Remote storage goes through blobstore instead.
package fs
