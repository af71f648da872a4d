// Package resource bounds the resources of an index build.
//
//   - Memory: k-mer buffers reserve bytes before growing (non-blocking, fail-fast)
//   - Workers: a global cap on concurrently running stage tasks
//   - IO: a token bucket throttling bucket file writes
//
// A shard buffer reserves memory chunk by chunk and spills to disk when a
// reservation fails:
//
//	if err := rc.AcquireMemory(chunk); errors.Is(err, resource.ErrMemoryLimitExceeded) {
//	    // spill sorted run, release reservation, retry
//	}
//
// All methods are no-ops on a nil *Controller, so limiting stays optional.
package resource
