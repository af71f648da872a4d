// Package extmask provides a lock-free array of 8-bit extension masks.
//
// Architecture:
//   - Eight masks are packed into one atomic.Uint64 word
//   - Words are grouped into 8 KiB segments allocated up front
//   - Or is a single atomic Uint64.Or, so concurrent fill tasks never lock
//
// The fill stage of the extension index ORs successor and predecessor bits
// into one shared Array; readers snapshot ranges after the stage barrier.
package extmask
