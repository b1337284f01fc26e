// Package scratch provides the block scratch buffer: the memory holding
// every group queue of one block, contiguous and group-major.
//
// # Ownership
//
// A Buffer is owned by exactly one block invocation at a time. Buffers are
// recycled through a Pool and reset to the sentinel pair before each use;
// nothing is shared between rows that run concurrently.
//
// # Layout
//
//	group 0: [0, NumWarpQ)
//	group 1: [NumWarpQ, 2*NumWarpQ)
//	...
//
// Because the regions are adjacent, the block reducer can merge groups
// pairwise in place.
package scratch
