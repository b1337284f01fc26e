// Package blockselect provides exact parallel top-k selection.
//
// A Selector picks the k best (key, value) pairs out of a stream of
// candidates without materializing or sorting the stream. Candidates are
// distributed over the lanes of a block. Each lane keeps a tiny thread queue,
// each group of lanes keeps a sorted group queue in block scratch memory, and
// the group queues are merged pairwise at the end of the stream. All sorting
// and merging is done with bitonic networks.
//
// # Quick Start
//
//	sel, err := blockselect.New(keys.Float32(), int32(-1),
//	    blockselect.WithK(10),
//	    blockselect.WithDirection(blockselect.Smallest),
//	)
//	if err != nil {
//	    return err
//	}
//
//	res, err := sel.SelectRow(model.SliceSource(dists, ids), len(dists))
//
// # Batches
//
// SelectBatch selects every row of a batch concurrently. Each row runs on its
// own block and scratch buffer:
//
//	results, err := sel.SelectBatch(ctx, numQueries, numCandidates,
//	    func(row, i int) (float32, int32) {
//	        return dist(queries[row], data[i]), int32(i)
//	    })
//
// # Capacities
//
// The group queue capacity bounds k. ParamsForK picks the capacities used
// when none are configured:
//
//	k ≤ 32    → NumWarpQ 32,   NumThreadQ 2
//	k ≤ 64    → NumWarpQ 64,   NumThreadQ 4
//	k ≤ 128   → NumWarpQ 128,  NumThreadQ 4
//	k ≤ 256   → NumWarpQ 256,  NumThreadQ 4
//	k ≤ 512   → NumWarpQ 512,  NumThreadQ 8
//	k ≤ 1024  → NumWarpQ 1024, NumThreadQ 8
//	k ≤ 2048  → NumWarpQ 2048, NumThreadQ 8
//
// Results shorter than k (fewer candidates than k) are padded with the
// sentinel key of the direction and the sentinel value given to New.
package blockselect
