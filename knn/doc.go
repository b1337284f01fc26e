// Package knn implements exact brute-force k-nearest-neighbor search on top
// of the block selector.
//
// Every query is one row of a selection batch. Distances are produced lazily
// while the selector streams candidates, so the full distance matrix is never
// materialized.
//
//	idx, _ := knn.New(128, distance.MetricL2)
//	_ = idx.Add(vectors...)
//	hits, _ := idx.Search(ctx, queries, 10)
//
// A roaring bitmap restricts the candidate set; ids outside the filter are
// never offered to the selector:
//
//	allowed := roaring.BitmapOf(1, 5, 42)
//	hits, _ := idx.Search(ctx, queries, 10, knn.WithFilter(allowed))
package knn
