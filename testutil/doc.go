// Package testutil provides testing utilities for blockselect.
//
// This package is intended for use in tests and benchmarks only.
// It provides a deterministic random source, candidate stream generators and
// two sequential reference implementations used as oracles.
//
// # Random Candidates
//
//	rng := testutil.NewRNG(seed)
//	keys := rng.Float32s(10000)
//	vecs := rng.UniformVectors(100, 32)
//
// # Oracles
//
//	want := testutil.ExactTopK(order, pairs, k, sentinel)   // full sort
//	heap := testutil.NewBoundedHeap[float32, int](order, k)  // bounded heap
package testutil
