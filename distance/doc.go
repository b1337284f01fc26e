// Package distance provides the vector distances that produce selection keys.
//
// # Supported Metrics
//
//   - MetricL2: Squared Euclidean distance (default), smaller is better
//   - MetricCosine: Cosine distance (1 - cosine similarity), smaller is better
//   - MetricDot: Dot product (inner product), larger is better
//
// # Usage
//
//	dist := distance.SquaredL2(a, b)
//	sim := distance.Dot(a, b)
//	normalized, ok := distance.NormalizeL2Copy(vec)
//
// # Norm Expansion
//
// Brute-force search computes L2 through the expansion
// ‖q‖² + ‖x‖² − 2·q·x with precomputed norms. Rounding can make the result
// slightly negative for near-identical vectors; SquaredL2FromNorms clamps
// it to zero.
package distance
