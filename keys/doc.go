// Package keys provides ordering and sentinel traits for candidate keys.
//
// A Traits value tells the engine how to compare keys and which keys to use
// for unfilled queue slots. The sentinel always loses against any real key:
//
//   - Smallest mode fills empty slots with Highest (+Inf for floats)
//   - Largest mode fills empty slots with Lowest (-Inf for floats)
//
// Because admission is strict, a real candidate whose key equals the
// sentinel is never admitted. NaN keys are not ordered consistently and must
// be normalized by the producer.
package keys
