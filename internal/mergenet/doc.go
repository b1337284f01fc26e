// Package mergenet implements the sorting and merging networks used by the
// group queues and the block reducer.
//
// All networks operate on parallel key/value slices whose length is a power
// of two. The sequence of compare-exchange steps depends only on the length,
// never on the data, which is what lets a lockstep group execute them with
// every lane doing the same work.
//
// Orders are expressed with model.Order; "best-first" means the element for
// which Order.Better holds sits at index 0.
package mergenet
