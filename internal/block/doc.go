// Package block implements block selection: several lockstep groups, each
// with its own group queue, cooperating on one candidate stream and reduced
// into a single sorted top-k.
//
// # Work distribution
//
// Candidate i belongs to thread i mod BlockThreads; thread t is lane
// t mod Lanes of group t / Lanes. Groups run on their own goroutines and add
// a full lockstep chunk of Lanes candidates per step. The last chunk of a
// stream may be partial; its owning group inserts it lane by lane without the
// overflow check and relies on the final flush.
//
// # Reduction
//
//  1. Every group flushes its thread queues into its group queue.
//  2. Block barrier: all group queues in scratch memory are final.
//  3. log2(groups) merge levels; at level s, group g (g mod 2s == 0) merges
//     region g+s into region g. Each level ends with a block barrier.
//  4. Region 0 holds the block result; the first k pairs are copied out.
package block
