// Package warpq implements the group queue: a sorted, fixed-capacity queue
// owned by one lockstep group of lanes.
//
// Every lane feeds its own thread queue. After each lockstep add the group
// takes a ballot over its lanes; if any lane's thread queue is full, all
// thread queues are sorted and merged into the group queue at once, the
// thread queues are reset and the rejection threshold moves to the key now
// at rank k-1.
//
// The lanes of a group execute on a single goroutine, one after the other in
// lane order. Within a group, program order therefore stands in for the
// group fence: every lane observes the group queue writes of the previous
// step. Visibility across groups is the block barrier's job.
package warpq
