// Package ingress holds the bounded window of records pushed by the data
// producer.
//
// The main components are:
//
//   - [Store]: Interface defining push, read and subscription operations
//   - [Buffer]: In-memory FIFO implementation of Store with pub/sub
//   - [Record]: A received payload and the time it arrived
//
// Pushes are serialized; reads return copies. Subscribers receive new
// records via channels with non-blocking sends, so slow subscribers miss
// records rather than block a push.
package ingress
