// Package mux merges a dynamically growing set of keyed, bounded data
// channels into one fair sequence of (key, value) items.
//
// Producers register a key and receive a Sender. Every successful Send
// pushes the value into the key's bounded data channel and then a readiness
// notification into a shared unbounded queue. The consumer pulls with Next:
// buffered notifications are drained into a readiness ledger, the oldest
// ready key is served once, and a key with more pending values is moved to
// the back. No pull ever scans all registered keys.
//
// Key operations:
// - New/DefaultConfig: create a multiplexer
// - Register: add a key with a fixed capacity and get its Sender
// - Sender.Send/TrySend/Clone/Close: produce values for one key
// - Next/TryNext/All: consume the merged sequence
// - Tap: observe every emitted item from another goroutine
// - Close: drop the consumer side, failing all sends
//
// Any number of goroutines may send; exactly one goroutine consumes.
// Several Senders may target the same key: every notification the consumer
// observes is published after its value is in the data channel, so a read
// for an observed notification never waits.
package mux
