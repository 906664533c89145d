// Package ledger implements the readiness ledger that decides which key the
// multiplexer serves next.
//
// Notifications are coalesced into a per-key pending count. Keys are kept in
// the order they first became ready, and a key that still has pending
// notifications after being served goes back to the tail, so ready keys are
// served round-robin weighted by their counts.
//
// Key operations:
// - Record: count one notification for a key
// - TakeReady: pick the oldest ready key and consume one of its notifications
// - Len/Pending: inspect the ledger
//
// A Ledger is not safe for concurrent use; it is owned by a single consumer.
package ledger
