// Package core contains plumbing around a multiplexer: feeding values into
// senders, collecting items from a sequence, context-carried options, and
// the Pump that drives a sequence into a plain Go channel. It does not
// decide fairness; that stays in package mux.
package core
