// Package notify provides the unbounded readiness channel shared by every
// producer of a multiplexer.
//
// Producers push keys; the single consumer drains them without suspending and
// waits on a wake-up channel when nothing is buffered. The queue counts its
// producer handles and reports closed only once every handle is released.
package notify
