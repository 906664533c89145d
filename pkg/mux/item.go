package mux

import "time"

// Item is one element of the merged sequence.
type Item[K comparable, V any] struct {
	key    K
	value  V
	sentAt time.Time
}

func newItem[K comparable, V any](key K, env envelope[V]) Item[K, V] {
	return Item[K, V]{
		key:    key,
		value:  env.value,
		sentAt: env.sentAt,
	}
}

// Key returns the key the value was sent on.
func (i Item[K, V]) Key() K {
	return i.key
}

// Value returns the sent value.
func (i Item[K, V]) Value() V {
	return i.value
}

// SentAt is the time the value entered its data channel (UTC).
func (i Item[K, V]) SentAt() time.Time {
	return i.sentAt
}

// Unpack returns key and value.
func (i Item[K, V]) Unpack() (K, V) {
	return i.key, i.value
}

// envelope is what travels through a data channel.
type envelope[V any] struct {
	value  V
	sentAt time.Time
}
