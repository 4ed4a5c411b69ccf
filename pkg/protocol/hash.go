package protocol

import "github.com/cespare/xxhash/v2"

// RouteKey is the fixed-width routing hint derived from a topic name.
type RouteKey uint64

// Hash derives the route key of a topic. It is deterministic and fast but
// not collision resistant; a collision only widens fan-out on the remote
// side because the full topic is always carried with the key.
func Hash(topic string) RouteKey {
	return RouteKey(xxhash.Sum64String(topic))
}
