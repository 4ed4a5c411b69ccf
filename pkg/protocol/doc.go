// Package protocol implements the overlay wire format.
//
// Every frame is one transport-level binary message. The first byte carries
// the package kind in its two high bits and a boolean flag in bit 5:
//
//	┌────┬──────┬──────────┬──────────────────────────────────────────┐
//	│ 7-6│  5   │   4-0    │ rest                                     │
//	├────┼──────┼──────────┼──────────────────────────────────────────┤
//	│ 00 │  0   │ reserved │ route key (8, BE) │ topic │ 0x00 │ payload │  Message
//	│ 01 │is_sub│ reserved │ route key (8, BE) │ topic                  │  Subscribe
//	│ 10 │router│ reserved │ (none)                                    │  Registration
//	└────┴──────┴──────────┴──────────────────────────────────────────┘
//
// The route key is a routing hint derived from the topic with Hash. The
// topic string always travels next to it and is the authoritative name.
package protocol
