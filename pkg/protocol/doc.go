// Package protocol implements the binary wire format patchwork uses to
// stream mutation batches to live clients.
//
// # Wire Format
//
// All messages are framed with a 4-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// Payloads larger than MaxPayloadSize are split with Chunk into
// consecutive frames of the same type; every frame but the last lacks
// FlagFinal. A Reassembler joins them back together.
//
// # Frame Types
//
//   - FrameHello (0x00): server greeting with client ID and sequence
//   - FrameMutations (0x01): server to client mutation batch
//   - FrameSnapshot (0x02): server to client mutation batch that rebuilds
//     the whole tree from an empty root
//   - FrameControl (0x03): ping, pong, resync and close
//   - FrameError (0x05): error message
//
// # Encoding
//
//   - Varint: compact encoding for small integers (protobuf-style)
//   - Length-prefixed: strings prefixed with a varint length
//   - Big-endian: fixed-width integers (uint16, uint32, uint64)
//
// # Mutations
//
// A mutation batch mirrors the capability calls the reconciliation
// engine made during one patch, in call order. Nodes are referenced by
// uint32 wire IDs assigned by the sender; 0 means "none".
//
//	[Seq: varint][Count: varint]
//	  [Op: 1 byte][ID: varint][op-specific fields]...
//
// Example SetText mutation:
//
//	[Op: 0x06][ID: varint][Value: len-prefixed]
package protocol
