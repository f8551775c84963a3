// Package wire implements the voice timer wire formats.
//
// # Command Record
//
// A command travels over the radio link as a fixed 24-byte record laid out
// like the device firmware's ParsedCommand struct:
//
//	offset  size  field
//	0       1     cmd (VoiceCommand)
//	1       16    name, zero-terminated
//	17      3     padding
//	20      4     duration in seconds, little-endian
//
// Decoding is fail-soft: only a length mismatch is an error. Unknown command
// kinds and unprintable name bytes are neutralized.
//
// # Envelopes
//
// Requests, responses and notifications are CBOR maps with integer keys.
// MessageID 0 is reserved for notifications, which the device pushes when a
// timer expires or finishes ringing.
package wire
