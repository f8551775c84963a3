// Package command defines the voice timer command protocol.
//
// A command is a small fixed-size value: a VoiceCommand kind, a bounded
// timer Name and a duration in seconds. The same record is produced by the
// text Parser (demo console, link text requests) and by decoding a raw
// command packet (see package wire).
//
// # Fail-Soft Parsing
//
// Recognized speech is noisy. The Parser never returns an error: any input
// it cannot map to a complete command yields None(), which the dispatcher
// treats as a no-op. A SET, ADD or MINUS without a usable duration is also
// None().
//
// # Bounded Names
//
// Names occupy 16 bytes: up to 15 printable ASCII characters and a zero
// terminator. Longer input is truncated silently. The empty name addresses
// the default timer.
//
// # Vocabulary
//
// Keywords are matched case-insensitively:
//
//	set               SET
//	cancel            CANCEL
//	add               ADD
//	minus, subtract   MINUS
//	stop              STOP
//
// Durations may be digits or English number words with an optional unit
// (seconds, minutes, hours), for example "set pasta for ten minutes" or
// "add tea one minute thirty".
package command
