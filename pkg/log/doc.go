// Package log provides structured protocol logging for the voice timer.
//
// This package defines the Logger interface and Event types for capturing
// what the device sees and does: link packets, decoded requests and
// responses, parsed commands with their dispatch result, and timer state
// changes. It is separate from operational logging. Protocol capture is a
// machine-readable trace for debugging recognition and dispatch problems.
//
// # Basic Usage
//
//	// Console during development
//	logger := log.NewZerologAdapter(zl)
//
//	// Binary capture
//	fl, _ := log.NewFileLogger("/var/log/voicetimer/device.vtlog")
//
//	// Both
//	logger = log.NewMultiLogger(log.NewZerologAdapter(zl), fl)
//
// # Event Types
//
// Events are captured at three layers:
//   - Link: raw packets (PacketEvent)
//   - Wire: decoded envelopes (MessageEvent)
//   - Device: commands and timer changes (CommandEvent, TimerEvent)
//
// Errors at any layer use ErrorEventData.
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with the .vtlog extension.
// The voicetimer-log tool views, filters and exports them.
package log
