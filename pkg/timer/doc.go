// Package timer implements the table of named countdown timers.
//
// # Lifecycle
//
// Each timer moves through Idle -> Running -> (Expired | Cancelled) -> Idle.
// Set starts a timer; a zero duration starts it already Expired. Remove and
// Clear cancel timers. Tick counts Running timers down and expires them at
// zero.
//
// # Ringing
//
// An Expired timer stays in the table and "rings" for the table's ring
// window so the device can keep alerting. Tick reaps it once the window has
// passed, returning the slot to Idle.
//
// # Capacity
//
// The table holds a fixed number of timers (4 by default). Creating a timer
// in a full table fails with ErrCapacity; resetting an existing one does
// not.
//
// # Concurrency
//
// A Table is not safe for concurrent use. Its owner serializes every call
// (see package device).
package timer
