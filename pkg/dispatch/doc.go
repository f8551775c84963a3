// Package dispatch applies parsed voice commands to a timer table.
//
// The Dispatcher never fails: every command produces a Result whose Status
// tells the caller what happened (ok, not_found, ignored or full) along with
// a short acknowledgement suitable for a display line or a link response.
// NONE never mutates the table.
//
// Two behaviors are policy rather than protocol and can be switched off:
// creating a timer when ADD names an unknown one, and treating SET with a
// zero duration as an already expired timer.
package dispatch
