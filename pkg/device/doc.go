// Package device runs the voice timer: parser, timer table and dispatcher
// behind one critical section.
//
// Every input (a line of text from the demo console or the link, or a
// decoded command record) and every clock tick runs to completion under the
// same mutex, so a tick never observes a half-applied command and two
// commands never interleave. Handlers and protocol logging run after the
// lock is released.
package device
