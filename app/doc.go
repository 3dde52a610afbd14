// Package app drives a quad.State from a stream of window events.
//
// The window layer owns the event loop; it translates its native events
// into Event values and sends them on a channel. Run consumes that channel:
// it creates the State once, asks the window for a first redraw, renders
// one frame per EventRedraw and requests the next, and releases everything
// when the window closes.
//
// Bridge connects a gpucontext.EventSource to such a channel, and
// HeadlessWindow is a Window without native handles for the software
// backend and for tests.
package app
