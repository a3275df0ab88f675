// Package eventstream decodes a tracelog capture into records.
//
// A Reader walks the capture header by header. It stops cleanly when fewer
// than a full header's worth of bytes remain, and stops with a *FaultError
// when the framing itself is broken:
//
//   - a header whose magic is not tracelog.Magic,
//   - a payload shorter than the length its header announces,
//   - a cpu id outside the configured lanes,
//   - a timestamp that overflows 64 bits once scaled to nanoseconds.
//
// Faults are sticky. Records decoded before a fault stay valid, which lets
// callers keep everything up to the corruption point.
package eventstream
