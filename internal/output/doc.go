// Package output renders classified events.
//
// Formatter is the eventprocessor.Sink. It is a pure formatting layer that:
//   - Renders the firmware's one-line message for each event
//   - Appends the custom attribute fields
//   - Hands one Entry per event to a Writer
//
// Writers persist entries:
//   - ChromeWriter: Chrome Trace Event Format JSON (Perfetto, chrome://tracing)
//   - TextWriter: the firmware's "tracelog list" rendering
//   - SQLiteWriter: a queryable archive with the raw payloads
//   - OTELWriter: one OpenTelemetry span per event
//   - Tee: several writers at once
//
// File writers never leave a partial file behind: they write to a temporary
// file next to the destination, renamed into place by Close. Abort removes
// it.
package output
