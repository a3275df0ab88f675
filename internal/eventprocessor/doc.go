// Package eventprocessor classifies merged records and routes them to a Sink.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│   merge.Merger (chronological records)  │
//	└─────────────────┬───────────────────────┘
//	                  │
//	                  ▼
//	┌─────────────────────────────────────────┐
//	│   Classify                              │  ← type/subtype → events.Event
//	│   - Checks payload sizes                │
//	│   - Unpacks fixed layouts               │
//	└─────────┬───────────────────────────────┘
//	          │
//	          ├──→ unpack fault ───→ dropped (counted, DEBUG log)
//	          ├──→ unknown tag ────→ ignored (counted, DEBUG log)
//	          │
//	          ▼
//	┌─────────────────────────────────────────┐
//	│   Processor                             │
//	│   - Names the thread running on the CPU │
//	│   - Optional filter expression          │
//	│   - Exactly one Sink call per event     │
//	└─────────┬───────────────────────────────┘
//	          │
//	          └──→ Sink (output.Formatter and friends)
//
// Sink errors are the only errors a Processor returns. They are wrapped in
// *SinkError and end the run.
package eventprocessor
