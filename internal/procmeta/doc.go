// Package procmeta tracks the threads a capture reveals.
//
// The firmware only names threads in context switch and preempt records.
// Manager replays those records in merge order and keeps, per CPU, the thread
// currently running, so that events in between can be attributed to it.
//
// Manager provides command-query separation:
//
// Queries (read-only):
//   - Running(cpu) - Thread on a CPU
//   - Threads() - Every thread seen, by TID
//
// Commands (mutations):
//   - Observe(event) - Replay a switch or preempt
//
// Thread-safe with RWMutex for concurrent access.
package procmeta
