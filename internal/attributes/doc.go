// Package attributes evaluates user expressions against classified events
// and derives trace identity for OTLP export.
//
// Expressions use the expr language and see one event at a time:
//
//	ts       log time in nanoseconds
//	cpu      lane the event was recorded on
//	type     major type name (string, thread, binary, audio)
//	subtype  subtype code
//	name     event name, e.g. sched_switch
//	thread   thread running on the cpu, "" before its first context switch
//	fields   event fields keyed by name, e.g. fields._next_comm
//
// Two evaluators:
//   - Filter: a boolean expression selecting the events to keep
//   - Evaluator: custom attribute expressions appended to every event
//
// Trace and span ids given as hex are used verbatim; any other value is
// hashed with murmur3 so the same input always lands in the same trace.
package attributes
