// Package converter runs one conversion end to end:
//
//	capture file --> eventstream.Reader --> merge.Lanes
//	                                            |
//	                                       merge.Merger
//	                                            |
//	                                 eventprocessor.Processor
//	                                            |
//	                                    output.Formatter --> output.Writer
//
// The capture is decoded completely and closed before the first event is
// dispatched. A structural fault stops decoding but not the run: every record
// before it is still merged and written, and the fault is returned once the
// output has been committed.
package converter
