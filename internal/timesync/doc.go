// Package timesync converts log timestamps to wall-clock time.
//
// The firmware clock starts at boot and the capture carries no wall-clock
// reference. A Converter is anchored either at an explicit base time (the
// wall-clock time of log time zero) or by pinning a known log timestamp to a
// known wall-clock instant, typically the last record to the capture file's
// modification time.
package timesync
