package procmeta

// ThreadMetadata is what the capture told us about one thread.
type ThreadMetadata struct {
	TID  uint32
	Comm string // Last name seen for the thread
	Prio uint32 // Last priority seen for the thread
	// Switches counts the times the thread was switched in.
	Switches int
	// Preemptions counts the times the thread lost a CPU while runnable.
	Preemptions int
}
