package output

import (
	"errors"
)

// Tee fans entries out to several writers.
type Tee []Writer

// WriteEntry stops at the first failing writer.
func (t Tee) WriteEntry(e *Entry) error {
	for _, w := range t {
		if err := w.WriteEntry(e); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every writer. When one fails, the writers after it are
// aborted instead.
func (t Tee) Close() error {
	for i, w := range t {
		if err := w.Close(); err != nil {
			for _, rest := range t[i+1:] {
				_ = rest.Abort()
			}
			return err
		}
	}
	return nil
}

// Abort aborts every writer.
func (t Tee) Abort() error {
	var errs []error
	for _, w := range t {
		errs = append(errs, w.Abort())
	}
	return errors.Join(errs...)
}
