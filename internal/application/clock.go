package application

import "time"

// Clock stamps sessions, exports and failure records.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC so stored timestamps and export
// filenames do not depend on the host zone.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
