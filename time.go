package idtoken

import (
	"time"
)

// Clock supplies the current time to a Processor.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock
func (SystemClock) Now() time.Time {
	return time.Now()
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time {
	return c.t
}

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock {
	return fixedClock{t: t}
}

// unixTime converts a NumericDate claim (seconds since epoch) to UTC time.
func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
