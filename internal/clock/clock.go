package clock

import "time"

// Clock abstracts time.Now so rate-limit windows can be driven by a fake
// clock in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Fixed is a settable clock for tests.
type Fixed struct {
	Current time.Time
}

func (f *Fixed) Now() time.Time { return f.Current }

func (f *Fixed) Advance(d time.Duration) { f.Current = f.Current.Add(d) }
