package clock

import "time"

// Clock abstracts time so month bucketing and event timestamps can be tested.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
