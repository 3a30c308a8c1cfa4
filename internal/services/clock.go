package services

import "time"

// Clock supplies the current time to business logic. Production code uses
// the system clock; tests freeze it to assert exact durations and streaks.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func NewSystemClock() Clock { return systemClock{} }

// fixedClock is handy for tests in other packages too.
type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func NewFixedClock(t time.Time) Clock { return fixedClock{t: t} }
