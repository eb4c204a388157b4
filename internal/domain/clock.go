package domain

import "time"

// Clock provides the current instant. Business logic always receives a Clock
// instead of calling time.Now directly so tests can pin time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// NewSystemClock returns a Clock backed by the system wall clock (UTC)
func NewSystemClock() Clock {
	return systemClock{}
}
