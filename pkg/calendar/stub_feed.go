package calendar

import (
	"context"
	"time"
)

type StubFeed struct {
	Occurrences []Occurrence
	FailWith    error
}

func (s *StubFeed) ListBetween(ctx context.Context, from, to time.Time) ([]Occurrence, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	return s.Occurrences, nil
}
