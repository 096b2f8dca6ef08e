package calendar

import (
	"context"
	"time"
)

// Feed is a read-only external calendar whose events arrive already expanded.
// A feed that is not configured yields an empty list; transport failures may
// surface as errors, which readers degrade to an empty contribution.
type Feed interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]Occurrence, error)
}

// NoFeed is the Feed used when no external calendar is configured.
type NoFeed struct{}

func (NoFeed) ListBetween(ctx context.Context, from, to time.Time) ([]Occurrence, error) {
	return nil, nil
}
