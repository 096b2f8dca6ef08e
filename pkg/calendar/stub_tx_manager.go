package calendar

import "context"

// StubTxManager hands the given repositories to the callback without any real
// transaction, so service tests exercise the same code path as production.
type StubTxManager struct {
	Repos    Repositories
	FailWith error
}

func NewStubTxManager(events EventRepository, exceptions ExceptionRepository) *StubTxManager {
	return &StubTxManager{Repos: Repositories{Events: events, Exceptions: exceptions}}
}

func (m *StubTxManager) WithTransaction(ctx context.Context, fn func(repos Repositories) error) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	return fn(m.Repos)
}
