package tag

import "context"

type StubRepository struct {
	// ExistingIds maps householdId to the tag ids considered present.
	ExistingIds map[int][]int
}

func NewStubRepository() *StubRepository {
	return &StubRepository{ExistingIds: make(map[int][]int)}
}

func (s *StubRepository) Exists(ctx context.Context, householdId int, tagId int) (bool, error) {
	for _, id := range s.ExistingIds[householdId] {
		if id == tagId {
			return true, nil
		}
	}
	return false, nil
}
