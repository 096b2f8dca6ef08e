package person

import "context"

type StubRepository struct {
	// ExistingIds maps householdId to the person ids considered present.
	ExistingIds map[int][]int
}

func NewStubRepository() *StubRepository {
	return &StubRepository{ExistingIds: make(map[int][]int)}
}

func (s *StubRepository) AllExist(ctx context.Context, householdId int, ids []int) (bool, error) {
	known := make(map[int]bool, len(s.ExistingIds[householdId]))
	for _, id := range s.ExistingIds[householdId] {
		known[id] = true
	}
	for _, id := range ids {
		if !known[id] {
			return false, nil
		}
	}
	return true, nil
}
