package domain

import "fmt"

// UserLookup is the narrow repository view the specifications need.
// Implemented by internal/store.Repository.
type UserLookup interface {
	Exists(userID UserID) (bool, error)
	FindByName(name UserName) (*User, error)
}

// UniqueUserIDSpecification is unsatisfied iff the repository already
// holds an aggregate with this id.
type UniqueUserIDSpecification struct {
	Repository UserLookup
}

func (s UniqueUserIDSpecification) IsSatisfiedBy(id UserID) bool {
	exists, err := s.Repository.Exists(id)
	if err != nil {
		return false
	}
	return !exists
}

func (s UniqueUserIDSpecification) ReasonForDissatisfaction(id UserID) string {
	return fmt.Sprintf("user id %s is already taken", id)
}

// UniqueUserNameSpecification is unsatisfied iff the repository already
// holds an aggregate with this name, unless its id equals Excluded.
type UniqueUserNameSpecification struct {
	Repository UserLookup
	Excluded   *UserID
}

func (s UniqueUserNameSpecification) IsSatisfiedBy(name UserName) bool {
	existing, err := s.Repository.FindByName(name)
	if err != nil {
		return false
	}
	if existing == nil {
		return true
	}
	if s.Excluded != nil && existing.UserID().Equals(*s.Excluded) {
		return true
	}
	return false
}

func (s UniqueUserNameSpecification) ReasonForDissatisfaction(name UserName) string {
	return fmt.Sprintf("name %q is already taken", name.Value())
}

// ValidUserNameSpecification is a reserved-word / policy hook. It is
// trivially satisfied in this implementation.
type ValidUserNameSpecification struct{}

func (ValidUserNameSpecification) IsSatisfiedBy(name UserName) bool {
	return true
}

func (ValidUserNameSpecification) ReasonForDissatisfaction(name UserName) string {
	return ""
}
