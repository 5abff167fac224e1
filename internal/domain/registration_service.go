package domain

import "github.com/plaenen/usercqrs/pkg/eventsourcing"

// registrationCandidate bundles the two guarded fields of a
// registration so the per-field specifications can be combined with
// And into a single Specification[registrationCandidate].
type registrationCandidate struct {
	ID   UserID
	Name UserName
}

type uniqueIDGuard struct{ spec UniqueUserIDSpecification }

func (g uniqueIDGuard) IsSatisfiedBy(c registrationCandidate) bool {
	return g.spec.IsSatisfiedBy(c.ID)
}

func (g uniqueIDGuard) ReasonForDissatisfaction(c registrationCandidate) string {
	return g.spec.ReasonForDissatisfaction(c.ID)
}

type uniqueNameGuard struct{ spec UniqueUserNameSpecification }

func (g uniqueNameGuard) IsSatisfiedBy(c registrationCandidate) bool {
	return g.spec.IsSatisfiedBy(c.Name)
}

func (g uniqueNameGuard) ReasonForDissatisfaction(c registrationCandidate) string {
	return g.spec.ReasonForDissatisfaction(c.Name)
}

// RegistrationService runs the specifications that guard user creation
// before constructing the aggregate.
type RegistrationService struct {
	Repository UserLookup
}

// NewRegistrationService constructs a RegistrationService backed by repo.
func NewRegistrationService(repo UserLookup) *RegistrationService {
	return &RegistrationService{Repository: repo}
}

// RegisterUser evaluates uniqueness of id, then of name (And
// short-circuits on the first dissatisfaction), returning the failing
// reason as a validation error; on success it constructs a new User.
func (s *RegistrationService) RegisterUser(id UserID, name UserName, metadata eventsourcing.EventMetadata) (*User, error) {
	candidate := registrationCandidate{ID: id, Name: name}

	guard := And[registrationCandidate](
		uniqueIDGuard{UniqueUserIDSpecification{Repository: s.Repository}},
		uniqueNameGuard{UniqueUserNameSpecification{Repository: s.Repository}},
	)

	if !guard.IsSatisfiedBy(candidate) {
		return nil, eventsourcing.NewAppError("validation", guard.ReasonForDissatisfaction(candidate)).
			WithSolution("choose a different user id or name")
	}

	return NewUser(id, name, metadata), nil
}
