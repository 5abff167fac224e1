package store

import (
	"context"
	"strconv"

	"github.com/plaenen/usercqrs/internal/domain"
	"github.com/plaenen/usercqrs/pkg/eventsourcing"
	"github.com/plaenen/usercqrs/pkg/observability"
)

// Repository rebuilds User aggregates from an EventStore and answers
// the narrow lookups domain.RegistrationService needs to enforce
// uniqueness. There is no secondary name index, so FindByName replays
// the full event log; acceptable at this scale, revisit if the store
// ever backs a real database.
type Repository struct {
	*eventsourcing.BaseRepository[*domain.User]
	eventStore *EventStore
	metrics    *observability.Metrics
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithRepositoryMetrics wires the metrics registry Save and Load
// record repository operation counts to.
func WithRepositoryMetrics(metrics *observability.Metrics) RepositoryOption {
	return func(r *Repository) { r.metrics = metrics }
}

// NewRepository constructs a Repository backed by store.
func NewRepository(store *EventStore, opts ...RepositoryOption) *Repository {
	r := &Repository{
		BaseRepository: eventsourcing.NewRepository[*domain.User](store, domain.AggregateTypeUser, domain.NewEmptyUser),
		eventStore:     store,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Save persists the aggregate's uncommitted events, recording a
// repository.save metric when metrics are wired.
func (r *Repository) Save(aggregate *domain.User) error {
	err := r.BaseRepository.Save(aggregate)
	if r.metrics != nil {
		r.metrics.RecordRepositoryOperation(context.Background(), "save", domain.AggregateTypeUser)
	}
	return err
}

// Load rebuilds an aggregate from its event stream, recording a
// repository.load metric when metrics are wired.
func (r *Repository) Load(id string) (*domain.User, error) {
	user, err := r.BaseRepository.Load(id)
	if r.metrics != nil {
		r.metrics.RecordRepositoryOperation(context.Background(), "load", domain.AggregateTypeUser)
	}
	return user, err
}

// LoadByUserID loads a User by its typed domain identifier.
func (r *Repository) LoadByUserID(userID domain.UserID) (*domain.User, error) {
	return r.Load(strconv.FormatUint(uint64(userID.Value()), 10))
}

// Exists reports whether a User with this id has any recorded history.
func (r *Repository) Exists(userID domain.UserID) (bool, error) {
	return r.BaseRepository.Exists(strconv.FormatUint(uint64(userID.Value()), 10))
}

// FindByName scans every aggregate for one whose current name is an
// exact, case-sensitive match, returning (nil, nil) if none does.
func (r *Repository) FindByName(name domain.UserName) (*domain.User, error) {
	events, err := r.eventStore.LoadAllEvents()
	if err != nil {
		return nil, err
	}

	byID := make(map[string][]eventsourcing.Event)
	var order []string
	for _, evt := range events {
		if _, ok := byID[evt.AggregateID]; !ok {
			order = append(order, evt.AggregateID)
		}
		byID[evt.AggregateID] = append(byID[evt.AggregateID], evt)
	}

	for _, id := range order {
		user := domain.NewEmptyUser(id)
		for _, evt := range byID[id] {
			if err := user.ApplyEvent(evt); err != nil {
				return nil, err
			}
		}
		if user.Name().Value() == name.Value() {
			return user, nil
		}
	}
	return nil, nil
}

var _ domain.UserLookup = (*Repository)(nil)
