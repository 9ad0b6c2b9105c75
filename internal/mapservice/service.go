// Package mapservice is the single entry point for map, object, box and
// containment operations. Every transport goes through it.
package mapservice

import (
	"time"

	"github.com/google/uuid"

	"github.com/starford/sensemap/internal/apperr"
	"github.com/starford/sensemap/internal/checksum"
	"github.com/starford/sensemap/internal/metrics"
	"github.com/starford/sensemap/internal/models"
	"github.com/starford/sensemap/internal/store"
)

// Change event kinds handed to the Publisher.
const (
	EventMapCreated         = "map.created"
	EventMapUpdated         = "map.updated"
	EventMapDeleted         = "map.deleted"
	EventObjectCreated      = "object.created"
	EventObjectUpdated      = "object.updated"
	EventObjectDeleted      = "object.deleted"
	EventBoxCreated         = "box.created"
	EventBoxUpdated         = "box.updated"
	EventBoxDeleted         = "box.deleted"
	EventContainmentAdded   = "containment.added"
	EventContainmentRemoved = "containment.removed"
)

// Publisher receives a notification after every successful write.
type Publisher interface {
	PublishChange(kind string, mapID models.MapID, id string)
}

// Service coordinates validation, persistence and change notification.
type Service struct {
	repo  store.Repository
	pub   Publisher
	now   func() time.Time
	newID func() string
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.now = fn }
}

// WithIDGenerator replaces the id source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// NewService creates a map service over repo. pub may be nil.
func NewService(repo store.Repository, pub Publisher, opts ...Option) *Service {
	s := &Service{
		repo:  repo,
		pub:   pub,
		now:   func() time.Time { return time.Now().UTC().Round(0) },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) publish(kind string, mapID models.MapID, id string) {
	if s.pub != nil {
		s.pub.PublishChange(kind, mapID, id)
	}
}

// track records the outcome of op. Call it deferred with a pointer to the
// named error result.
func track(op string, start time.Time, err *error) {
	metrics.Observe(op, start, *err)
}

// checkETag fails with apperr.ErrConflict when ifMatch is set and differs
// from the checksum of the current record.
func checkETag(current any, ifMatch string) error {
	if ifMatch == "" {
		return nil
	}
	sum, err := checksum.JSON(current)
	if err != nil {
		return err
	}
	if sum != ifMatch {
		return apperr.ErrConflict
	}
	return nil
}
