package mapservice

import (
	"context"
	"strings"
	"time"

	"github.com/starford/sensemap/internal/apperr"
	"github.com/starford/sensemap/internal/metrics"
	"github.com/starford/sensemap/internal/models"
	"github.com/starford/sensemap/internal/scope"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// AddToContainCards puts object into box, moving it out of any other box.
// Adding an object to the box it is already in changes nothing and
// publishes no event.
func (s *Service) AddToContainCards(ctx context.Context, object models.ObjectID, box models.BoxID) (_ models.Containment, err error) {
	defer track("add_to_contain_cards", time.Now(), &err)

	res := models.Containment{ContainsObject: object, BelongsToBox: box}
	mapID, changed, err := s.repo.AddToBox(ctx, object, box, s.now())
	if err != nil {
		return res, err
	}
	if changed {
		s.publish(EventContainmentAdded, mapID, string(object))
	}
	return res, nil
}

// RemoveFromContainCards takes object out of box. When object is not in box
// nothing changes, and the requested ids are still echoed back.
func (s *Service) RemoveFromContainCards(ctx context.Context, object models.ObjectID, box models.BoxID) (_ models.Containment, err error) {
	defer track("remove_from_contain_cards", time.Now(), &err)

	res := models.Containment{ContainsObject: object, BelongsToBox: box}
	mapID, changed, err := s.repo.RemoveFromBox(ctx, object, box, s.now())
	if err != nil {
		return res, err
	}
	if changed {
		s.publish(EventContainmentRemoved, mapID, string(object))
	}
	return res, nil
}

// ResolveScope returns the objects of mapID visible in sc. An empty scope
// type means the whole map. Missing maps and boxes resolve to nothing.
func (s *Service) ResolveScope(ctx context.Context, mapID models.MapID, sc models.Scope) (_ []models.MapObject, err error) {
	defer track("resolve_scope", time.Now(), &err)

	if sc.Type == "" {
		sc.Type = models.ScopeWholeMap
	}
	if err := validateScope(sc); err != nil {
		return nil, err
	}
	snap, err := s.repo.MapSnapshot(ctx, mapID)
	if err != nil {
		return nil, err
	}
	out := scope.Resolve(snap, sc)
	metrics.ObserveScope(len(out))
	return out, nil
}

// SearchObjects finds live objects of mapID matching query. limit is
// clamped to a sane range.
func (s *Service) SearchObjects(ctx context.Context, mapID models.MapID, query string, limit int) (_ []models.MapObject, err error) {
	defer track("search_objects", time.Now(), &err)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Invalidf("q: cannot be blank")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	return s.repo.SearchObjects(ctx, mapID, query, limit)
}
