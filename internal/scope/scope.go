// Package scope projects a map snapshot onto the part of the map being viewed.
package scope

import "github.com/starford/sensemap/internal/models"

// Resolve returns the objects visible in s, in display order.
//
// For the whole map that is every live object without an owner, in snapshot
// order. For a box it is the box's contains list restricted to objects that
// are still present; a missing box yields an empty result. Resolve never
// fails and never modifies snap.
func Resolve(snap *models.Snapshot, s models.Scope) []models.MapObject {
	out := []models.MapObject{}
	if snap == nil {
		return out
	}
	switch s.Type {
	case models.ScopeBox:
		box, ok := snap.Boxes[s.Box]
		if !ok || box.DeletedAt != nil {
			return out
		}
		byID := make(map[models.ObjectID]models.MapObject, len(snap.Objects))
		for _, o := range snap.Objects {
			if o.DeletedAt == nil {
				byID[o.ID] = o
			}
		}
		for _, id := range box.Contains {
			if o, ok := byID[id]; ok {
				out = append(out, o)
			}
		}
	default:
		for _, o := range snap.Objects {
			if o.DeletedAt == nil && o.BelongsTo == nil {
				out = append(out, o)
			}
		}
	}
	return out
}

// Action is a transition on the viewing scope.
type Action interface {
	apply(models.Scope) models.Scope
}

// OpenBox enters a box.
type OpenBox struct {
	Box models.BoxID
}

func (a OpenBox) apply(models.Scope) models.Scope {
	if a.Box == "" {
		return models.WholeMap()
	}
	return models.InBox(a.Box)
}

// CloseBox returns to the whole map.
type CloseBox struct{}

func (CloseBox) apply(models.Scope) models.Scope { return models.WholeMap() }

// Reduce returns the scope that follows cur after a. A nil action leaves
// the scope unchanged.
func Reduce(cur models.Scope, a Action) models.Scope {
	if a == nil {
		return cur
	}
	return a.apply(cur)
}
