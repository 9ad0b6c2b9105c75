package mapservice

import (
	"context"
	"time"

	"github.com/starford/sensemap/internal/models"
	"github.com/starford/sensemap/internal/tags"
)

// MapFields are the caller-supplied fields of a new map.
type MapFields struct {
	Type        models.MapType `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Tags        []string       `json:"tags"`
	Image       string         `json:"image"`
}

// CreateMap creates a map. Type defaults to PUBLIC.
func (s *Service) CreateMap(ctx context.Context, f MapFields) (_ *models.Map, err error) {
	defer track("create_map", time.Now(), &err)

	now := s.now()
	m := models.Map{
		ID:          models.MapID(s.newID()),
		Type:        f.Type,
		Name:        f.Name,
		Description: f.Description,
		Tags:        tags.Normalize(f.Tags),
		Image:       f.Image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if m.Type == "" {
		m.Type = models.MapTypePublic
	}
	if err := validateMap(&m); err != nil {
		return nil, err
	}
	out, err := s.repo.CreateMap(ctx, m)
	if err != nil {
		return nil, err
	}
	s.publish(EventMapCreated, out.ID, string(out.ID))
	return out, nil
}

// GetMap returns the live map id, or nil when it does not exist.
func (s *Service) GetMap(ctx context.Context, id models.MapID) (_ *models.Map, err error) {
	defer track("get_map", time.Now(), &err)
	return s.repo.GetMap(ctx, id)
}

// ListMaps returns every live map, newest first.
func (s *Service) ListMaps(ctx context.Context) (_ []models.Map, err error) {
	defer track("list_maps", time.Now(), &err)
	return s.repo.ListMaps(ctx)
}

// UpdateMap applies p to the live map id.
func (s *Service) UpdateMap(ctx context.Context, id models.MapID, p models.MapPatch, ifMatch string) (_ *models.Map, err error) {
	defer track("update_map", time.Now(), &err)

	out, err := s.repo.UpdateMap(ctx, id, s.now(), func(m *models.Map) error {
		if err := checkETag(m, ifMatch); err != nil {
			return err
		}
		p.Apply(m)
		m.Tags = tags.Normalize(m.Tags)
		return validateMap(m)
	})
	if err != nil {
		return nil, err
	}
	s.publish(EventMapUpdated, out.ID, string(out.ID))
	return out, nil
}

// DeleteMap soft-deletes the map and returns it as it was before deletion.
func (s *Service) DeleteMap(ctx context.Context, id models.MapID) (_ *models.Map, err error) {
	defer track("delete_map", time.Now(), &err)

	out, err := s.repo.DeleteMap(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	s.publish(EventMapDeleted, out.ID, string(out.ID))
	return out, nil
}
