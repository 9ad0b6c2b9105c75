package mapservice

import (
	"context"
	"time"

	"github.com/starford/sensemap/internal/models"
	"github.com/starford/sensemap/internal/tags"
)

// BoxFields are the optional fields of a new box.
type BoxFields struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// CreateBox creates an empty box on map mapID. An empty t defaults to INFO.
func (s *Service) CreateBox(ctx context.Context, mapID models.MapID, t models.BoxType, f BoxFields) (_ *models.Box, err error) {
	defer track("create_box", time.Now(), &err)

	now := s.now()
	b := models.Box{
		ID:        models.BoxID(s.newID()),
		MapID:     mapID,
		BoxType:   t,
		Title:     f.Title,
		Summary:   f.Summary,
		Tags:      tags.Normalize(f.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if b.BoxType == "" {
		b.BoxType = models.BoxTypeInfo
	}
	if err := validateBox(&b); err != nil {
		return nil, err
	}
	out, err := s.repo.CreateBox(ctx, b)
	if err != nil {
		return nil, err
	}
	s.publish(EventBoxCreated, out.MapID, string(out.ID))
	return out, nil
}

// CreatePlacedBox creates a box on map mapID together with the BOX object
// that shows it at the top level. at supplies the placement's geometry; its
// type and data are ignored. Nothing is written when either record is
// invalid or either insert fails.
func (s *Service) CreatePlacedBox(ctx context.Context, mapID models.MapID, t models.BoxType, f BoxFields, at ObjectFields) (_ *models.Box, _ *models.MapObject, err error) {
	defer track("create_placed_box", time.Now(), &err)

	now := s.now()
	b := models.Box{
		ID:        models.BoxID(s.newID()),
		MapID:     mapID,
		BoxType:   t,
		Title:     f.Title,
		Summary:   f.Summary,
		Tags:      tags.Normalize(f.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if b.BoxType == "" {
		b.BoxType = models.BoxTypeInfo
	}
	if err := validateBox(&b); err != nil {
		return nil, nil, err
	}
	o := models.MapObject{
		ID:         models.ObjectID(s.newID()),
		MapID:      mapID,
		ObjectType: models.ObjectTypeBox,
		Data:       &b.ID,
		X:          at.X,
		Y:          at.Y,
		Width:      at.Width,
		Height:     at.Height,
		Tags:       []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := validateObject(&o); err != nil {
		return nil, nil, err
	}
	box, obj, err := s.repo.CreatePlacedBox(ctx, b, o)
	if err != nil {
		return nil, nil, err
	}
	s.publish(EventBoxCreated, box.MapID, string(box.ID))
	s.publish(EventObjectCreated, obj.MapID, string(obj.ID))
	return box, obj, nil
}

// GetBox returns the live box id with its contains list, or nil.
func (s *Service) GetBox(ctx context.Context, id models.BoxID) (_ *models.Box, err error) {
	defer track("get_box", time.Now(), &err)
	return s.repo.GetBox(ctx, id)
}

// UpdateBox applies p to the live box id.
func (s *Service) UpdateBox(ctx context.Context, id models.BoxID, p models.BoxPatch, ifMatch string) (_ *models.Box, err error) {
	defer track("update_box", time.Now(), &err)

	out, err := s.repo.UpdateBox(ctx, id, s.now(), func(b *models.Box) error {
		if err := checkETag(b, ifMatch); err != nil {
			return err
		}
		p.Apply(b)
		b.Tags = tags.Normalize(b.Tags)
		return validateBox(b)
	})
	if err != nil {
		return nil, err
	}
	s.publish(EventBoxUpdated, out.MapID, string(out.ID))
	return out, nil
}

// DeleteBox soft-deletes the box and returns it as it was before deletion.
// Its contents move to the top level of the map.
func (s *Service) DeleteBox(ctx context.Context, id models.BoxID) (_ *models.Box, err error) {
	defer track("delete_box", time.Now(), &err)

	out, err := s.repo.DeleteBox(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	s.publish(EventBoxDeleted, out.MapID, string(out.ID))
	return out, nil
}
