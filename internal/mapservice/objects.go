package mapservice

import (
	"context"
	"time"

	"github.com/starford/sensemap/internal/models"
	"github.com/starford/sensemap/internal/tags"
)

// ObjectFields are the optional fields of a new object.
type ObjectFields struct {
	CardType    models.CardType `json:"cardType"`
	Data        *models.BoxID   `json:"data"`
	X           float64         `json:"x"`
	Y           float64         `json:"y"`
	Width       float64         `json:"width"`
	Height      float64         `json:"height"`
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	Tags        []string        `json:"tags"`
	Question    string          `json:"question"`
	Answer      string          `json:"answer"`
}

// CreateObject places a new object of type t on map mapID. The object starts
// at the top level of the map. CARD objects default to NORMAL; BOX objects
// must name the box they show in Data.
func (s *Service) CreateObject(ctx context.Context, mapID models.MapID, t models.ObjectType, f ObjectFields) (_ *models.MapObject, err error) {
	defer track("create_object", time.Now(), &err)

	now := s.now()
	o := models.MapObject{
		ID:          models.ObjectID(s.newID()),
		MapID:       mapID,
		ObjectType:  t,
		CardType:    f.CardType,
		Data:        f.Data,
		X:           f.X,
		Y:           f.Y,
		Width:       f.Width,
		Height:      f.Height,
		Summary:     f.Summary,
		Description: f.Description,
		Tags:        tags.Normalize(f.Tags),
		Question:    f.Question,
		Answer:      f.Answer,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if o.ObjectType == models.ObjectTypeCard && o.CardType == "" {
		o.CardType = models.CardTypeNormal
	}
	if err := validateObject(&o); err != nil {
		return nil, err
	}
	out, err := s.repo.CreateObject(ctx, o)
	if err != nil {
		return nil, err
	}
	s.publish(EventObjectCreated, out.MapID, string(out.ID))
	return out, nil
}

// GetObject returns the live object id, or nil when it is absent or deleted.
func (s *Service) GetObject(ctx context.Context, id models.ObjectID) (_ *models.MapObject, err error) {
	defer track("get_object", time.Now(), &err)
	return s.repo.GetObject(ctx, id)
}

// UpdateObject applies p to the live object id. Changing the card type
// clears question or answer text the new type does not carry, unless p sets
// that text explicitly.
func (s *Service) UpdateObject(ctx context.Context, id models.ObjectID, p models.ObjectPatch, ifMatch string) (_ *models.MapObject, err error) {
	defer track("update_object", time.Now(), &err)

	out, err := s.repo.UpdateObject(ctx, id, s.now(), func(o *models.MapObject) error {
		if err := checkETag(o, ifMatch); err != nil {
			return err
		}
		p.Apply(o)
		if p.CardType != nil {
			if p.Question == nil && o.CardType != models.CardTypeQuestion {
				o.Question = ""
			}
			if p.Answer == nil && o.CardType != models.CardTypeAnswer {
				o.Answer = ""
			}
		}
		o.Tags = tags.Normalize(o.Tags)
		return validateObject(o)
	})
	if err != nil {
		return nil, err
	}
	s.publish(EventObjectUpdated, out.MapID, string(out.ID))
	return out, nil
}

// DeleteObject soft-deletes the object and returns it as it was before
// deletion. Deleting twice fails with apperr.ErrNotFound.
func (s *Service) DeleteObject(ctx context.Context, id models.ObjectID) (_ *models.MapObject, err error) {
	defer track("delete_object", time.Now(), &err)

	out, err := s.repo.DeleteObject(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	s.publish(EventObjectDeleted, out.MapID, string(out.ID))
	return out, nil
}
