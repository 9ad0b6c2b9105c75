package models

import "time"

// Map is a canvas that owns objects and boxes.
type Map struct {
	ID          MapID      `json:"id"`
	Type        MapType    `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	Image       string     `json:"image"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

// MapObject is a card-like entity placed on a map.
//
// CardType, Question and Answer are only set on CARD objects; Data is only
// set on BOX objects and names the box the object shows.
type MapObject struct {
	ID          ObjectID   `json:"id"`
	MapID       MapID      `json:"mapId"`
	ObjectType  ObjectType `json:"objectType"`
	CardType    CardType   `json:"cardType,omitempty"`
	Data        *BoxID     `json:"data,omitempty"`
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	Width       float64    `json:"width"`
	Height      float64    `json:"height"`
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	Question    string     `json:"question,omitempty"`
	Answer      string     `json:"answer,omitempty"`
	BelongsTo   *BoxID     `json:"belongsTo,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

// InBox reports whether the object currently belongs to box id.
func (o *MapObject) InBox(id BoxID) bool {
	return o.BelongsTo != nil && *o.BelongsTo == id
}

// Box groups objects. Contains is derived from the objects' BelongsTo and is
// never stored on the box itself.
type Box struct {
	ID        BoxID      `json:"id"`
	MapID     MapID      `json:"mapId"`
	BoxType   BoxType    `json:"boxType"`
	Title     string     `json:"title"`
	Summary   string     `json:"summary"`
	Tags      []string   `json:"tags"`
	Contains  []ObjectID `json:"contains"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// ObjectPatch holds the fields of a partial object update. Nil fields are left
// untouched. Map, type and containment are not patchable.
type ObjectPatch struct {
	CardType    *CardType `json:"cardType,omitempty"`
	X           *float64  `json:"x,omitempty"`
	Y           *float64  `json:"y,omitempty"`
	Width       *float64  `json:"width,omitempty"`
	Height      *float64  `json:"height,omitempty"`
	Summary     *string   `json:"summary,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Question    *string   `json:"question,omitempty"`
	Answer      *string   `json:"answer,omitempty"`
}

// Apply merges p into o.
func (p ObjectPatch) Apply(o *MapObject) {
	if p.CardType != nil {
		o.CardType = *p.CardType
	}
	if p.X != nil {
		o.X = *p.X
	}
	if p.Y != nil {
		o.Y = *p.Y
	}
	if p.Width != nil {
		o.Width = *p.Width
	}
	if p.Height != nil {
		o.Height = *p.Height
	}
	if p.Summary != nil {
		o.Summary = *p.Summary
	}
	if p.Description != nil {
		o.Description = *p.Description
	}
	if p.Tags != nil {
		o.Tags = *p.Tags
	}
	if p.Question != nil {
		o.Question = *p.Question
	}
	if p.Answer != nil {
		o.Answer = *p.Answer
	}
}

// BoxPatch holds the fields of a partial box update.
type BoxPatch struct {
	BoxType *BoxType  `json:"boxType,omitempty"`
	Title   *string   `json:"title,omitempty"`
	Summary *string   `json:"summary,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

// Apply merges p into b.
func (p BoxPatch) Apply(b *Box) {
	if p.BoxType != nil {
		b.BoxType = *p.BoxType
	}
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Summary != nil {
		b.Summary = *p.Summary
	}
	if p.Tags != nil {
		b.Tags = *p.Tags
	}
}

// MapPatch holds the fields of a partial map update.
type MapPatch struct {
	Type        *MapType  `json:"type,omitempty"`
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Image       *string   `json:"image,omitempty"`
}

// Apply merges p into m.
func (p MapPatch) Apply(m *Map) {
	if p.Type != nil {
		m.Type = *p.Type
	}
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Tags != nil {
		m.Tags = *p.Tags
	}
	if p.Image != nil {
		m.Image = *p.Image
	}
}

// Snapshot is a point-in-time view of the live records of one map.
type Snapshot struct {
	Objects []MapObject
	Boxes   map[BoxID]Box
}
