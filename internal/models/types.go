// Package models defines the domain types for the sensemap canvas.
package models

// MapID identifies a map.
type MapID string

// ObjectID identifies an object placed on a map.
type ObjectID string

// BoxID identifies a box.
type BoxID string

// ObjectType discriminates what an object on the map shows.
type ObjectType string

const (
	ObjectTypeCard ObjectType = "CARD"
	ObjectTypeBox  ObjectType = "BOX"
)

// Valid reports whether t is a known object type.
func (t ObjectType) Valid() bool {
	switch t {
	case ObjectTypeCard, ObjectTypeBox:
		return true
	}
	return false
}

// CardType is the variant of a CARD object.
type CardType string

const (
	CardTypeNormal   CardType = "NORMAL"
	CardTypeNote     CardType = "NOTE"
	CardTypeQuestion CardType = "QUESTION"
	CardTypeAnswer   CardType = "ANSWER"
)

// Valid reports whether t is a known card type.
func (t CardType) Valid() bool {
	switch t {
	case CardTypeNormal, CardTypeNote, CardTypeQuestion, CardTypeAnswer:
		return true
	}
	return false
}

// BoxType is the variant of a box.
type BoxType string

const (
	BoxTypeInfo   BoxType = "INFO"
	BoxTypeNotice BoxType = "NOTICE"
)

// Valid reports whether t is a known box type.
func (t BoxType) Valid() bool {
	switch t {
	case BoxTypeInfo, BoxTypeNotice:
		return true
	}
	return false
}

// MapType is the visibility class of a map.
type MapType string

const (
	MapTypePublic  MapType = "PUBLIC"
	MapTypePrivate MapType = "PRIVATE"
)

// Valid reports whether t is a known map type.
func (t MapType) Valid() bool {
	switch t {
	case MapTypePublic, MapTypePrivate:
		return true
	}
	return false
}

// ScopeType selects which part of a map is visible.
type ScopeType string

const (
	ScopeWholeMap ScopeType = "WHOLE_MAP"
	ScopeBox      ScopeType = "BOX"
)

// Scope describes the part of a map currently being looked at.
// Box is only meaningful when Type is ScopeBox.
type Scope struct {
	Type ScopeType `json:"type"`
	Box  BoxID     `json:"box,omitempty"`
}

// WholeMap returns the top-level scope.
func WholeMap() Scope { return Scope{Type: ScopeWholeMap} }

// InBox returns the scope inside box id.
func InBox(id BoxID) Scope { return Scope{Type: ScopeBox, Box: id} }

// Containment echoes the endpoints of an add/remove containment request.
type Containment struct {
	ContainsObject ObjectID `json:"containsObject"`
	BelongsToBox   BoxID    `json:"belongsToBox"`
}
