package api

import (
	"github.com/starford/sensemap/internal/mapservice"
	"github.com/starford/sensemap/internal/models"
)

// CreateMapRequest is the request body for creating a map.
type CreateMapRequest = mapservice.MapFields

// CreateObjectRequest is the request body for creating an object.
type CreateObjectRequest struct {
	ObjectType models.ObjectType `json:"objectType" example:"CARD" validate:"required"`
	mapservice.ObjectFields
}

// CreateBoxRequest is the request body for creating a box.
type CreateBoxRequest struct {
	BoxType models.BoxType `json:"boxType" example:"INFO"`
	mapservice.BoxFields
}

// MapListResponse wraps map listings.
type MapListResponse struct {
	Maps []models.Map `json:"maps" validate:"required"`
}

// ScopeResponse is the resolved content of a scope.
type ScopeResponse struct {
	Scope   models.Scope       `json:"scope" validate:"required"`
	Objects []models.MapObject `json:"objects" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.MapObject `json:"results" validate:"required"`
}

// ImageUploadResponse is returned after a successful image upload.
type ImageUploadResponse struct {
	Filename string `json:"filename" example:"3f1c0a52-7b7e-4c1e-9d0a-2b8f7f0c1d2e.png" validate:"required"`
	Size     int64  `json:"size" example:"12345" validate:"required"`
	URL      string `json:"url" example:"/images/3f1c0a52-7b7e-4c1e-9d0a-2b8f7f0c1d2e.png" validate:"required"`
}
