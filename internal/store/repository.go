package store

import (
	"context"
	"time"

	"github.com/starford/sensemap/internal/models"
)

// Repository is the persistence capability the map service needs: keyed
// reads and writes of maps, objects and boxes, the belongs_to index behind
// a box's contains list, and a per-map snapshot for scope resolution.
// Consumers should depend on this interface rather than the concrete *DB.
type Repository interface {
	CreateMap(ctx context.Context, m models.Map) (*models.Map, error)
	GetMap(ctx context.Context, id models.MapID) (*models.Map, error)
	ListMaps(ctx context.Context) ([]models.Map, error)
	UpdateMap(ctx context.Context, id models.MapID, at time.Time, fn func(*models.Map) error) (*models.Map, error)
	DeleteMap(ctx context.Context, id models.MapID, at time.Time) (*models.Map, error)

	CreateObject(ctx context.Context, o models.MapObject) (*models.MapObject, error)
	GetObject(ctx context.Context, id models.ObjectID) (*models.MapObject, error)
	UpdateObject(ctx context.Context, id models.ObjectID, at time.Time, fn func(*models.MapObject) error) (*models.MapObject, error)
	DeleteObject(ctx context.Context, id models.ObjectID, at time.Time) (*models.MapObject, error)

	CreateBox(ctx context.Context, b models.Box) (*models.Box, error)
	CreatePlacedBox(ctx context.Context, b models.Box, placement models.MapObject) (*models.Box, *models.MapObject, error)
	GetBox(ctx context.Context, id models.BoxID) (*models.Box, error)
	UpdateBox(ctx context.Context, id models.BoxID, at time.Time, fn func(*models.Box) error) (*models.Box, error)
	DeleteBox(ctx context.Context, id models.BoxID, at time.Time) (*models.Box, error)

	AddToBox(ctx context.Context, object models.ObjectID, box models.BoxID, at time.Time) (models.MapID, bool, error)
	RemoveFromBox(ctx context.Context, object models.ObjectID, box models.BoxID, at time.Time) (models.MapID, bool, error)

	MapSnapshot(ctx context.Context, mapID models.MapID) (*models.Snapshot, error)
	SearchObjects(ctx context.Context, mapID models.MapID, query string, limit int) ([]models.MapObject, error)

	Ping(ctx context.Context) error
	Close() error
}

// Verify *DB satisfies Repository at compile time.
var _ Repository = (*DB)(nil)
