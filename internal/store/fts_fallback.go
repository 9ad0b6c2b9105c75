//go:build !sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/starford/sensemap/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over the objects table.
	return nil
}

func ftsUpsert(_ context.Context, _ *sql.Tx, _ models.MapObject) error { return nil }

func ftsDelete(_ context.Context, _ *sql.Tx, _ models.ObjectID) error { return nil }

// SearchObjects performs a LIKE-based search over the live cards of a map
// (fallback when FTS5 is not compiled in).
func (db *DB) SearchObjects(ctx context.Context, mapID models.MapID, query string, limit int) ([]models.MapObject, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + likeEscaper.Replace(query) + "%"
	return queryObjects(ctx, db.conn, `
		SELECT `+objectColumns+` FROM objects
		WHERE map_id = ? AND deleted_at IS NULL
		  AND (summary LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\'
		    OR question LIKE ? ESCAPE '\' OR answer LIKE ? ESCAPE '\'
		    OR EXISTS (SELECT 1 FROM json_each(objects.tags) WHERE json_each.value LIKE ? ESCAPE '\'))
		ORDER BY updated_at DESC, id
		LIMIT ?
	`, mapID, like, like, like, like, like, limit)
}

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
