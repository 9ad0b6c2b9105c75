//go:build sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/sensemap/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS objects_fts USING fts5(
			id UNINDEXED,
			map_id UNINDEXED,
			summary,
			description,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(ctx context.Context, tx *sql.Tx, o models.MapObject) error {
	if err := ftsDelete(ctx, tx, o.ID); err != nil {
		return err
	}
	body := strings.TrimSpace(strings.Join([]string{o.Description, o.Question, o.Answer}, "\n"))
	_, err := tx.ExecContext(ctx, `INSERT INTO objects_fts (id, map_id, summary, description, tags) VALUES (?, ?, ?, ?, ?)`,
		o.ID, o.MapID, o.Summary, body, strings.Join(o.Tags, " "))
	if err != nil {
		return fmt.Errorf("store: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(ctx context.Context, tx *sql.Tx, id models.ObjectID) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM objects_fts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete fts: %w", err)
	}
	return nil
}

// SearchObjects performs an FTS5 full-text search over the live cards of a map.
func (db *DB) SearchObjects(ctx context.Context, mapID models.MapID, query string, limit int) ([]models.MapObject, error) {
	if limit <= 0 {
		limit = 20
	}
	return queryObjects(ctx, db.conn, `
		SELECT `+prefixColumns("o", objectColumns)+`
		FROM objects_fts f
		JOIN objects o ON o.id = f.id
		WHERE f.objects_fts MATCH ? AND f.map_id = ? AND o.deleted_at IS NULL
		ORDER BY rank
		LIMIT ?
	`, matchQuery(query), mapID, limit)
}

// matchQuery turns free text into an FTS5 query of quoted prefix terms so
// punctuation in user input is never parsed as query syntax.
func matchQuery(q string) string {
	fields := strings.Fields(q)
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"*`
	}
	return strings.Join(fields, " ")
}

func prefixColumns(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
