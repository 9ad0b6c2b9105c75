package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/sensemap/internal/apperr"
	"github.com/starford/sensemap/internal/models"
)

const mapColumns = `id, type, name, description, tags, image, created_at, updated_at, deleted_at`

func scanMap(s scanner) (*models.Map, error) {
	var (
		m                models.Map
		tags             string
		created, updated int64
		deleted          sql.NullInt64
	)
	if err := s.Scan(&m.ID, &m.Type, &m.Name, &m.Description, &tags, &m.Image, &created, &updated, &deleted); err != nil {
		return nil, err
	}
	m.Tags = decodeTags(tags)
	m.CreatedAt = fromNanos(created)
	m.UpdatedAt = fromNanos(updated)
	m.DeletedAt = fromNullNanos(deleted)
	return &m, nil
}

// getMapTx returns the live map id, or nil when it is absent or deleted.
func getMapTx(ctx context.Context, q querier, id models.MapID) (*models.Map, error) {
	row := q.QueryRowContext(ctx, `SELECT `+mapColumns+` FROM maps WHERE id = ? AND deleted_at IS NULL`, id)
	m, err := scanMap(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get map: %w", err)
	}
	return m, nil
}

// CreateMap inserts m and returns the stored record.
func (db *DB) CreateMap(ctx context.Context, m models.Map) (*models.Map, error) {
	var out *models.Map
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO maps (id, type, name, description, tags, image, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, m.ID, m.Type, m.Name, m.Description, encodeTags(m.Tags), m.Image, toNanos(m.CreatedAt), toNanos(m.UpdatedAt))
		if err != nil {
			return fmt.Errorf("store: insert map: %w", err)
		}
		out, err = getMapTx(ctx, tx, m.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetMap returns the live map id, or nil when it is absent or deleted.
func (db *DB) GetMap(ctx context.Context, id models.MapID) (*models.Map, error) {
	return getMapTx(ctx, db.conn, id)
}

// ListMaps returns every live map, most recently created first.
func (db *DB) ListMaps(ctx context.Context) ([]models.Map, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+mapColumns+` FROM maps
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list maps: %w", err)
	}
	defer rows.Close()

	out := []models.Map{}
	for rows.Next() {
		m, err := scanMap(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// UpdateMap applies fn to the live map id and persists the result.
// fn may reject the change by returning an error.
func (db *DB) UpdateMap(ctx context.Context, id models.MapID, at time.Time, fn func(*models.Map) error) (*models.Map, error) {
	var out *models.Map
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		m, err := getMapTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return apperr.NotFound("map", id)
		}
		if err := fn(m); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE maps SET type = ?, name = ?, description = ?, tags = ?, image = ?, updated_at = ?
			WHERE id = ?
		`, m.Type, m.Name, m.Description, encodeTags(m.Tags), m.Image, toNanos(at), id)
		if err != nil {
			return fmt.Errorf("store: update map: %w", err)
		}
		out, err = getMapTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteMap soft-deletes the map together with its live objects and boxes
// and returns the map as it was before deletion.
func (db *DB) DeleteMap(ctx context.Context, id models.MapID, at time.Time) (*models.Map, error) {
	var out *models.Map
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		m, err := getMapTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return apperr.NotFound("map", id)
		}
		ts := toNanos(at)
		if _, err := tx.ExecContext(ctx, `UPDATE maps SET deleted_at = ? WHERE id = ?`, ts, id); err != nil {
			return fmt.Errorf("store: delete map: %w", err)
		}
		objects, err := queryObjects(ctx, tx,
			`SELECT `+objectColumns+` FROM objects WHERE map_id = ? AND deleted_at IS NULL`, id)
		if err != nil {
			return err
		}
		for _, o := range objects {
			if err := ftsDelete(ctx, tx, o.ID); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE objects SET deleted_at = ? WHERE map_id = ? AND deleted_at IS NULL`, ts, id); err != nil {
			return fmt.Errorf("store: delete map objects: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE boxes SET deleted_at = ? WHERE map_id = ? AND deleted_at IS NULL`, ts, id); err != nil {
			return fmt.Errorf("store: delete map boxes: %w", err)
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
