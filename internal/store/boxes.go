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

const boxColumns = `id, map_id, box_type, title, summary, tags, created_at, updated_at, deleted_at`

func scanBox(s scanner) (*models.Box, error) {
	var (
		b                models.Box
		tags             string
		created, updated int64
		deleted          sql.NullInt64
	)
	if err := s.Scan(&b.ID, &b.MapID, &b.BoxType, &b.Title, &b.Summary, &tags, &created, &updated, &deleted); err != nil {
		return nil, err
	}
	b.Tags = decodeTags(tags)
	b.CreatedAt = fromNanos(created)
	b.UpdatedAt = fromNanos(updated)
	b.DeletedAt = fromNullNanos(deleted)
	return &b, nil
}

// getBoxRowTx reads the live box row without its derived contains list.
func getBoxRowTx(ctx context.Context, q querier, id models.BoxID) (*models.Box, error) {
	row := q.QueryRowContext(ctx, `SELECT `+boxColumns+` FROM boxes WHERE id = ? AND deleted_at IS NULL`, id)
	b, err := scanBox(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get box: %w", err)
	}
	return b, nil
}

// containsTx lists the live objects whose belongs_to is id, in the order
// they were added to the box.
func containsTx(ctx context.Context, q querier, id models.BoxID) ([]models.ObjectID, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id FROM objects
		WHERE belongs_to = ? AND deleted_at IS NULL
		ORDER BY belongs_seq, id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("store: box contains: %w", err)
	}
	defer rows.Close()

	out := []models.ObjectID{}
	for rows.Next() {
		var oid models.ObjectID
		if err := rows.Scan(&oid); err != nil {
			return nil, err
		}
		out = append(out, oid)
	}
	return out, rows.Err()
}

// getBoxTx reads the live box with contains materialised from the object side.
func getBoxTx(ctx context.Context, q querier, id models.BoxID) (*models.Box, error) {
	b, err := getBoxRowTx(ctx, q, id)
	if err != nil || b == nil {
		return nil, err
	}
	if b.Contains, err = containsTx(ctx, q, id); err != nil {
		return nil, err
	}
	return b, nil
}

// CreateBox inserts b in a live map and returns the stored record.
func (db *DB) CreateBox(ctx context.Context, b models.Box) (*models.Box, error) {
	var out *models.Box
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		m, err := getMapTx(ctx, tx, b.MapID)
		if err != nil {
			return err
		}
		if m == nil {
			return apperr.NotFound("map", b.MapID)
		}
		out, err = insertBoxTx(ctx, tx, b)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePlacedBox inserts b together with the BOX object that shows it on
// the map. Either both rows are written or neither is. The placement's map
// and data are taken from b.
func (db *DB) CreatePlacedBox(ctx context.Context, b models.Box, placement models.MapObject) (*models.Box, *models.MapObject, error) {
	var (
		box *models.Box
		obj *models.MapObject
	)
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		m, err := getMapTx(ctx, tx, b.MapID)
		if err != nil {
			return err
		}
		if m == nil {
			return apperr.NotFound("map", b.MapID)
		}
		if _, err := insertBoxTx(ctx, tx, b); err != nil {
			return err
		}
		placement.MapID = b.MapID
		placement.ObjectType = models.ObjectTypeBox
		placement.Data = &b.ID
		if obj, err = insertObjectTx(ctx, tx, placement); err != nil {
			return err
		}
		box, err = getBoxTx(ctx, tx, b.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return box, obj, nil
}

func insertBoxTx(ctx context.Context, tx *sql.Tx, b models.Box) (*models.Box, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO boxes (id, map_id, box_type, title, summary, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.MapID, b.BoxType, b.Title, b.Summary, encodeTags(b.Tags), toNanos(b.CreatedAt), toNanos(b.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("store: insert box: %w", err)
	}
	return getBoxTx(ctx, tx, b.ID)
}

// GetBox returns the live box id with its derived contains list, or nil when
// it is absent or deleted. Both reads share one transaction so contains
// reflects a single point in time.
func (db *DB) GetBox(ctx context.Context, id models.BoxID) (*models.Box, error) {
	var out *models.Box
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		out, err = getBoxTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateBox applies fn to the live box id and persists the result.
// Changes fn makes to Contains are ignored.
func (db *DB) UpdateBox(ctx context.Context, id models.BoxID, at time.Time, fn func(*models.Box) error) (*models.Box, error) {
	var out *models.Box
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		b, err := getBoxTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return apperr.NotFound("box", id)
		}
		if err := fn(b); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE boxes SET box_type = ?, title = ?, summary = ?, tags = ?, updated_at = ?
			WHERE id = ?
		`, b.BoxType, b.Title, b.Summary, encodeTags(b.Tags), toNanos(at), id)
		if err != nil {
			return fmt.Errorf("store: update box: %w", err)
		}
		out, err = getBoxTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteBox soft-deletes the box and returns it, contains included, as it was
// before deletion. Objects it contained return to the top level of the map
// and the objects placing it on the map are deleted with it.
func (db *DB) DeleteBox(ctx context.Context, id models.BoxID, at time.Time) (*models.Box, error) {
	var out *models.Box
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		b, err := getBoxTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return apperr.NotFound("box", id)
		}
		ts := toNanos(at)
		if _, err := tx.ExecContext(ctx, `UPDATE boxes SET deleted_at = ? WHERE id = ?`, ts, id); err != nil {
			return fmt.Errorf("store: delete box: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE objects SET belongs_to = NULL, belongs_seq = 0, updated_at = ?
			WHERE belongs_to = ? AND deleted_at IS NULL
		`, ts, id); err != nil {
			return fmt.Errorf("store: release box contents: %w", err)
		}
		placements, err := queryObjects(ctx, tx,
			`SELECT `+objectColumns+` FROM objects WHERE data = ? AND deleted_at IS NULL`, id)
		if err != nil {
			return err
		}
		for _, p := range placements {
			if _, err := tx.ExecContext(ctx, `UPDATE objects SET deleted_at = ? WHERE id = ?`, ts, p.ID); err != nil {
				return fmt.Errorf("store: delete box placement: %w", err)
			}
			if err := ftsDelete(ctx, tx, p.ID); err != nil {
				return err
			}
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
