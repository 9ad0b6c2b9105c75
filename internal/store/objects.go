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

const objectColumns = `id, map_id, object_type, card_type, data, x, y, width, height,
	summary, description, tags, question, answer, belongs_to, created_at, updated_at, deleted_at`

func scanObject(s scanner) (*models.MapObject, error) {
	var (
		o                models.MapObject
		data, belongsTo  sql.NullString
		tags             string
		created, updated int64
		deleted          sql.NullInt64
	)
	err := s.Scan(&o.ID, &o.MapID, &o.ObjectType, &o.CardType, &data, &o.X, &o.Y, &o.Width, &o.Height,
		&o.Summary, &o.Description, &tags, &o.Question, &o.Answer, &belongsTo, &created, &updated, &deleted)
	if err != nil {
		return nil, err
	}
	o.Data = boxIDPtr(data)
	o.BelongsTo = boxIDPtr(belongsTo)
	o.Tags = decodeTags(tags)
	o.CreatedAt = fromNanos(created)
	o.UpdatedAt = fromNanos(updated)
	o.DeletedAt = fromNullNanos(deleted)
	return &o, nil
}

func getObjectTx(ctx context.Context, q querier, id models.ObjectID) (*models.MapObject, error) {
	row := q.QueryRowContext(ctx, `SELECT `+objectColumns+` FROM objects WHERE id = ? AND deleted_at IS NULL`, id)
	o, err := scanObject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get object: %w", err)
	}
	return o, nil
}

func queryObjects(ctx context.Context, q querier, query string, args ...any) ([]models.MapObject, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query objects: %w", err)
	}
	defer rows.Close()

	out := []models.MapObject{}
	for rows.Next() {
		o, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// CreateObject inserts o and returns the stored record.
//
// The map must be live. A BOX object must show a live box of the same map
// that no other live object already shows.
func (db *DB) CreateObject(ctx context.Context, o models.MapObject) (*models.MapObject, error) {
	var out *models.MapObject
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		m, err := getMapTx(ctx, tx, o.MapID)
		if err != nil {
			return err
		}
		if m == nil {
			return apperr.NotFound("map", o.MapID)
		}
		out, err = insertObjectTx(ctx, tx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func insertObjectTx(ctx context.Context, tx *sql.Tx, o models.MapObject) (*models.MapObject, error) {
	if o.Data != nil {
		if err := checkPlacement(ctx, tx, o.MapID, *o.Data); err != nil {
			return nil, err
		}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO objects (id, map_id, object_type, card_type, data, x, y, width, height,
			summary, description, tags, question, answer, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.MapID, o.ObjectType, o.CardType, nullBoxID(o.Data), o.X, o.Y, o.Width, o.Height,
		o.Summary, o.Description, encodeTags(o.Tags), o.Question, o.Answer,
		toNanos(o.CreatedAt), toNanos(o.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("store: insert object: %w", err)
	}
	if err := ftsUpsert(ctx, tx, o); err != nil {
		return nil, err
	}
	return getObjectTx(ctx, tx, o.ID)
}

// checkPlacement validates that box can be shown by a new BOX object on mapID.
func checkPlacement(ctx context.Context, tx *sql.Tx, mapID models.MapID, box models.BoxID) error {
	b, err := getBoxRowTx(ctx, tx, box)
	if err != nil {
		return err
	}
	if b == nil {
		return apperr.NotFound("box", box)
	}
	if b.MapID != mapID {
		return apperr.Invalidf("box %s belongs to another map", box)
	}
	var n int
	err = tx.QueryRowContext(ctx,
		`SELECT count(*) FROM objects WHERE data = ? AND deleted_at IS NULL`, box).Scan(&n)
	if err != nil {
		return fmt.Errorf("store: count placements: %w", err)
	}
	if n > 0 {
		return apperr.Invalidf("box %s is already placed on the map", box)
	}
	return nil
}

// GetObject returns the live object id, or nil when it is absent or deleted.
func (db *DB) GetObject(ctx context.Context, id models.ObjectID) (*models.MapObject, error) {
	return getObjectTx(ctx, db.conn, id)
}

// UpdateObject applies fn to the live object id and persists the result.
// Identity, map, type, box reference and containment are not writable here.
func (db *DB) UpdateObject(ctx context.Context, id models.ObjectID, at time.Time, fn func(*models.MapObject) error) (*models.MapObject, error) {
	var out *models.MapObject
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		o, err := getObjectTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return apperr.NotFound("object", id)
		}
		if err := fn(o); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE objects SET card_type = ?, x = ?, y = ?, width = ?, height = ?,
				summary = ?, description = ?, tags = ?, question = ?, answer = ?, updated_at = ?
			WHERE id = ?
		`, o.CardType, o.X, o.Y, o.Width, o.Height,
			o.Summary, o.Description, encodeTags(o.Tags), o.Question, o.Answer, toNanos(at), id)
		if err != nil {
			return fmt.Errorf("store: update object: %w", err)
		}
		if err := ftsUpsert(ctx, tx, *o); err != nil {
			return err
		}
		out, err = getObjectTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteObject soft-deletes the object and returns it as it was before
// deletion. Deleting an already deleted object fails with apperr.ErrNotFound.
func (db *DB) DeleteObject(ctx context.Context, id models.ObjectID, at time.Time) (*models.MapObject, error) {
	var out *models.MapObject
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		o, err := getObjectTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return apperr.NotFound("object", id)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE objects SET deleted_at = ? WHERE id = ?`, toNanos(at), id); err != nil {
			return fmt.Errorf("store: delete object: %w", err)
		}
		if err := ftsDelete(ctx, tx, id); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
