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

// maxNestingDepth bounds the ancestor walk used for cycle detection.
const maxNestingDepth = 256

// AddToBox makes box the owner of object by setting the object's belongs_to.
// Adding to the current owner is a no-op; adding to another box moves the
// object. Both endpoints must be live and on the same map. It returns the
// object's map and whether belongs_to changed.
func (db *DB) AddToBox(ctx context.Context, object models.ObjectID, box models.BoxID, at time.Time) (models.MapID, bool, error) {
	var (
		mapID   models.MapID
		changed bool
	)
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		o, err := getObjectTx(ctx, tx, object)
		if err != nil {
			return err
		}
		if o == nil {
			return apperr.NotFound("object", object)
		}
		b, err := getBoxRowTx(ctx, tx, box)
		if err != nil {
			return err
		}
		if b == nil {
			return apperr.NotFound("box", box)
		}
		if o.MapID != b.MapID {
			return apperr.Invalidf("object %s and box %s are on different maps", object, box)
		}
		mapID = o.MapID
		if o.InBox(box) {
			return nil
		}
		if o.Data != nil {
			if err := checkAcyclic(ctx, tx, *o.Data, box); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE objects
			SET belongs_to = ?,
			    belongs_seq = (SELECT COALESCE(MAX(belongs_seq), 0) + 1 FROM objects),
			    updated_at = ?
			WHERE id = ?
		`, box, toNanos(at), object)
		if err != nil {
			return fmt.Errorf("store: add to box: %w", err)
		}
		changed, err = rowsChanged(res)
		return err
	})
	if err != nil {
		return "", false, err
	}
	return mapID, changed, nil
}

func rowsChanged(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: rows affected: %w", err)
	}
	return n > 0, nil
}

// checkAcyclic rejects putting the placement of shown into target when target
// is shown itself or sits, directly or through other boxes, inside shown.
func checkAcyclic(ctx context.Context, tx *sql.Tx, shown, target models.BoxID) error {
	cur := target
	for i := 0; i < maxNestingDepth; i++ {
		if cur == shown {
			return apperr.Invalidf("box %s cannot contain itself", shown)
		}
		var parent sql.NullString
		err := tx.QueryRowContext(ctx, `
			SELECT belongs_to FROM objects
			WHERE data = ? AND deleted_at IS NULL
			LIMIT 1
		`, cur).Scan(&parent)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && !parent.Valid) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("store: walk box ancestors: %w", err)
		}
		cur = models.BoxID(parent.String)
	}
	return apperr.Invalidf("box nesting deeper than %d", maxNestingDepth)
}

// RemoveFromBox clears the object's belongs_to when it currently equals box.
// Otherwise nothing changes. The object must be live. It returns the
// object's map and whether belongs_to changed.
func (db *DB) RemoveFromBox(ctx context.Context, object models.ObjectID, box models.BoxID, at time.Time) (models.MapID, bool, error) {
	var (
		mapID   models.MapID
		changed bool
	)
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		o, err := getObjectTx(ctx, tx, object)
		if err != nil {
			return err
		}
		if o == nil {
			return apperr.NotFound("object", object)
		}
		mapID = o.MapID
		res, err := tx.ExecContext(ctx, `
			UPDATE objects SET belongs_to = NULL, belongs_seq = 0, updated_at = ?
			WHERE id = ? AND belongs_to = ? AND deleted_at IS NULL
		`, toNanos(at), object, box)
		if err != nil {
			return fmt.Errorf("store: remove from box: %w", err)
		}
		changed, err = rowsChanged(res)
		return err
	})
	if err != nil {
		return "", false, err
	}
	return mapID, changed, nil
}

// MapSnapshot reads the live objects and boxes of a map in one transaction.
// Boxes carry their derived contains lists. A missing or deleted map yields
// an empty snapshot.
func (db *DB) MapSnapshot(ctx context.Context, mapID models.MapID) (*models.Snapshot, error) {
	snap := &models.Snapshot{Objects: []models.MapObject{}, Boxes: map[models.BoxID]models.Box{}}
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		m, err := getMapTx(ctx, tx, mapID)
		if err != nil || m == nil {
			return err
		}
		snap.Objects, err = queryObjects(ctx, tx, `
			SELECT `+objectColumns+` FROM objects
			WHERE map_id = ? AND deleted_at IS NULL
			ORDER BY created_at, id
		`, mapID)
		if err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, `SELECT `+boxColumns+` FROM boxes WHERE map_id = ? AND deleted_at IS NULL`, mapID)
		if err != nil {
			return fmt.Errorf("store: snapshot boxes: %w", err)
		}
		var boxes []*models.Box
		for rows.Next() {
			b, err := scanBox(rows)
			if err != nil {
				rows.Close()
				return err
			}
			boxes = append(boxes, b)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		for _, b := range boxes {
			if b.Contains, err = containsTx(ctx, tx, b.ID); err != nil {
				return err
			}
			snap.Boxes[b.ID] = *b
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
