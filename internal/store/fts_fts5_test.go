//go:build sqlite_fts5

package store

import (
	"context"
	"testing"

	"github.com/starford/sensemap/internal/models"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM objects_fts`).Scan(&count); err != nil {
		t.Fatalf("objects_fts table missing: %v", err)
	}
}

func TestMatchQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"wombat", `"wombat"*`},
		{"  two   words ", `"two"* "words"*`},
		{`say "hi"`, `"say"* """hi"""*`},
		{"NOT OR", `"NOT"* "OR"*`},
	}
	for _, tt := range tests {
		if got := matchQuery(tt.in); got != tt.want {
			t.Errorf("matchQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFTS5_UpdateAndDelete(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	mapID := seedMap(t, db)
	id := seedCard(t, db, mapID)

	if _, err := db.UpdateObject(ctx, id, now(), func(o *models.MapObject) error {
		o.Summary = "original text"
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.UpdateObject(ctx, id, now(), func(o *models.MapObject) error {
		o.Summary = "replacement text"
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if res, _ := db.SearchObjects(ctx, mapID, "original", 10); len(res) != 0 {
		t.Errorf("old FTS content should be gone: %+v", res)
	}
	if res, _ := db.SearchObjects(ctx, mapID, "replace", 10); len(res) != 1 {
		t.Errorf("prefix search = %+v, want 1 hit", res)
	}

	// Operator words and quotes are searched literally.
	if _, err := db.SearchObjects(ctx, mapID, `"AND (`, 10); err != nil {
		t.Errorf("punctuation query failed: %v", err)
	}

	if _, err := db.DeleteObject(ctx, id, now()); err != nil {
		t.Fatal(err)
	}
	if res, _ := db.SearchObjects(ctx, mapID, "replacement", 10); len(res) != 0 {
		t.Errorf("deleted object still in FTS index: %+v", res)
	}
}

func TestFTS5_RowsFollowObjects(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	mapID := seedMap(t, db)
	id := seedCard(t, db, mapID)
	seedCard(t, db, mapID)

	ftsRows := func() int {
		t.Helper()
		var n int
		if err := db.conn.QueryRow(`SELECT count(*) FROM objects_fts WHERE map_id = ?`, mapID).Scan(&n); err != nil {
			t.Fatalf("count fts rows: %v", err)
		}
		return n
	}

	for i := 0; i < 3; i++ {
		if _, err := db.UpdateObject(ctx, id, now(), func(o *models.MapObject) error {
			o.Summary = "edit"
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	}
	if n := ftsRows(); n != 2 {
		t.Errorf("fts rows after repeated updates = %d, want 2", n)
	}

	if _, err := db.DeleteMap(ctx, mapID, now()); err != nil {
		t.Fatalf("DeleteMap: %v", err)
	}
	if n := ftsRows(); n != 0 {
		t.Errorf("fts rows after map delete = %d, want 0", n)
	}
}
