package index

import (
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "uruz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM materials`).Scan(&count); err != nil {
		t.Fatalf("materials table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM sources`).Scan(&count); err != nil {
		t.Fatalf("sources table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := MaterialRow{
		Path:        "steel.json",
		MaterialID:  "id-1",
		Name:        "12Х18Н10Т",
		DisplayName: "12Х18Н10Т (Х18Н10Т)",
		Checksum:    "abc123",
		Areas:       []string{"Крепеж"},
		Categories:  []string{"КП 100"},
		UpdatedAt:   time.Now(),
	}
	if err := db.UpsertMaterial(row, "12Х18Н10Т Х18Н10Т Крепеж", []string{"ГОСТ 5632"}); err != nil {
		t.Fatalf("UpsertMaterial: %v", err)
	}
	cs, err := db.GetChecksum("steel.json")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestSourcesAggregation(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertMaterial(MaterialRow{Path: "a.json", Checksum: "1", UpdatedAt: time.Now()}, "body", []string{"ГОСТ 5632", "ТУ 14-1"})
	_ = db.UpsertMaterial(MaterialRow{Path: "b.json", Checksum: "2", UpdatedAt: time.Now()}, "body", []string{"ГОСТ 5632"})

	sources, err := db.Sources()
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 distinct sources, got %d: %v", len(sources), sources)
	}

	paths, err := db.MaterialsUsingSource("ГОСТ 5632")
	if err != nil {
		t.Fatalf("MaterialsUsingSource: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("expected 2 materials using source, got %d", len(paths))
	}
}

func TestDeleteMaterial(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertMaterial(MaterialRow{Path: "del.json", Checksum: "x", UpdatedAt: time.Now()}, "body", []string{"ГОСТ 1050"})

	if err := db.DeleteMaterial("del.json"); err != nil {
		t.Fatalf("DeleteMaterial: %v", err)
	}
	cs, _ := db.GetChecksum("del.json")
	if cs != "" {
		t.Errorf("deleted material still has checksum %q", cs)
	}
	paths, _ := db.MaterialsUsingSource("ГОСТ 1050")
	if len(paths) != 0 {
		t.Errorf("expected 0 materials after delete, got %d", len(paths))
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertMaterial(MaterialRow{Path: "up.json", Name: "Old", Checksum: "1", UpdatedAt: now}, "old body", []string{"ГОСТ 1"})
	_ = db.UpsertMaterial(MaterialRow{Path: "up.json", Name: "New", Checksum: "2", UpdatedAt: now}, "new body", []string{"ГОСТ 2"})

	cs, _ := db.GetChecksum("up.json")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	paths, _ := db.MaterialsUsingSource("ГОСТ 1")
	if len(paths) != 0 {
		t.Error("old source row should be removed on upsert")
	}
	paths, _ = db.MaterialsUsingSource("ГОСТ 2")
	if len(paths) != 1 {
		t.Error("new source row should exist")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestListMaterials_AreaFilter(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertMaterial(MaterialRow{Path: "a.json", DisplayName: "A", Checksum: "1", Areas: []string{"Крепеж"}, UpdatedAt: now}, "", nil)
	_ = db.UpsertMaterial(MaterialRow{Path: "b.json", DisplayName: "B", Checksum: "2", Areas: []string{"Трубопроводы"}, UpdatedAt: now}, "", nil)

	rows, total, err := db.ListMaterials(10, 0, "", "")
	if err != nil {
		t.Fatalf("ListMaterials: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("unfiltered: total=%d len=%d, want 2/2", total, len(rows))
	}

	rows, total, err = db.ListMaterials(10, 0, "Крепеж", "")
	if err != nil {
		t.Fatalf("ListMaterials filtered: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].Path != "a.json" {
		t.Errorf("filtered: total=%d rows=%+v, want one hit for a.json", total, rows)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertMaterial(MaterialRow{Path: "s.json", DisplayName: "Search Me", Checksum: "1", UpdatedAt: time.Now()}, "uniqueword appears here", nil)

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.json" {
		t.Errorf("search results = %+v, want 1 hit for s.json", results)
	}
}
