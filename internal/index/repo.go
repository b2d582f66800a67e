package index

import (
	"encoding/json"
	"fmt"
	"time"
)

// MaterialRow represents a row in the materials table.
type MaterialRow struct {
	Path        string
	MaterialID  string
	Name        string
	DisplayName string
	Checksum    string
	Areas       []string
	Categories  []string
	UpdatedAt   time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
	Snippet     string `json:"snippet"`
}

// UpsertMaterial inserts or replaces a material row, its FTS entry, and its
// source names within a transaction. body is the searchable text (names,
// comment, areas); sources is the aggregated source/subsource set.
func (db *DB) UpsertMaterial(row MaterialRow, body string, sources []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	areasJSON, _ := json.Marshal(nonNil(row.Areas))
	categoriesJSON, _ := json.Marshal(nonNil(row.Categories))

	_, err = tx.Exec(`
		INSERT INTO materials (path, material_id, name, display_name, checksum, areas, categories, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			material_id  = excluded.material_id,
			name         = excluded.name,
			display_name = excluded.display_name,
			checksum     = excluded.checksum,
			areas        = excluded.areas,
			categories   = excluded.categories,
			body         = excluded.body,
			updated_at   = excluded.updated_at
	`, row.Path, row.MaterialID, row.Name, row.DisplayName, row.Checksum,
		string(areasJSON), string(categoriesJSON), body, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert material: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, row.Path, row.DisplayName, body); err != nil {
		return err
	}

	// Replace source rows: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM sources WHERE path = ?`, row.Path)
	if len(sources) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO sources (path, source) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare source insert: %w", err)
		}
		defer stmt.Close()
		for _, s := range sources {
			if _, err := stmt.Exec(row.Path, s); err != nil {
				return fmt.Errorf("index: insert source: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteMaterial removes a material, its FTS entry, and its source rows.
func (db *DB) DeleteMaterial(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM sources WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM materials WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a material, or empty string if
// not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM materials WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns path→checksum for every indexed material.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM materials`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// AllPaths returns every indexed material path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM materials`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// ListMaterials returns paginated material rows with an optional
// application-area filter and sort key (display_name, path, updated_at).
func (db *DB) ListMaterials(limit, offset int, area, sortKey string) ([]MaterialRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	args := []any{}
	if area != "" {
		// Areas are stored as a JSON string array; match the quoted value.
		where = `WHERE areas LIKE ?`
		args = append(args, `%"`+area+`"%`)
	}

	order := "display_name COLLATE NOCASE ASC"
	switch sortKey {
	case "path":
		order = "path ASC"
	case "updated_at":
		order = "updated_at DESC"
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM materials `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count materials: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT path, material_id, name, display_name, checksum, areas, categories, updated_at
		FROM materials %s
		ORDER BY %s
		LIMIT ? OFFSET ?
	`, where, order)
	rows, err := db.conn.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list materials: %w", err)
	}
	defer rows.Close()

	var out []MaterialRow
	for rows.Next() {
		var r MaterialRow
		var areasJSON, categoriesJSON string
		if err := rows.Scan(&r.Path, &r.MaterialID, &r.Name, &r.DisplayName,
			&r.Checksum, &areasJSON, &categoriesJSON, &r.UpdatedAt); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(areasJSON), &r.Areas)
		_ = json.Unmarshal([]byte(categoriesJSON), &r.Categories)
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// Sources returns the distinct, case-insensitively sorted set of source
// names used across the whole library.
func (db *DB) Sources() ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT source FROM sources ORDER BY source COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("index: sources: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MaterialsUsingSource returns the paths of materials referencing a source.
func (db *DB) MaterialsUsingSource(source string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT path FROM sources WHERE source = ? ORDER BY path`, source)
	if err != nil {
		return nil, fmt.Errorf("index: materials using source: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
