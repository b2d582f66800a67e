package index

import (
	"log/slog"
	"strings"
	"time"

	"github.com/starford/uruz/internal/checksum"
	"github.com/starford/uruz/internal/models"
	"github.com/starford/uruz/internal/storage"
)

// Sync walks the library and brings the index up to date:
//   - new/changed documents are parsed and upserted
//   - documents removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	infos, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		disk[info.Path] = struct{}{}

		if checksums[info.Path] == info.Checksum {
			continue
		}

		data, err := store.Read(info.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", info.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexDocument(db, info.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", info.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", info.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteMaterial(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexDocument parses a document and upserts its derived row. Exported so
// the service and watcher can reuse the same derivation.
func IndexDocument(db *DB, path string, data []byte) error {
	m, err := models.Decode(data)
	if err != nil {
		return err
	}
	return db.UpsertMaterial(MaterialRow{
		Path:        path,
		MaterialID:  m.ID,
		Name:        m.Metadata.StandardName,
		DisplayName: m.DisplayName(),
		Checksum:    checksum.Sum(data),
		Areas:       m.Metadata.ApplicationAreas,
		Categories:  m.CategoryNames(),
		UpdatedAt:   time.Now(),
	}, searchBody(m), m.Sources())
}

// searchBody builds the searchable text for a record: names, comment, areas.
func searchBody(m *models.Material) string {
	parts := []string{m.Metadata.StandardName}
	parts = append(parts, m.Metadata.AlternativeNames...)
	parts = append(parts, m.Metadata.Comment)
	parts = append(parts, m.Metadata.ApplicationAreas...)
	var kept []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, "\n")
}
