// Package catalog holds the in-memory view of one material library: every
// record parsed from its JSON document, sorted for display, with the derived
// set of application areas. The catalog is the single source of truth for
// "what is saved"; edits happen on checked-out deep copies and a successful
// save triggers a full reload rather than an incremental patch.
package catalog

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/starford/uruz/internal/apperr"
	"github.com/starford/uruz/internal/checksum"
	"github.com/starford/uruz/internal/models"
	"github.com/starford/uruz/internal/storage"
)

// Record is one loaded material with its document identity.
type Record struct {
	Path     string
	Checksum string
	Material *models.Material
}

// LoadError is a per-file load diagnostic. Catalog load is partial-success:
// a malformed document is skipped and reported, never fatal for the library.
type LoadError struct {
	Path string
	Err  error
}

func (e LoadError) Error() string {
	return fmt.Sprintf("catalog: load %s: %v", e.Path, e.Err)
}

// Catalog owns the loaded records exclusively. Callers never receive a
// mutable reference to a stored material; Checkout hands out deep copies.
type Catalog struct {
	store  storage.Provider
	logger *slog.Logger

	mu      sync.RWMutex
	records map[string]*Record
	order   []string // record paths in display-name order
	areas   []string
}

// New creates an empty catalog over the given library store.
func New(store storage.Provider, logger *slog.Logger) *Catalog {
	return &Catalog{
		store:   store,
		logger:  logger,
		records: make(map[string]*Record),
	}
}

// Reload re-reads every document in the library. Files that fail to read or
// parse are skipped and returned as diagnostics; the rest of the library
// loads normally.
func (c *Catalog) Reload() []LoadError {
	infos, err := c.store.List("")
	if err != nil {
		return []LoadError{{Path: "", Err: err}}
	}

	records := make(map[string]*Record, len(infos))
	var failures []LoadError
	for _, info := range infos {
		data, err := c.store.Read(info.Path)
		if err != nil {
			failures = append(failures, LoadError{Path: info.Path, Err: err})
			continue
		}
		m, err := models.Decode(data)
		if err != nil {
			failures = append(failures, LoadError{Path: info.Path, Err: err})
			continue
		}
		records[info.Path] = &Record{
			Path:     info.Path,
			Checksum: checksum.Sum(data),
			Material: m,
		}
	}

	order := make([]string, 0, len(records))
	for p := range records {
		order = append(order, p)
	}
	sort.Slice(order, func(i, j int) bool {
		a := records[order[i]].Material.DisplayName()
		b := records[order[j]].Material.DisplayName()
		if a != b {
			return a < b
		}
		return order[i] < order[j]
	})

	c.mu.Lock()
	c.records = records
	c.order = order
	c.areas = deriveAreas(records)
	c.mu.Unlock()

	for _, f := range failures {
		c.logger.Warn("catalog: skipped document",
			slog.String("path", f.Path), slog.String("error", f.Err.Error()))
	}
	c.logger.Info("catalog: loaded",
		slog.Int("records", len(records)), slog.Int("skipped", len(failures)))
	return failures
}

// deriveAreas collects the sorted set of unique application areas.
func deriveAreas(records map[string]*Record) []string {
	set := make(map[string]struct{})
	for _, r := range records {
		for _, a := range r.Material.Metadata.ApplicationAreas {
			if t := strings.TrimSpace(a); t != "" {
				set[t] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of loaded records.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Records returns the loaded records in display-name order. The returned
// slice is owned by the caller; the records themselves are read-only.
func (c *Catalog) Records() []*Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Record, 0, len(c.order))
	for _, p := range c.order {
		out = append(out, c.records[p])
	}
	return out
}

// Get returns the stored record at path, if loaded.
func (c *Catalog) Get(path string) (*Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.records[path]
	return r, ok
}

// Checkout returns an independent deep copy of the record for editing.
// The catalog's copy is never handed out mutable.
func (c *Catalog) Checkout(path string) (*models.Material, error) {
	c.mu.RLock()
	r, ok := c.records[path]
	c.mu.RUnlock()
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := r.Material.Copy()
	if cp == nil {
		return nil, fmt.Errorf("catalog: copy record %s", path)
	}
	return cp, nil
}

// Areas returns the derived, sorted application-area set.
func (c *Catalog) Areas() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.areas))
	copy(out, c.areas)
	return out
}

// FilterByArea returns records tagged with the given application area, or
// every record when area is empty.
func (c *Catalog) FilterByArea(area string) []*Record {
	if area == "" {
		return c.Records()
	}
	var out []*Record
	for _, r := range c.Records() {
		for _, a := range r.Material.Metadata.ApplicationAreas {
			if a == area {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
