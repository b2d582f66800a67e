// Package matservice coordinates the material library: document storage, the
// derived SQLite index, the in-memory catalog, and the changelog ledger. All
// HTTP and MCP surfaces go through this service.
package matservice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/user"
	"sort"
	"strings"
	"time"

	"github.com/starford/uruz/internal/apperr"
	"github.com/starford/uruz/internal/catalog"
	"github.com/starford/uruz/internal/changelog"
	"github.com/starford/uruz/internal/checksum"
	"github.com/starford/uruz/internal/compmatch"
	"github.com/starford/uruz/internal/diff"
	"github.com/starford/uruz/internal/index"
	"github.com/starford/uruz/internal/interp"
	"github.com/starford/uruz/internal/models"
	"github.com/starford/uruz/internal/storage"
	"github.com/starford/uruz/internal/units"
)

// MaterialDetail is the full representation of a material record.
type MaterialDetail struct {
	Path        string           `json:"path"`
	DisplayName string           `json:"display_name"`
	Checksum    string           `json:"checksum"`
	Material    *models.Material `json:"material"`
}

// MaterialListItem is a lightweight item in a list response.
type MaterialListItem struct {
	Path        string    `json:"path"`
	DisplayName string    `json:"display_name"`
	Checksum    string    `json:"checksum"`
	Areas       []string  `json:"areas"`
	Categories  []string  `json:"categories"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValueResult is a resolved property query.
type ValueResult struct {
	Property     string  `json:"property"`
	Temperature  float64 `json:"temperature"`
	Category     string  `json:"category,omitempty"`
	Unit         string  `json:"unit"`
	Value        float64 `json:"value"`
	Display      string  `json:"display"`
	Interpolated bool    `json:"interpolated"`
	NoData       bool    `json:"no_data"`
}

// TableRow is one row of the batch property table. Physical tables produce one
// row per material; mechanical tables one row per (material, strength
// category), with the hardness range rendered alongside. Source aggregates the
// property sources feeding the row; MaxTemp is the material's maximum
// application temperature.
type TableRow struct {
	Path        string            `json:"path"`
	DisplayName string            `json:"display_name"`
	Category    string            `json:"category,omitempty"`
	Source      string            `json:"source"`
	MaxTemp     string            `json:"max_temp"`
	Values      map[string]string `json:"values"`
	Hardness    string            `json:"hardness,omitempty"`
}

// MatchItem is one ranked composition-match result.
type MatchItem struct {
	Path        string           `json:"path"`
	DisplayName string           `json:"display_name"`
	Source      string           `json:"source"`
	SubSource   string           `json:"subsource,omitempty"`
	BaseElement string           `json:"base_element,omitempty"`
	Result      compmatch.Result `json:"result"`
}

// Service coordinates storage, index, catalog, and changelog operations.
type Service struct {
	store        storage.Provider
	db           *index.DB
	catalog      *catalog.Catalog
	ledger       *changelog.Writer
	logger       *slog.Logger
	defaultActor string
}

// NewService creates a material service. defaultActor is used for changelog
// attribution when a request carries no actor; empty falls back to the OS
// username.
func NewService(store storage.Provider, db *index.DB, cat *catalog.Catalog, ledger *changelog.Writer, logger *slog.Logger, defaultActor string) *Service {
	if defaultActor == "" {
		defaultActor = osUsername()
	}
	return &Service{
		store:        store,
		db:           db,
		catalog:      cat,
		ledger:       ledger,
		logger:       logger,
		defaultActor: defaultActor,
	}
}

func osUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}

// ResolveActor picks the changelog attribution: the request-supplied actor
// when present, the configured/OS default otherwise.
func (s *Service) ResolveActor(actor string) string {
	if actor != "" {
		return actor
	}
	return s.defaultActor
}

// GetMaterial returns the stored record at path as an editable deep copy.
func (s *Service) GetMaterial(_ context.Context, path string) (*MaterialDetail, error) {
	rec, ok := s.catalog.Get(path)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	m, err := s.catalog.Checkout(path)
	if err != nil {
		return nil, err
	}
	return &MaterialDetail{
		Path:        rec.Path,
		DisplayName: rec.Material.DisplayName(),
		Checksum:    rec.Checksum,
		Material:    m,
	}, nil
}

// NewTemplate returns an unsaved empty record with a fresh id.
func (s *Service) NewTemplate(_ context.Context) *models.Material {
	return models.New()
}

// CreateMaterial validates and persists a new record, indexes it, and reloads
// the catalog. Creation is audited as the diff against the empty template; a
// ledger write failure is logged and never blocks the save.
func (s *Service) CreateMaterial(_ context.Context, path string, m *models.Material, actor string) (*MaterialDetail, error) {
	if m == nil {
		m = models.New()
	}
	if m.ID == "" {
		m.ID = models.New().ID
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Join(apperr.ErrInvalidRecord, err)
	}
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	m.Normalize()

	changes, err := diff.Compare(models.New(), m)
	if err != nil {
		s.logger.Warn("service: diff failed",
			slog.String("path", path), slog.String("error", err.Error()))
	} else if err := s.ledger.AppendCreation(m.Name(), changes, s.ResolveActor(actor), time.Now()); err != nil {
		s.logger.Warn("service: changelog append failed",
			slog.String("path", path), slog.String("error", err.Error()))
	}

	data, err := m.Encode()
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(path, data); err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, path, data); err != nil {
		s.logger.Warn("service: index after create failed",
			slog.String("path", path), slog.String("error", err.Error()))
	}
	s.reloadCatalog()

	return &MaterialDetail{
		Path:        path,
		DisplayName: m.DisplayName(),
		Checksum:    checksum.Sum(data),
		Material:    m,
	}, nil
}

// UpdateMaterial commits an edited record with optimistic concurrency: ifMatch
// (when set) must equal the stored document's checksum. The structural diff
// against the stored record is appended to the changelog; a ledger write
// failure is logged and never blocks the save.
func (s *Service) UpdateMaterial(_ context.Context, path string, m *models.Material, ifMatch, actor string) (*MaterialDetail, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	old, err := models.Decode(existing)
	if err != nil {
		// The stored document is unreadable; allow the save to repair it.
		old = models.New()
		old.ID = m.ID
	}

	if err := m.Validate(); err != nil {
		return nil, errors.Join(apperr.ErrInvalidRecord, err)
	}
	m.Normalize()
	now := time.Now()
	m.TouchUpdated(now)

	changes, err := diff.Compare(old, m)
	if err != nil {
		s.logger.Warn("service: diff failed",
			slog.String("path", path), slog.String("error", err.Error()))
	} else if err := s.ledger.Append(m.Name(), changes, s.ResolveActor(actor), now); err != nil {
		s.logger.Warn("service: changelog append failed",
			slog.String("path", path), slog.String("error", err.Error()))
	}

	data, err := m.Encode()
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(path, data); err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, path, data); err != nil {
		s.logger.Warn("service: index after update failed",
			slog.String("path", path), slog.String("error", err.Error()))
	}
	s.reloadCatalog()

	return &MaterialDetail{
		Path:        path,
		DisplayName: m.DisplayName(),
		Checksum:    checksum.Sum(data),
		Material:    m,
	}, nil
}

// DeleteMaterial removes a record from storage, index, and catalog.
func (s *Service) DeleteMaterial(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	if err := s.db.DeleteMaterial(path); err != nil {
		return err
	}
	s.reloadCatalog()
	return nil
}

// ListMaterials returns paginated records with optional area filter.
func (s *Service) ListMaterials(_ context.Context, limit, offset int, area, sort string) ([]MaterialListItem, int, error) {
	rows, total, err := s.db.ListMaterials(limit, offset, area, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]MaterialListItem, len(rows))
	for i, r := range rows {
		items[i] = MaterialListItem{
			Path:        r.Path,
			DisplayName: r.DisplayName,
			Checksum:    r.Checksum,
			Areas:       nonNilSlice(r.Areas),
			Categories:  nonNilSlice(r.Categories),
			UpdatedAt:   r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Sources returns the aggregated source-name set across the library.
func (s *Service) Sources(_ context.Context) ([]string, error) {
	return s.db.Sources()
}

// MaterialsUsingSource returns the record paths citing a source.
func (s *Service) MaterialsUsingSource(_ context.Context, source string) ([]string, error) {
	return s.db.MaterialsUsingSource(source)
}

// Areas returns the derived application-area set.
func (s *Service) Areas(_ context.Context) []string {
	return s.catalog.Areas()
}

// ValueAt resolves one property of one record at a temperature. category
// selects the strength category for mechanical properties; unit requests a
// display conversion away from the property's native unit.
func (s *Service) ValueAt(_ context.Context, path, propKey, category string, temp float64, unit string) (*ValueResult, error) {
	rec, ok := s.catalog.Get(path)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	info, known := models.AllProperties[propKey]
	if !known {
		return nil, apperr.ErrInvalidRecord
	}

	out := &ValueResult{
		Property:    propKey,
		Temperature: temp,
		Category:    category,
		Unit:        info.Unit,
	}

	series, found := rec.Material.SeriesFor(propKey, category)
	res := interp.NoData
	if found {
		res = interp.ValueAt(series, temp)
	}
	v, valid := res.Value()
	if !valid {
		out.NoData = true
		out.Display = interp.NoDataText
		return out, nil
	}

	out.Interpolated = res.Interpolated()
	out.Value = v
	out.Display = res.String()
	if unit != "" && unit != info.Unit {
		if cv, converted := units.ConvertProperty(v, propKey, unit); converted {
			out.Unit = unit
			out.Value = cv
			out.Display = interp.Interpolated(cv).String()
		}
	}
	return out, nil
}

// Table answers a batch query at one temperature across the library:
// propType "physical" yields one row per record over the physical keys;
// "mechanical" yields one row per (record, strength category) over the
// mechanical keys plus the hardness range; "hardness" yields the per-category
// hardness ranges alone, ignoring temp. area optionally filters records.
func (s *Service) Table(_ context.Context, propType string, temp float64, area string) ([]TableRow, error) {
	var keys []string
	perCategory := false
	switch propType {
	case "physical":
		for k := range models.PhysicalProperties {
			keys = append(keys, k)
		}
	case "mechanical":
		perCategory = true
		for k := range models.MechanicalProperties {
			keys = append(keys, k)
		}
	case "hardness":
		perCategory = true
	default:
		return nil, apperr.ErrInvalidRecord
	}

	var rows []TableRow
	for _, rec := range s.catalog.FilterByArea(area) {
		m := rec.Material
		maxTemp := maxAppTemp(m)
		if !perCategory {
			values := make(map[string]string, len(keys))
			set := make(map[string]struct{})
			for _, k := range keys {
				values[k] = interp.ValueAt(m.Physical[k], temp).String()
				if ser := m.Physical[k]; ser != nil && ser.Source != "" {
					set[ser.Source] = struct{}{}
				}
			}
			rows = append(rows, TableRow{
				Path:        rec.Path,
				DisplayName: m.DisplayName(),
				Source:      joinSources(set),
				MaxTemp:     maxTemp,
				Values:      values,
			})
			continue
		}
		for _, cat := range m.Mechanical.StrengthCategories {
			values := make(map[string]string, len(keys))
			set := make(map[string]struct{})
			for _, k := range keys {
				series, _ := cat.Series(k)
				values[k] = interp.ValueAt(series, temp).String()
				if series != nil && series.Source != "" {
					set[series.Source] = struct{}{}
				}
			}
			src := joinSources(set)
			if propType == "hardness" {
				src = hardnessSource(cat.Hardness)
			}
			rows = append(rows, TableRow{
				Path:        rec.Path,
				DisplayName: m.DisplayName(),
				Category:    cat.Name,
				Source:      src,
				MaxTemp:     maxTemp,
				Values:      values,
				Hardness:    hardnessRange(cat.Hardness),
			})
		}
	}
	return rows, nil
}

// maxAppTemp renders metadata.temperature_application.value, "-" when unset.
func maxAppTemp(m *models.Material) string {
	if t := m.Metadata.TemperatureLimit; t != nil && t.Value != nil {
		return interp.Exact(*t.Value).String()
	}
	return interp.NoDataText
}

// joinSources renders a source-name set sorted and comma-joined.
func joinSources(set map[string]struct{}) string {
	if len(set) == 0 {
		return interp.NoDataText
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}

// hardnessSource renders the first hardness entry's provenance as
// "source (subsource)".
func hardnessSource(entries []models.HardnessEntry) string {
	if len(entries) == 0 {
		return interp.NoDataText
	}
	src := entries[0].Source
	if sub := entries[0].SubSource; sub != "" {
		src += " (" + sub + ")"
	}
	if src == "" {
		return interp.NoDataText
	}
	return src
}

// hardnessRange renders the first hardness entry of a category as "min - max".
func hardnessRange(entries []models.HardnessEntry) string {
	if len(entries) == 0 {
		return interp.NoDataText
	}
	h := entries[0]
	switch {
	case h.MinValue != nil && h.MaxValue != nil:
		return interp.Exact(*h.MinValue).String() + " - " + interp.Exact(*h.MaxValue).String()
	case h.MinValue != nil:
		return "≥ " + interp.Exact(*h.MinValue).String()
	case h.MaxValue != nil:
		return "≤ " + interp.Exact(*h.MaxValue).String()
	default:
		return interp.NoDataText
	}
}

// MatchComposition scores every composition source in the library against the
// target element percentages and returns results ranked full-matches-first.
// area optionally restricts the records considered.
func (s *Service) MatchComposition(_ context.Context, targets map[string]float64, area string) ([]MatchItem, error) {
	if len(targets) == 0 {
		return []MatchItem{}, nil
	}

	type origin struct {
		path    string
		display string
	}
	var scored []compmatch.Scored
	origins := make(map[*models.CompositionSource]origin)
	for _, rec := range s.catalog.FilterByArea(area) {
		for _, src := range rec.Material.Chemical.Composition {
			scored = append(scored, compmatch.Scored{
				Source: src,
				Result: compmatch.Score(src, targets),
			})
			origins[src] = origin{path: rec.Path, display: rec.Material.DisplayName()}
		}
	}
	compmatch.Rank(scored)

	out := make([]MatchItem, len(scored))
	for i, sc := range scored {
		o := origins[sc.Source]
		out[i] = MatchItem{
			Path:        o.path,
			DisplayName: o.display,
			Source:      sc.Source.Source,
			SubSource:   sc.Source.SubSource,
			BaseElement: sc.Source.BaseElement,
			Result:      sc.Result,
		}
	}
	return out, nil
}

// reloadCatalog refreshes the in-memory view after a successful mutation.
func (s *Service) reloadCatalog() {
	if failures := s.catalog.Reload(); len(failures) > 0 {
		s.logger.Warn("service: catalog reload reported failures",
			slog.Int("count", len(failures)))
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
