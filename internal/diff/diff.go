// Package diff produces an auditable list of changes between two material
// record snapshots. It compares the canonical document form recursively and
// treats the three list-bearing entities (strength categories, composition
// sources, elements) as identity-keyed sets, so a reorder or insertion is
// never misreported as a wholesale modification.
package diff

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/starford/uruz/internal/models"
)

// Kind classifies one change entry.
type Kind string

const (
	KindAdded    Kind = "added"
	KindRemoved  Kind = "removed"
	KindModified Kind = "modified"
)

// Entry is one detected change, carrying the full path from the record root
// to the changed node. Identity-qualified segments look like
// "strength_category[КП 100]".
type Entry struct {
	Path []string `json:"path"`
	Kind Kind     `json:"kind"`
	Old  any      `json:"old,omitempty"`
	New  any      `json:"new,omitempty"`
}

// volatileKeys are excluded from comparison at every nesting level: the
// record id never changes meaningfully and timestamps churn on every save.
var volatileKeys = map[string]struct{}{
	"material_id":           {},
	"property_last_updated": {},
}

// listStrategy declares the identity key for one list-bearing entity.
// Lists without a strategy are compared by serialized equality as a whole.
type listStrategy struct {
	path        string // logical document path, identity segments stripped
	identityKey string
}

var listStrategies = []listStrategy{
	{path: "mechanical_properties/strength_category", identityKey: "value_strength_category"},
	{path: "chemical_properties/composition", identityKey: "composition_source"},
	{path: "chemical_properties/composition/other_elements", identityKey: "element"},
}

// Compare diffs two record snapshots and returns a flat, deterministic
// (lexicographically ordered) change list. Identical snapshots yield nil.
func Compare(oldRec, newRec *models.Material) ([]Entry, error) {
	oldDoc, err := toDoc(oldRec)
	if err != nil {
		return nil, err
	}
	newDoc, err := toDoc(newRec)
	if err != nil {
		return nil, err
	}
	return walk(oldDoc, newDoc, nil), nil
}

func toDoc(m *models.Material) (map[string]any, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("diff: marshal record: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("diff: canonical form: %w", err)
	}
	return doc, nil
}

func walk(a, b any, path []string) []Entry {
	switch av := a.(type) {
	case map[string]any:
		if bv, ok := b.(map[string]any); ok {
			return walkMaps(av, bv, path)
		}
	case []any:
		if bv, ok := b.([]any); ok {
			return walkLists(av, bv, path)
		}
	}
	if !equal(a, b) {
		return []Entry{{Path: clonePath(path), Kind: KindModified, Old: a, New: b}}
	}
	return nil
}

func walkMaps(a, b map[string]any, path []string) []Entry {
	keys := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
		seen[k] = struct{}{}
	}
	for k := range b {
		if _, dup := seen[k]; !dup {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var out []Entry
	for _, k := range keys {
		if _, volatile := volatileKeys[k]; volatile {
			continue
		}
		sub := append(path, k)
		av, aOK := a[k]
		bv, bOK := b[k]
		// Explicit null is treated the same as an absent key.
		aOK = aOK && av != nil
		bOK = bOK && bv != nil
		switch {
		case !aOK && bOK:
			out = append(out, Entry{Path: clonePath(sub), Kind: KindAdded, New: bv})
		case aOK && !bOK:
			out = append(out, Entry{Path: clonePath(sub), Kind: KindRemoved, Old: av})
		case aOK && bOK && !equal(av, bv):
			out = append(out, walk(av, bv, sub)...)
		}
	}
	return out
}

func walkLists(a, b []any, path []string) []Entry {
	if key, ok := strategyFor(path); ok && keyedItems(a, key) && keyedItems(b, key) {
		return walkKeyedList(a, b, key, path)
	}
	if !equal(a, b) {
		return []Entry{{Path: clonePath(path), Kind: KindModified, Old: a, New: b}}
	}
	return nil
}

// walkKeyedList matches list items by identity value. Items only in the old
// set are removed, only in the new set are added; present in both but unequal
// are recursed into under a "<field>[<identity>]" path segment.
func walkKeyedList(a, b []any, identityKey string, path []string) []Entry {
	oldByID := itemsByID(a, identityKey)
	newByID := itemsByID(b, identityKey)

	ids := make([]string, 0, len(oldByID)+len(newByID))
	seen := make(map[string]struct{}, len(oldByID)+len(newByID))
	for id := range oldByID {
		ids = append(ids, id)
		seen[id] = struct{}{}
	}
	for id := range newByID {
		if _, dup := seen[id]; !dup {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	field := path[len(path)-1]
	var out []Entry
	for _, id := range ids {
		sub := append(path, fmt.Sprintf("%s[%s]", field, id))
		oldItem, inOld := oldByID[id]
		newItem, inNew := newByID[id]
		switch {
		case !inOld:
			out = append(out, Entry{Path: clonePath(sub), Kind: KindAdded, New: newItem})
		case !inNew:
			out = append(out, Entry{Path: clonePath(sub), Kind: KindRemoved, Old: oldItem})
		case !equal(oldItem, newItem):
			out = append(out, walk(oldItem, newItem, sub)...)
		}
	}
	return out
}

func itemsByID(list []any, identityKey string) map[string]any {
	out := make(map[string]any, len(list))
	for _, item := range list {
		m := item.(map[string]any)
		out[fmt.Sprintf("%v", m[identityKey])] = item
	}
	return out
}

// keyedItems reports whether every list item is an object carrying the
// identity key; anything else falls back to whole-list comparison.
func keyedItems(list []any, identityKey string) bool {
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return false
		}
		if _, ok := m[identityKey]; !ok {
			return false
		}
	}
	return true
}

// strategyFor matches the logical path of a list node against the closed
// strategy set. Identity-qualified segments are reduced to their field name,
// so elements nested under "composition[X]" still match.
func strategyFor(path []string) (identityKey string, ok bool) {
	logical := make([]string, 0, len(path))
	for _, seg := range path {
		if i := strings.IndexByte(seg, '['); i >= 0 {
			continue // qualified segment repeats the field name, skip it
		}
		logical = append(logical, seg)
	}
	joined := strings.Join(logical, "/")
	for _, s := range listStrategies {
		if s.path == joined {
			return s.identityKey, true
		}
	}
	return "", false
}

// equal compares two JSON values by canonical serialization (object keys are
// marshaled in sorted order, so the comparison is order-insensitive for maps
// and order-sensitive for lists).
func equal(a, b any) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

func clonePath(path []string) []string {
	out := make([]string, len(path))
	copy(out, path)
	return out
}
