// Package changelog appends save audits to a plain-text ledger. Each save
// produces one delimited block with the actor, timestamp, material label, and
// the structural change list rendered as an indented tree.
package changelog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/starford/uruz/internal/diff"
)

// DefaultFilename is the ledger written next to the service by default.
const DefaultFilename = "material_changelog.txt"

// Writer appends change blocks to a single ledger file.
type Writer struct {
	path string
}

// New creates a writer targeting the given ledger path.
func New(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the ledger file location.
func (w *Writer) Path() string { return w.path }

// Append writes one block for a save. A save with no detected changes writes
// nothing. The block lists every change under hierarchical headers: each
// distinct path prefix is announced once, the first time it is encountered.
func (w *Writer) Append(materialLabel string, entries []diff.Entry, actor string, ts time.Time) error {
	return w.append(materialLabel, "", entries, actor, ts)
}

// AppendCreation writes the block for a newly created record: the diff against
// the empty template, introduced by a creation note.
func (w *Writer) AppendCreation(materialLabel string, entries []diff.Entry, actor string, ts time.Time) error {
	return w.append(materialLabel, "Created new material with the following data:", entries, actor, ts)
}

func (w *Writer) append(materialLabel, note string, entries []diff.Entry, actor string, ts time.Time) error {
	if len(entries) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(strings.Repeat("=", 80) + "\n")
	fmt.Fprintf(&b, "Time: %s\n", ts.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "User: %s\n", actor)
	fmt.Fprintf(&b, "Material: %s\n", materialLabel)
	b.WriteString("Changes:\n")
	if note != "" {
		fmt.Fprintf(&b, "  %s\n", note)
	}

	printed := make(map[string]struct{})
	for _, e := range entries {
		// Announce parent containers before their children.
		for i := 0; i < len(e.Path)-1; i++ {
			prefix := strings.Join(e.Path[:i+1], "\x00")
			if _, done := printed[prefix]; done {
				continue
			}
			printed[prefix] = struct{}{}
			fmt.Fprintf(&b, "%sChanges in '%s':\n", strings.Repeat("  ", i+1), e.Path[i])
		}

		leaf := e.Path[len(e.Path)-1]
		indent := strings.Repeat("  ", len(e.Path))
		switch e.Kind {
		case diff.KindModified:
			fmt.Fprintf(&b, "%s- '%s': [OLD] '%s' -> [NEW] '%s'\n", indent, leaf, renderValue(e.Old), renderValue(e.New))
		case diff.KindAdded:
			fmt.Fprintf(&b, "%s- '%s': [ADDED] -> '%s'\n", indent, leaf, renderValue(e.New))
		case diff.KindRemoved:
			fmt.Fprintf(&b, "%s- '%s': [REMOVED] (was '%s')\n", indent, leaf, renderValue(e.Old))
		}
	}
	b.WriteString("\n")

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("changelog: open ledger: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("changelog: append: %w", err)
	}
	return nil
}

// renderValue interpolates a change value as text: scalars verbatim,
// containers as compact JSON.
func renderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64, bool:
		return fmt.Sprintf("%v", x)
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprintf("%v", x)
		}
		return string(data)
	}
}
