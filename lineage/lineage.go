// Package lineage resolves hierarchical pango-lineage names. Aliases map a
// leading label to a canonical dotted prefix; the sub-lineage relation is
// the prefix relation on canonical labels along dot boundaries.
package lineage

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// AliasLookup maps lineage aliases to their canonical prefixes.
type AliasLookup struct {
	aliases map[string]string
}

// NewAliasLookup creates a lookup from an alias table.
func NewAliasLookup(aliases map[string]string) *AliasLookup {
	if aliases == nil {
		aliases = map[string]string{}
	}
	return &AliasLookup{aliases: aliases}
}

// ReadAliasFile loads an alias table from a JSON file mapping alias to
// canonical prefix. Entries with empty or array values (recombinants in the
// upstream alias key) are ignored.
func ReadAliasFile(path string) (*AliasLookup, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pango alias file: %w", err)
	}
	var entries map[string]any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parsing pango alias file %s: %w", path, err)
	}
	aliases := make(map[string]string, len(entries))
	for alias, value := range entries {
		if s, ok := value.(string); ok && s != "" {
			aliases[alias] = s
		}
	}
	return NewAliasLookup(aliases), nil
}

// Aliases returns the underlying alias table, read-only. Used when
// persisting a snapshot.
func (a *AliasLookup) Aliases() map[string]string { return a.aliases }

// Resolve replaces an aliased leading label with its canonical prefix.
// Unknown leading labels pass through unchanged.
func (a *AliasLookup) Resolve(lineage string) string {
	if lineage == "" {
		return lineage
	}
	head, tail, found := strings.Cut(lineage, ".")
	canonical, ok := a.aliases[head]
	if !ok {
		return lineage
	}
	if !found {
		return canonical
	}
	return canonical + "." + tail
}

// IsSublineageOf reports whether candidate's canonical label extends
// ancestor's canonical label on a dot boundary (or equals it).
func IsSublineageOf(ancestor, candidate string) bool {
	if candidate == ancestor {
		return true
	}
	return strings.HasPrefix(candidate, ancestor+".")
}
