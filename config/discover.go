package config

import (
	"fmt"
	"sort"
)

// DiscoveredConfigVar describes one config variable referenced by a
// program, as found by walking the program's template/config references
// during discovery (not parsing a .jshc file).
type DiscoveredConfigVar struct {
	Name         string
	DefaultValue string // empty when the reference carries no default
	HasDefault   bool
}

// String renders the discovery line format from §4.9: "name" or
// "name(default)".
func (v DiscoveredConfigVar) String() string {
	if v.HasDefault {
		return fmt.Sprintf("%s(%s)", v.Name, v.DefaultValue)
	}
	return v.Name
}

// Discover returns vars sorted by name, one line per variable, ready for
// the discoverConfig CLI verb to print or serve at /config.
func Discover(vars []DiscoveredConfigVar) []string {
	sorted := append([]DiscoveredConfigVar(nil), vars...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	lines := make([]string, 0, len(sorted))
	for _, v := range sorted {
		lines = append(lines, v.String())
	}
	return lines
}
