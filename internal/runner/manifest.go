package runner

import (
	"fmt"
	"strings"
)

// Manifest is a typed model of the airframe CMakeLists fragment the
// in-container build system reads to discover custom models. The file format
// is positional: the final two lines of the template are a fixed footer, and
// every new entry goes immediately before them.
type Manifest struct {
	head    []string
	entries []string
	foot    []string
}

// ParseManifest splits template data into head, entries (none yet) and the
// two-line footer.
func ParseManifest(data []byte) (*Manifest, error) {
	text := strings.TrimRight(string(data), "\n")
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("manifest template too short: %d lines", len(lines))
	}
	cut := len(lines) - 2
	return &Manifest{
		head: append([]string(nil), lines[:cut]...),
		foot: append([]string(nil), lines[cut:]...),
	}, nil
}

// Append queues an airframe entry; it renders tab-indented before the footer.
func (m *Manifest) Append(name string) {
	m.entries = append(m.entries, name)
}

// Entries returns the queued airframe names in insertion order.
func (m *Manifest) Entries() []string {
	return append([]string(nil), m.entries...)
}

// Render serializes the manifest with a trailing newline.
func (m *Manifest) Render() []byte {
	lines := make([]string, 0, len(m.head)+len(m.entries)+len(m.foot))
	lines = append(lines, m.head...)
	for _, entry := range m.entries {
		lines = append(lines, "\t"+entry)
	}
	lines = append(lines, m.foot...)
	return []byte(strings.Join(lines, "\n") + "\n")
}
