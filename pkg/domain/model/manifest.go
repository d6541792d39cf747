package model

// PackageEntry is one package line of a toolchain manifest
type PackageEntry struct {
	Name    string // Package name, unique within a Manifest
	Version string // Opaque version string, compared only for equality
	Extra   string // Optional parenthesised trailer, e.g. "(with POSIX threads)"
	Line    string // Trimmed source line
}

// Manifest maps package names to entries.
//
// Keys keep the position of their first occurrence while the stored entry is
// the last one written (last-write-wins). Both behaviours are relied upon by
// the changelog output.
type Manifest struct {
	order   []string
	entries map[string]PackageEntry
}

// NewManifest returns an empty manifest
func NewManifest() *Manifest {
	return &Manifest{entries: make(map[string]PackageEntry)}
}

// Set stores entry under entry.Name. A repeated name overwrites the value
// but keeps its original position.
func (m *Manifest) Set(entry PackageEntry) {
	if m.entries == nil {
		m.entries = make(map[string]PackageEntry)
	}
	if _, ok := m.entries[entry.Name]; !ok {
		m.order = append(m.order, entry.Name)
	}
	m.entries[entry.Name] = entry
}

// Get returns the entry for name
func (m *Manifest) Get(name string) (PackageEntry, bool) {
	if m == nil {
		return PackageEntry{}, false
	}
	e, ok := m.entries[name]
	return e, ok
}

// Has reports whether name is present
func (m *Manifest) Has(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// Version returns the version stored for name, or "" when absent
func (m *Manifest) Version(name string) string {
	e, _ := m.Get(name)
	return e.Version
}

// Len returns the number of distinct packages
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Names returns package names in first-occurrence order
func (m *Manifest) Names() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.order...)
}

// Entries returns entries in first-occurrence order
func (m *Manifest) Entries() []PackageEntry {
	if m == nil {
		return nil
	}
	out := make([]PackageEntry, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.entries[name])
	}
	return out
}

// Versions returns a plain name -> version map
func (m *Manifest) Versions() map[string]string {
	out := make(map[string]string, m.Len())
	for _, e := range m.Entries() {
		out[e.Name] = e.Version
	}
	return out
}
