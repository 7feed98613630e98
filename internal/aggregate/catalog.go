// Package aggregate folds the properties files of every module into groups keyed by
// locale, file name and key.
package aggregate

import (
	"github.com/freewebtopdf/propmerge/internal/domain"
	"github.com/freewebtopdf/propmerge/internal/properties"
)

// Catalog is the result of one aggregation pass. It owns the parsed source
// documents so that keys can be removed in memory and each file flushed once.
type Catalog struct {
	groups  map[domain.GroupKey]*domain.PropertyGroup
	order   []domain.GroupKey
	outputs []domain.OutputKey
	seenOut map[domain.OutputKey]struct{}
	sources map[string]*properties.Document
	paths   []string
	modules []string
	seenMod map[string]struct{}
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		groups:  make(map[domain.GroupKey]*domain.PropertyGroup),
		seenOut: make(map[domain.OutputKey]struct{}),
		sources: make(map[string]*properties.Document),
		seenMod: make(map[string]struct{}),
	}
}

// AddSource registers a parsed document and folds its entries into the groups
func (c *Catalog) AddSource(module, locale, fileName, path string, doc *properties.Document) {
	if _, exists := c.sources[path]; !exists {
		c.paths = append(c.paths, path)
	}
	c.sources[path] = doc

	if _, ok := c.seenMod[module]; !ok {
		c.seenMod[module] = struct{}{}
		c.modules = append(c.modules, module)
	}

	for _, e := range doc.Entries() {
		c.Add(locale, fileName, domain.PropertyEntry{
			Key:        e.Key,
			Value:      e.Value,
			Module:     module,
			SourcePath: path,
		})
	}
}

// Add appends one contribution to the group of (locale, fileName, entry.Key)
func (c *Catalog) Add(locale, fileName string, entry domain.PropertyEntry) {
	key := domain.GroupKey{Locale: locale, FileName: fileName, Key: entry.Key}

	group, ok := c.groups[key]
	if !ok {
		group = &domain.PropertyGroup{GroupKey: key}
		c.groups[key] = group
		c.order = append(c.order, key)

		out := key.Output()
		if _, seen := c.seenOut[out]; !seen {
			c.seenOut[out] = struct{}{}
			c.outputs = append(c.outputs, out)
		}
	}
	group.Entries = append(group.Entries, entry)
}

// Groups returns every group in first-seen order
func (c *Catalog) Groups() []*domain.PropertyGroup {
	groups := make([]*domain.PropertyGroup, 0, len(c.order))
	for _, k := range c.order {
		groups = append(groups, c.groups[k])
	}
	return groups
}

// Group returns the group for key
func (c *Catalog) Group(key domain.GroupKey) (*domain.PropertyGroup, bool) {
	g, ok := c.groups[key]
	return g, ok
}

// Len returns the number of groups
func (c *Catalog) Len() int {
	return len(c.order)
}

// Outputs returns the (locale, file) pairs in first-seen order
func (c *Catalog) Outputs() []domain.OutputKey {
	out := make([]domain.OutputKey, len(c.outputs))
	copy(out, c.outputs)
	return out
}

// Modules returns the contributing modules in first-seen order
func (c *Catalog) Modules() []string {
	mods := make([]string, len(c.modules))
	copy(mods, c.modules)
	return mods
}

// Source returns the parsed document loaded from path
func (c *Catalog) Source(path string) (*properties.Document, bool) {
	doc, ok := c.sources[path]
	return doc, ok
}

// SourcePaths returns the paths of every loaded document in load order
func (c *Catalog) SourcePaths() []string {
	paths := make([]string, len(c.paths))
	copy(paths, c.paths)
	return paths
}

// RemoveFromSource drops key from the document loaded from path.
// It reports whether the document held the key.
func (c *Catalog) RemoveFromSource(path, key string) bool {
	doc, ok := c.sources[path]
	if !ok {
		return false
	}
	return doc.Remove(key)
}
