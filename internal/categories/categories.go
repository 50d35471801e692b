// Package categories holds the fixed, ordered list of site sections that a crawl walks.
package categories

import (
	"strings"

	"github.com/mayaoy/fun-news-crawler/internal/domain"
)

// Directory is an ordered, read-only set of categories. Iteration follows definition order.
type Directory struct {
	entries []domain.Category
	idx     map[string]int
}

// New builds a directory from entries, keeping their order. Later duplicates of a name are ignored.
func New(entries ...domain.Category) *Directory {
	d := &Directory{
		entries: make([]domain.Category, 0, len(entries)),
		idx:     make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		if _, dup := d.idx[name]; dup {
			continue
		}
		e.Name = name
		d.idx[name] = len(d.entries)
		d.entries = append(d.entries, e)
	}
	return d
}

// Default returns the 8 main sections followed by the 12 news sub-sections.
func Default() *Directory {
	return New(defaultEntries()...)
}

func defaultEntries() []domain.Category {
	return []domain.Category{
		{Name: "Home", URLPath: "/", Type: domain.CategoryMain},
		{Name: "News", URLPath: "/news", Type: domain.CategoryMain},
		{Name: "Sport", URLPath: "/sport", Type: domain.CategoryMain},
		{Name: "Business", URLPath: "/business", Type: domain.CategoryMain},
		{Name: "Innovation", URLPath: "/innovation", Type: domain.CategoryMain},
		{Name: "Culture", URLPath: "/culture", Type: domain.CategoryMain},
		{Name: "Travel", URLPath: "/travel", Type: domain.CategoryMain},
		{Name: "Earth", URLPath: "/future-planet", Type: domain.CategoryMain},

		{Name: "Israel-Gaza War", URLPath: "/news/topics/c2vdnvdg6xxt", Type: domain.CategoryNews},
		{Name: "War in Ukraine", URLPath: "/news/war-in-ukraine", Type: domain.CategoryNews},
		{Name: "US & Canada", URLPath: "/news/us-canada", Type: domain.CategoryNews},
		{Name: "UK", URLPath: "/news/uk", Type: domain.CategoryNews},
		{Name: "Africa", URLPath: "/news/world/africa", Type: domain.CategoryNews},
		{Name: "Asia", URLPath: "/news/world/asia", Type: domain.CategoryNews},
		{Name: "Australia", URLPath: "/news/world/australia", Type: domain.CategoryNews},
		{Name: "Europe", URLPath: "/news/world/europe", Type: domain.CategoryNews},
		{Name: "Latin America", URLPath: "/news/world/latin_america", Type: domain.CategoryNews},
		{Name: "Middle East", URLPath: "/news/world/middle_east", Type: domain.CategoryNews},
		{Name: "BBC InDepth", URLPath: "/news/bbcindepth", Type: domain.CategoryNews},
		{Name: "BBC Verify", URLPath: "/news/bbcverify", Type: domain.CategoryNews},
	}
}

// All returns a copy of the entries in definition order.
func (d *Directory) All() []domain.Category {
	out := make([]domain.Category, len(d.entries))
	copy(out, d.entries)
	return out
}

// Names returns category names in definition order.
func (d *Directory) Names() []string {
	out := make([]string, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.Name
	}
	return out
}

// Len reports the number of categories.
func (d *Directory) Len() int { return len(d.entries) }

// Lookup finds a category by exact name.
func (d *Directory) Lookup(name string) (domain.Category, bool) {
	i, ok := d.idx[strings.TrimSpace(name)]
	if !ok {
		return domain.Category{}, false
	}
	return d.entries[i], true
}

// URLFor resolves the page URL of the named category against origin.
// The root path maps to the bare origin.
func (d *Directory) URLFor(origin, name string) (string, bool) {
	c, ok := d.Lookup(name)
	if !ok {
		return "", false
	}
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if c.URLPath == "" || c.URLPath == "/" {
		return origin, true
	}
	return origin + "/" + strings.TrimLeft(c.URLPath, "/"), true
}
