// Package directory holds the canonical category and city lists of the
// consultant directory, the slug registry built from them, and the pure
// filter reducer used to browse listings.
package directory

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Categories is the canonical, ordered list of business categories.
// Upload validation, landing pages and slugs are all derived from it.
var Categories = []string{
	"Visa Agent",
	"Immigration Consultant",
	"Visa Services",
	"PRO Services",
	"Document Clearing",
	"Attestation Services",
	"Business Setup",
	"Golden Visa Consultant",
	"Travel Agency",
	"Translation Services",
}

// Cities is the canonical, ordered list of supported cities.
var Cities = []string{
	"Dubai",
	"Abu Dhabi",
	"Sharjah",
	"Ajman",
	"Ras Al Khaimah",
	"Fujairah",
	"Umm Al Quwain",
	"Al Ain",
}

// Kind tells which canonical list a name belongs to.
type Kind string

const (
	KindCategory Kind = "category"
	KindCity     Kind = "city"
)

// Entry is one registered name with its slug.
type Entry struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	Kind Kind   `json:"kind"`
}

// Registry maps slugs to canonical names and back. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	bySlug     map[string]Entry
	byName     map[string]Entry
	categories []Entry
	cities     []Entry
}

// NewRegistry builds a registry from category and city lists.
// Returns an error if two names collapse to the same slug.
func NewRegistry(categories, cities []string) (*Registry, error) {
	r := &Registry{
		bySlug: make(map[string]Entry, len(categories)+len(cities)),
		byName: make(map[string]Entry, len(categories)+len(cities)),
	}

	add := func(name string, kind Kind) error {
		slug := Slugify(name)
		if slug == "" {
			return fmt.Errorf("empty slug for %s %q", kind, name)
		}
		if prev, exists := r.bySlug[slug]; exists {
			return fmt.Errorf("slug %q for %s %q collides with %s %q", slug, kind, name, prev.Kind, prev.Name)
		}
		e := Entry{Name: name, Slug: slug, Kind: kind}
		r.bySlug[slug] = e
		r.byName[strings.ToLower(name)] = e
		if kind == KindCategory {
			r.categories = append(r.categories, e)
		} else {
			r.cities = append(r.cities, e)
		}
		return nil
	}

	for _, c := range categories {
		if err := add(c, KindCategory); err != nil {
			return nil, err
		}
	}
	for _, c := range cities {
		if err := add(c, KindCity); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Default returns a registry over the canonical Categories and Cities.
// Panics if the canonical lists collide, which is a programming error.
func Default() *Registry {
	r, err := NewRegistry(Categories, Cities)
	if err != nil {
		panic(err)
	}
	return r
}

// Slugify lowercases s and collapses every run of non-alphanumeric
// characters into a single hyphen, trimming hyphens at both ends.
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	return b.String()
}

// Resolve returns the entry registered under slug.
func (r *Registry) Resolve(slug string) (Entry, bool) {
	e, ok := r.bySlug[strings.ToLower(strings.TrimSpace(slug))]
	return e, ok
}

// Slug returns the slug for a canonical name (case-insensitive).
func (r *Registry) Slug(name string) (string, bool) {
	e, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return e.Slug, ok
}

// CategoryBySlug resolves a category slug to its canonical name.
func (r *Registry) CategoryBySlug(slug string) (string, bool) {
	e, ok := r.Resolve(slug)
	if !ok || e.Kind != KindCategory {
		return "", false
	}
	return e.Name, true
}

// CityBySlug resolves a city slug to its canonical name.
func (r *Registry) CityBySlug(slug string) (string, bool) {
	e, ok := r.Resolve(slug)
	if !ok || e.Kind != KindCity {
		return "", false
	}
	return e.Name, true
}

// CanonicalCategory returns the canonical spelling of a category name.
func (r *Registry) CanonicalCategory(name string) (string, bool) {
	e, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok || e.Kind != KindCategory {
		return "", false
	}
	return e.Name, true
}

// CanonicalCity returns the canonical spelling of a city name.
func (r *Registry) CanonicalCity(name string) (string, bool) {
	e, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok || e.Kind != KindCity {
		return "", false
	}
	return e.Name, true
}

// Categories returns category entries in canonical order.
func (r *Registry) Categories() []Entry {
	return append([]Entry(nil), r.categories...)
}

// Cities returns city entries in canonical order.
func (r *Registry) Cities() []Entry {
	return append([]Entry(nil), r.cities...)
}

// Slugs returns every registered slug, sorted.
func (r *Registry) Slugs() []string {
	slugs := make([]string, 0, len(r.bySlug))
	for s := range r.bySlug {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	return slugs
}
