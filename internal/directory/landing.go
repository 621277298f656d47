package directory

import "strings"

// landingSeparator joins the category and city slugs of a landing page.
const landingSeparator = "-in-"

// LandingPage is one SEO landing page generated from a category x city pair.
type LandingPage struct {
	Slug     string `json:"slug"`
	Category string `json:"category"`
	City     string `json:"city"`
	Title    string `json:"title"`
}

// LandingPages returns every category x city combination, categories outer,
// cities inner, both in canonical order.
func (r *Registry) LandingPages() []LandingPage {
	pages := make([]LandingPage, 0, len(r.categories)*len(r.cities))
	for _, cat := range r.categories {
		for _, city := range r.cities {
			pages = append(pages, LandingPage{
				Slug:     cat.Slug + landingSeparator + city.Slug,
				Category: cat.Name,
				City:     city.Name,
				Title:    cat.Name + " in " + city.Name,
			})
		}
	}
	return pages
}

// ParseLanding resolves a landing slug such as "visa-agent-in-dubai" back to
// its category and city. City slugs are matched as suffixes so categories
// containing "-in-" still resolve.
func (r *Registry) ParseLanding(slug string) (LandingPage, bool) {
	slug = strings.ToLower(strings.TrimSpace(slug))

	for _, city := range r.cities {
		suffix := landingSeparator + city.Slug
		if !strings.HasSuffix(slug, suffix) {
			continue
		}
		category, ok := r.CategoryBySlug(strings.TrimSuffix(slug, suffix))
		if !ok {
			continue
		}
		return LandingPage{
			Slug:     slug,
			Category: category,
			City:     city.Name,
			Title:    category + " in " + city.Name,
		}, true
	}

	return LandingPage{}, false
}
