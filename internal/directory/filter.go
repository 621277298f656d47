package directory

// filter.go is the browse reducer: a single Filters record applied to a
// listing slice by one pure function. The input slice is never modified.

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Listing is a business record as returned by the business API for browsing.
type Listing struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	City        string    `json:"city"`
	Description string    `json:"description"`
	Services    []string  `json:"services"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"review_count"`
	Verified    bool      `json:"is_verified"`
	Location    Location  `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
}

// Location is a listing coordinate as carried on the wire, nested under
// "location" in both create and list payloads.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SortKey selects the ordering applied after filtering.
type SortKey string

const (
	SortRelevance SortKey = "relevance"
	SortRating    SortKey = "rating"
	SortReviews   SortKey = "reviews"
	SortName      SortKey = "name"
	SortNewest    SortKey = "newest"
	SortDistance  SortKey = "distance"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point converts l for distance calculations.
func (l Location) Point() Point {
	return Point{Lat: l.Latitude, Lng: l.Longitude}
}

// Filters is the complete browse state. Zero values mean "no constraint".
type Filters struct {
	Query        string   `json:"query,omitempty"`
	Category     string   `json:"category,omitempty"`
	City         string   `json:"city,omitempty"`
	MinRating    float64  `json:"min_rating,omitempty"`
	VerifiedOnly bool     `json:"verified_only,omitempty"`
	Services     []string `json:"services,omitempty"`
	Sort         SortKey  `json:"sort,omitempty"`
	Near         *Point   `json:"near,omitempty"`
}

// ApplyFilters returns the listings matching f, ordered by f.Sort.
// Relevance keeps the input order. Distance sorting without Near keeps the
// input order as well.
func ApplyFilters(listings []Listing, f Filters) []Listing {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if f.Category != "" && !strings.EqualFold(l.Category, f.Category) {
			continue
		}
		if f.City != "" && !strings.EqualFold(l.City, f.City) {
			continue
		}
		if l.Rating < f.MinRating {
			continue
		}
		if f.VerifiedOnly && !l.Verified {
			continue
		}
		if !hasServices(l, f.Services) {
			continue
		}
		if query != "" && !matchesQuery(l, query) {
			continue
		}
		out = append(out, l)
	}

	sortListings(out, f)
	return out
}

func matchesQuery(l Listing, query string) bool {
	if strings.Contains(strings.ToLower(l.Name), query) ||
		strings.Contains(strings.ToLower(l.Description), query) ||
		strings.Contains(strings.ToLower(l.Category), query) {
		return true
	}
	for _, s := range l.Services {
		if strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}
	return false
}

// hasServices reports whether l offers every wanted service (case-insensitive).
func hasServices(l Listing, wanted []string) bool {
	for _, w := range wanted {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		found := false
		for _, s := range l.Services {
			if strings.EqualFold(strings.TrimSpace(s), w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortListings(ls []Listing, f Filters) {
	switch f.Sort {
	case SortRating:
		sort.SliceStable(ls, func(i, j int) bool {
			if ls[i].Rating != ls[j].Rating {
				return ls[i].Rating > ls[j].Rating
			}
			return ls[i].ReviewCount > ls[j].ReviewCount
		})
	case SortReviews:
		sort.SliceStable(ls, func(i, j int) bool { return ls[i].ReviewCount > ls[j].ReviewCount })
	case SortName:
		sort.SliceStable(ls, func(i, j int) bool {
			return strings.ToLower(ls[i].Name) < strings.ToLower(ls[j].Name)
		})
	case SortNewest:
		sort.SliceStable(ls, func(i, j int) bool { return ls[i].CreatedAt.After(ls[j].CreatedAt) })
	case SortDistance:
		if f.Near == nil {
			return
		}
		p := *f.Near
		sort.SliceStable(ls, func(i, j int) bool {
			return DistanceKm(p, ls[i].Location.Point()) <
				DistanceKm(p, ls[j].Location.Point())
		})
	}
}

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between a and b.
func DistanceKm(a, b Point) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }

	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// FiltersFromQuery builds Filters from URL query parameters:
// q, category, city, min_rating, verified, services (comma-separated),
// sort, lat, lng. Category and city accept either names or slugs when a
// registry is given. Malformed numbers are ignored.
func FiltersFromQuery(v url.Values, reg *Registry) Filters {
	f := Filters{
		Query:    strings.TrimSpace(v.Get("q")),
		Category: strings.TrimSpace(v.Get("category")),
		City:     strings.TrimSpace(v.Get("city")),
		Sort:     SortKey(strings.ToLower(strings.TrimSpace(v.Get("sort")))),
	}

	if reg != nil {
		if name, ok := reg.CategoryBySlug(f.Category); ok {
			f.Category = name
		}
		if name, ok := reg.CityBySlug(f.City); ok {
			f.City = name
		}
	}

	if r, err := strconv.ParseFloat(v.Get("min_rating"), 64); err == nil && !math.IsNaN(r) {
		f.MinRating = r
	}
	if b, err := strconv.ParseBool(v.Get("verified")); err == nil {
		f.VerifiedOnly = b
	}
	if s := v.Get("services"); s != "" {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				f.Services = append(f.Services, part)
			}
		}
	}

	lat, latErr := strconv.ParseFloat(v.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(v.Get("lng"), 64)
	if latErr == nil && lngErr == nil {
		f.Near = &Point{Lat: lat, Lng: lng}
	}

	switch f.Sort {
	case SortRelevance, SortRating, SortReviews, SortName, SortNewest, SortDistance:
	default:
		f.Sort = SortRelevance
	}

	return f
}
