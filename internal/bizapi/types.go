// Package bizapi is the HTTP client for the external business-record API
// that owns persisted listings.
package bizapi

import "github.com/JonMunkholm/visadir/internal/directory"

// BusinessRecord is the create-request body accepted by the business API.
type BusinessRecord struct {
	Name          string      `json:"name"`
	Category      string      `json:"category"`
	Description   string      `json:"description"`
	Address       string      `json:"address"`
	City          string      `json:"city"`
	Phone         string      `json:"phone"`
	Email         string      `json:"email"`
	WhatsApp      string      `json:"whatsapp,omitempty"`
	Website       string      `json:"website,omitempty"`
	LicenseNumber string      `json:"license_number,omitempty"`
	Owner         *Owner      `json:"owner,omitempty"`
	Services      []string    `json:"services"`
	Location      Location    `json:"location"`
	Hours         WeeklyHours `json:"hours"`
	LogoURL       string      `json:"logo_url,omitempty"`
	CoverImageURL string      `json:"cover_image_url,omitempty"`
	Gallery       []string    `json:"gallery"`
	IsVerified    bool        `json:"is_verified"`
	Notes         string      `json:"notes,omitempty"`
}

// Owner is the optional owner contact triple.
type Owner struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Location is the listing coordinate. It is the same type the list
// endpoint decodes into so create and list share one wire shape.
type Location = directory.Location

// WeeklyHours holds opening hours per weekday as free text.
type WeeklyHours struct {
	Monday    string `json:"monday"`
	Tuesday   string `json:"tuesday"`
	Wednesday string `json:"wednesday"`
	Thursday  string `json:"thursday"`
	Friday    string `json:"friday"`
	Saturday  string `json:"saturday"`
	Sunday    string `json:"sunday"`
}

// CreatedBusiness is the subset of the create response the client reads.
type CreatedBusiness struct {
	ID string `json:"id"`
}
