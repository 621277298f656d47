package core

// convert.go turns raw upload cells into typed listing rows.
//
// Cells arrive from spreadsheets exported as tab-separated text, so a few
// spreadsheet artifacts are cleaned before anything else sees the value:
// surrounding whitespace, Excel text formula wrappers (="...") and
// enclosing quotes.

import "strings"

// DefaultBusinessHours is used for any weekday left blank in the upload.
const DefaultBusinessHours = "9:00 AM - 6:00 PM"

// Fallback coordinates (central Dubai) for rows without a location.
const (
	DefaultLatitude  = 25.2048
	DefaultLongitude = 55.2708
)

// ListingRow is an accepted upload row with cells coerced to their types.
type ListingRow struct {
	Line           int      `json:"line"`
	BusinessName   string   `json:"business_name"`
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	Address        string   `json:"address"`
	City           string   `json:"city"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email"`
	WhatsApp       string   `json:"whatsapp,omitempty"`
	Website        string   `json:"website,omitempty"`
	LicenseNumber  string   `json:"license_number,omitempty"`
	OwnerName      string   `json:"owner_name,omitempty"`
	OwnerEmail     string   `json:"owner_email,omitempty"`
	OwnerPhone     string   `json:"owner_phone,omitempty"`
	Services       string   `json:"services,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	MondayHours    string   `json:"monday_hours,omitempty"`
	TuesdayHours   string   `json:"tuesday_hours,omitempty"`
	WednesdayHours string   `json:"wednesday_hours,omitempty"`
	ThursdayHours  string   `json:"thursday_hours,omitempty"`
	FridayHours    string   `json:"friday_hours,omitempty"`
	SaturdayHours  string   `json:"saturday_hours,omitempty"`
	SundayHours    string   `json:"sunday_hours,omitempty"`
	LogoURL        string   `json:"logo_url,omitempty"`
	CoverImageURL  string   `json:"cover_image_url,omitempty"`
	GalleryURLs    string   `json:"gallery_urls,omitempty"`
	IsVerified     bool     `json:"is_verified"`
	Notes          string   `json:"notes,omitempty"`
}

// NewListingRow coerces a validated record. Numbers that fail to parse are
// left nil; validation is expected to have rejected them already.
func NewListingRow(line int, rec Record) ListingRow {
	get := func(key string) string { return strings.TrimSpace(rec[key]) }

	row := ListingRow{
		Line:           line,
		BusinessName:   get(KeyBusinessName),
		Category:       get(KeyCategory),
		Description:    get(KeyDescription),
		Address:        get(KeyAddress),
		City:           get(KeyCity),
		Phone:          get(KeyPhone),
		Email:          get(KeyEmail),
		WhatsApp:       get(KeyWhatsApp),
		Website:        get(KeyWebsite),
		LicenseNumber:  get(KeyLicenseNumber),
		OwnerName:      get(KeyOwnerName),
		OwnerEmail:     get(KeyOwnerEmail),
		OwnerPhone:     get(KeyOwnerPhone),
		Services:       get(KeyServices),
		MondayHours:    get(KeyMondayHours),
		TuesdayHours:   get(KeyTuesdayHours),
		WednesdayHours: get(KeyWednesdayHours),
		ThursdayHours:  get(KeyThursdayHours),
		FridayHours:    get(KeyFridayHours),
		SaturdayHours:  get(KeySaturdayHours),
		SundayHours:    get(KeySundayHours),
		LogoURL:        get(KeyLogoURL),
		CoverImageURL:  get(KeyCoverImageURL),
		GalleryURLs:    get(KeyGalleryURLs),
		Notes:          get(KeyNotes),
	}

	if n, ok := ParseNumber(get(KeyLatitude)); ok {
		row.Latitude = &n
	}
	if n, ok := ParseNumber(get(KeyLongitude)); ok {
		row.Longitude = &n
	}
	row.IsVerified, _ = ParseBool(get(KeyIsVerified))

	return row
}

// CleanCell removes spreadsheet artifacts from a cell value: surrounding
// whitespace, an Excel text formula wrapper (="..."), and quotes enclosing
// the whole value. Quotes inside the value are kept, so
// `"Fast" service "guaranteed"` is returned unchanged.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		return strings.TrimSpace(s[2 : len(s)-1])
	}

	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last && !strings.ContainsRune(s[1:len(s)-1], rune(first)) {
			s = s[1 : len(s)-1]
		}
	}

	return strings.TrimSpace(s)
}

// SplitList splits a comma-separated cell, trimming items and dropping
// empty ones. Returns an empty, non-nil slice for blank input.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
