package core

import "github.com/JonMunkholm/visadir/internal/directory"

// FieldType is the type a cell is coerced to after validation.
type FieldType int

const (
	FieldText FieldType = iota
	FieldNumber
	FieldBool
)

// FieldFormat is an additional format rule applied to non-empty cells.
type FieldFormat int

const (
	FormatNone FieldFormat = iota
	FormatEmail
	FormatPhone
	FormatWhatsApp
	FormatURL
	FormatLatitude
	FormatLongitude
)

// FieldSpec describes one column of the upload file.
type FieldSpec struct {
	Key         string      // Record key: "business_name"
	Label       string      // Header label, matched exactly: "Business Name *"
	Required    bool        // Must be present and non-blank
	ValidValues []string    // Allowed values (exact match), nil for free text
	Format      FieldFormat // Format rule for non-empty values
	Type        FieldType   // Coercion target
	Sample      string      // Value written to the template's sample row
}

// Schema is the ordered list of columns. Order drives error ordering and
// template column order.
type Schema []FieldSpec

// Labels returns header labels in schema order.
func (s Schema) Labels() []string {
	labels := make([]string, len(s))
	for i, f := range s {
		labels[i] = f.Label
	}
	return labels
}

// Record keys of the business listing schema.
const (
	KeyBusinessName   = "business_name"
	KeyCategory       = "category"
	KeyDescription    = "description"
	KeyAddress        = "address"
	KeyCity           = "city"
	KeyPhone          = "phone"
	KeyEmail          = "email"
	KeyWhatsApp       = "whatsapp"
	KeyWebsite        = "website"
	KeyLicenseNumber  = "license_number"
	KeyOwnerName      = "owner_name"
	KeyOwnerEmail     = "owner_email"
	KeyOwnerPhone     = "owner_phone"
	KeyServices       = "services"
	KeyLatitude       = "latitude"
	KeyLongitude      = "longitude"
	KeyMondayHours    = "monday_hours"
	KeyTuesdayHours   = "tuesday_hours"
	KeyWednesdayHours = "wednesday_hours"
	KeyThursdayHours  = "thursday_hours"
	KeyFridayHours    = "friday_hours"
	KeySaturdayHours  = "saturday_hours"
	KeySundayHours    = "sunday_hours"
	KeyLogoURL        = "logo_url"
	KeyCoverImageURL  = "cover_image_url"
	KeyGalleryURLs    = "gallery_urls"
	KeyIsVerified     = "is_verified"
	KeyNotes          = "notes"
)

// ListingSchema returns the bulk-upload schema for business listings with
// category and city restricted to the canonical directory lists.
func ListingSchema() Schema {
	return Schema{
		{Key: KeyBusinessName, Label: "Business Name *", Required: true, Sample: "Al Noor Visa Services"},
		{Key: KeyCategory, Label: "Category *", Required: true, ValidValues: directory.Categories, Sample: "Visa Agent"},
		{Key: KeyDescription, Label: "Description *", Required: true, Sample: "Residence, tourist and golden visa processing for UAE applicants"},
		{Key: KeyAddress, Label: "Address *", Required: true, Sample: "Office 1204, Bay Square Building 5, Business Bay"},
		{Key: KeyCity, Label: "City *", Required: true, ValidValues: directory.Cities, Sample: "Dubai"},
		{Key: KeyPhone, Label: "Phone *", Required: true, Format: FormatPhone, Sample: "+971-4-123-4567"},
		{Key: KeyEmail, Label: "Email *", Required: true, Format: FormatEmail, Sample: "info@alnoorvisa.ae"},
		{Key: KeyWhatsApp, Label: "WhatsApp", Format: FormatWhatsApp, Sample: "+971-50-123-4567"},
		{Key: KeyWebsite, Label: "Website", Format: FormatURL, Sample: "https://alnoorvisa.ae"},
		{Key: KeyLicenseNumber, Label: "License Number", Sample: "DED-784512"},
		{Key: KeyOwnerName, Label: "Owner Name", Sample: "Ahmed Khan"},
		{Key: KeyOwnerEmail, Label: "Owner Email", Format: FormatEmail, Sample: "ahmed@alnoorvisa.ae"},
		{Key: KeyOwnerPhone, Label: "Owner Phone", Format: FormatPhone, Sample: "+971-4-765-4321"},
		{Key: KeyServices, Label: "Services (comma-separated)", Sample: "Tourist Visa, Residence Visa, Golden Visa"},
		{Key: KeyLatitude, Label: "Latitude", Type: FieldNumber, Format: FormatLatitude, Sample: "25.1865"},
		{Key: KeyLongitude, Label: "Longitude", Type: FieldNumber, Format: FormatLongitude, Sample: "55.2654"},
		{Key: KeyMondayHours, Label: "Monday Hours", Sample: DefaultBusinessHours},
		{Key: KeyTuesdayHours, Label: "Tuesday Hours", Sample: DefaultBusinessHours},
		{Key: KeyWednesdayHours, Label: "Wednesday Hours", Sample: DefaultBusinessHours},
		{Key: KeyThursdayHours, Label: "Thursday Hours", Sample: DefaultBusinessHours},
		{Key: KeyFridayHours, Label: "Friday Hours", Sample: DefaultBusinessHours},
		{Key: KeySaturdayHours, Label: "Saturday Hours", Sample: "10:00 AM - 2:00 PM"},
		{Key: KeySundayHours, Label: "Sunday Hours", Sample: "Closed"},
		{Key: KeyLogoURL, Label: "Logo URL", Format: FormatURL, Sample: "https://alnoorvisa.ae/logo.png"},
		{Key: KeyCoverImageURL, Label: "Cover Image URL", Format: FormatURL, Sample: "https://alnoorvisa.ae/cover.jpg"},
		{Key: KeyGalleryURLs, Label: "Gallery URLs (comma-separated)", Sample: "https://alnoorvisa.ae/office.jpg, https://alnoorvisa.ae/team.jpg"},
		{Key: KeyIsVerified, Label: "Verified (true/false)", Type: FieldBool, Sample: "false"},
		{Key: KeyNotes, Label: "Notes", Sample: "Imported from partner list"},
	}
}
