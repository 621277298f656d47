package core

import (
	"strings"
	"testing"

	"github.com/JonMunkholm/visadir/internal/directory"
	"github.com/google/go-cmp/cmp"
)

// minimalRecord has every required field and nothing else.
func minimalRecord() Record {
	return Record{
		KeyBusinessName: "Al Noor Visa Services",
		KeyCategory:     "Visa Agent",
		KeyDescription:  "...",
		KeyAddress:      "...",
		KeyCity:         "Dubai",
		KeyPhone:        "+971-4-123-4567",
		KeyEmail:        "a@b.com",
	}
}

func sampleRecord() Record {
	rec := Record{}
	for _, f := range ListingSchema() {
		rec[f.Key] = f.Sample
	}
	return rec
}

func TestValidate_ValidRows(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
	}{
		{"required fields only", minimalRecord()},
		{"every field populated", sampleRecord()},
		{"unknown keys ignored", func() Record {
			r := minimalRecord()
			r["favourite_colour"] = "blue"
			return r
		}()},
		{"verified mixed case", func() Record {
			r := minimalRecord()
			r[KeyIsVerified] = "TRUE"
			return r
		}()},
	}

	schema := ListingSchema()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateRecord(schema, tt.rec, 1)
			if !got.Valid {
				t.Errorf("Valid = false, errors = %v", got.Errors)
			}
			if got.Errors == nil || len(got.Errors) != 0 {
				t.Errorf("Errors = %#v, want empty non-nil slice", got.Errors)
			}
		})
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	schema := ListingSchema()

	rec := minimalRecord()
	delete(rec, KeyEmail)
	rec[KeyAddress] = "   "
	rec[KeyCity] = ""

	got := ValidateRecord(schema, rec, 4)
	want := []string{
		"Row 4: Address * is required",
		"Row 4: City * is required",
		"Row 4: Email * is required",
	}
	if got.Valid {
		t.Error("Valid = true, want false")
	}
	if diff := cmp.Diff(want, got.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_EmptyRecordReportsEveryRequiredField(t *testing.T) {
	schema := ListingSchema()
	got := ValidateRecord(schema, Record{}, 2)

	var want []string
	for _, f := range schema {
		if f.Required {
			want = append(want, "Row 2: "+f.Label+" is required")
		}
	}
	if diff := cmp.Diff(want, got.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_MissingBusinessNameOnly(t *testing.T) {
	rec := minimalRecord()
	rec[KeyBusinessName] = ""

	got := ValidateRecord(ListingSchema(), rec, 1)
	if got.Valid {
		t.Fatal("Valid = true, want false")
	}
	if diff := cmp.Diff([]string{"Row 1: Business Name * is required"}, got.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_UnknownCategory(t *testing.T) {
	rec := minimalRecord()
	rec[KeyCategory] = "Not A Real Category"

	got := ValidateRecord(ListingSchema(), rec, 1)
	want := []string{"Row 1: Category * must be one of: " + strings.Join(directory.Categories, ", ")}
	if diff := cmp.Diff(want, got.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_FieldFormats(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string // "" means valid
	}{
		{"email ok", KeyEmail, "info@visa.ae", ""},
		{"email no at", KeyEmail, "info.visa.ae", "Row 1: Email * must be a valid email address"},
		{"email no dot in domain", KeyEmail, "info@visa", "Row 1: Email * must be a valid email address"},
		{"email two ats", KeyEmail, "a@b@c.com", "Row 1: Email * must be a valid email address"},
		{"phone one digit area", KeyPhone, "+971-4-123-4567", ""},
		{"phone two digit area", KeyPhone, "+971-50-123-4567", ""},
		{"phone missing dashes", KeyPhone, "+97141234567", "Row 1: Phone * must be in format +971-X-XXX-XXXX"},
		{"phone wrong country", KeyPhone, "+44-4-123-4567", "Row 1: Phone * must be in format +971-X-XXX-XXXX"},
		{"whatsapp ok", KeyWhatsApp, "+971-55-123-4567", ""},
		{"whatsapp one digit", KeyWhatsApp, "+971-5-123-4567", "Row 1: WhatsApp must be in format +971-XX-XXX-XXXX"},
		{"owner phone uses phone rule", KeyOwnerPhone, "12345", "Row 1: Owner Phone must be in format +971-X-XXX-XXXX"},
		{"website ok", KeyWebsite, "https://visa.ae/about", ""},
		{"website no scheme", KeyWebsite, "visa.ae", "Row 1: Website must be a valid URL"},
		{"logo not url", KeyLogoURL, "not a url", "Row 1: Logo URL must be a valid URL"},
		{"latitude not numeric", KeyLatitude, "north", "Row 1: Latitude must be a number"},
		{"longitude NaN", KeyLongitude, "NaN", "Row 1: Longitude must be a number"},
		{"verified yes", KeyIsVerified, "yes", "Row 1: Verified (true/false) must be true or false"},
		{"verified false", KeyIsVerified, "False", ""},
		{"city wrong case", KeyCity, "dubai", "Row 1: City * must be one of: " + strings.Join(directory.Cities, ", ")},
	}

	schema := ListingSchema()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := minimalRecord()
			rec[tt.key] = tt.value

			got := ValidateRecord(schema, rec, 1)
			if tt.wantErr == "" {
				if !got.Valid {
					t.Errorf("expected valid, got %v", got.Errors)
				}
				return
			}
			if diff := cmp.Diff([]string{tt.wantErr}, got.Errors); diff != "" {
				t.Errorf("Errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidate_CoordinateBounds(t *testing.T) {
	tests := []struct {
		key   string
		value string
		valid bool
	}{
		{KeyLatitude, "90", true},
		{KeyLatitude, "-90", true},
		{KeyLatitude, "90.0001", false},
		{KeyLatitude, "-90.0001", false},
		{KeyLongitude, "180", true},
		{KeyLongitude, "-180", true},
		{KeyLongitude, "180.0001", false},
		{KeyLongitude, "-180.0001", false},
	}

	wantMsg := map[string]string{
		KeyLatitude:  "Row 1: Latitude must be between -90 and 90",
		KeyLongitude: "Row 1: Longitude must be between -180 and 180",
	}

	schema := ListingSchema()
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			rec := minimalRecord()
			rec[tt.key] = tt.value

			got := ValidateRecord(schema, rec, 1)
			if got.Valid != tt.valid {
				t.Fatalf("Valid = %v, want %v (errors %v)", got.Valid, tt.valid, got.Errors)
			}
			if !tt.valid {
				if diff := cmp.Diff([]string{wantMsg[tt.key]}, got.Errors); diff != "" {
					t.Errorf("Errors mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestValidate_ReportsAllErrorsInSchemaOrder(t *testing.T) {
	rec := minimalRecord()
	rec[KeyBusinessName] = ""
	rec[KeyEmail] = "bad"
	rec[KeyWebsite] = "nope"
	rec[KeyLatitude] = "91"

	got := ValidateRecord(ListingSchema(), rec, 7)
	want := []string{
		"Row 7: Business Name * is required",
		"Row 7: Email * must be a valid email address",
		"Row 7: Website must be a valid URL",
		"Row 7: Latitude must be between -90 and 90",
	}
	if diff := cmp.Diff(want, got.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	rec := minimalRecord()
	rec[KeyEmail] = "broken"
	rec[KeyLatitude] = " 12.5 "
	before := Record{}
	for k, v := range rec {
		before[k] = v
	}

	v := NewRowValidator(ListingSchema())
	first := v.Validate(rec, 3)
	second := v.Validate(rec, 3)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second validation differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(before, rec); diff != "" {
		t.Errorf("record mutated (-before +after):\n%s", diff)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"25.2048", 25.2048, true},
		{" -3 ", -3, true},
		{"1e2", 100, true},
		{"Inf", 0, false},
		{"NaN", 0, false},
		{"12abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseNumber(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
