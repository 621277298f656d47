package core

import (
	"encoding/json"
	"testing"

	"github.com/JonMunkholm/visadir/internal/bizapi"
	"github.com/JonMunkholm/visadir/internal/directory"
	"github.com/google/go-cmp/cmp"
)

func TestToBusinessRecord_Defaults(t *testing.T) {
	row := NewListingRow(1, minimalRecord())
	got := ToBusinessRecord(row)

	want := bizapi.BusinessRecord{
		Name:        "Al Noor Visa Services",
		Category:    "Visa Agent",
		Description: "...",
		Address:     "...",
		City:        "Dubai",
		Phone:       "+971-4-123-4567",
		Email:       "a@b.com",
		Services:    []string{},
		Location:    bizapi.Location{Latitude: DefaultLatitude, Longitude: DefaultLongitude},
		Hours: bizapi.WeeklyHours{
			Monday:    DefaultBusinessHours,
			Tuesday:   DefaultBusinessHours,
			Wednesday: DefaultBusinessHours,
			Thursday:  DefaultBusinessHours,
			Friday:    DefaultBusinessHours,
			Saturday:  DefaultBusinessHours,
			Sunday:    DefaultBusinessHours,
		},
		Gallery: []string{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ToBusinessRecord() mismatch (-want +got):\n%s", diff)
	}
}

func TestToBusinessRecord_FullRow(t *testing.T) {
	row := NewListingRow(1, sampleRecord())
	got := ToBusinessRecord(row)

	if got.Name != "Al Noor Visa Services" {
		t.Errorf("Name = %q", got.Name)
	}
	if diff := cmp.Diff([]string{"Tourist Visa", "Residence Visa", "Golden Visa"}, got.Services); diff != "" {
		t.Errorf("Services (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"https://alnoorvisa.ae/office.jpg", "https://alnoorvisa.ae/team.jpg"}, got.Gallery); diff != "" {
		t.Errorf("Gallery (-want +got):\n%s", diff)
	}
	if got.Location != (bizapi.Location{Latitude: 25.1865, Longitude: 55.2654}) {
		t.Errorf("Location = %+v", got.Location)
	}
	if got.Hours.Saturday != "10:00 AM - 2:00 PM" || got.Hours.Sunday != "Closed" || got.Hours.Monday != DefaultBusinessHours {
		t.Errorf("Hours = %+v", got.Hours)
	}
	want := &bizapi.Owner{Name: "Ahmed Khan", Email: "ahmed@alnoorvisa.ae", Phone: "+971-4-765-4321"}
	if diff := cmp.Diff(want, got.Owner); diff != "" {
		t.Errorf("Owner (-want +got):\n%s", diff)
	}
}

func TestToBusinessRecord_PartialCoordinates(t *testing.T) {
	rec := minimalRecord()
	rec[KeyLongitude] = "54.37"
	got := ToBusinessRecord(NewListingRow(1, rec))

	if got.Location.Latitude != DefaultLatitude || got.Location.Longitude != 54.37 {
		t.Errorf("Location = %+v", got.Location)
	}
}

func TestToBusinessRecord_ListedBackWithLocation(t *testing.T) {
	rec := minimalRecord()
	rec[KeyLatitude] = "24.45"
	rec[KeyLongitude] = "54.37"
	rec[KeyIsVerified] = "true"

	body, err := json.Marshal(ToBusinessRecord(NewListingRow(1, rec)))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var listed directory.Listing
	if err := json.Unmarshal(body, &listed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := directory.Location{Latitude: 24.45, Longitude: 54.37}
	if listed.Location != want || !listed.Verified {
		t.Errorf("listed back = %+v, want location %+v and verified", listed, want)
	}
}
