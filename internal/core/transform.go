package core

import "github.com/JonMunkholm/visadir/internal/bizapi"

// ToBusinessRecord maps an accepted row to the business API create shape.
// Blank weekdays get DefaultBusinessHours; a missing coordinate falls back
// to the default location.
func ToBusinessRecord(row ListingRow) bizapi.BusinessRecord {
	rec := bizapi.BusinessRecord{
		Name:          row.BusinessName,
		Category:      row.Category,
		Description:   row.Description,
		Address:       row.Address,
		City:          row.City,
		Phone:         row.Phone,
		Email:         row.Email,
		WhatsApp:      row.WhatsApp,
		Website:       row.Website,
		LicenseNumber: row.LicenseNumber,
		Services:      SplitList(row.Services),
		Location: bizapi.Location{
			Latitude:  DefaultLatitude,
			Longitude: DefaultLongitude,
		},
		Hours: bizapi.WeeklyHours{
			Monday:    hoursOrDefault(row.MondayHours),
			Tuesday:   hoursOrDefault(row.TuesdayHours),
			Wednesday: hoursOrDefault(row.WednesdayHours),
			Thursday:  hoursOrDefault(row.ThursdayHours),
			Friday:    hoursOrDefault(row.FridayHours),
			Saturday:  hoursOrDefault(row.SaturdayHours),
			Sunday:    hoursOrDefault(row.SundayHours),
		},
		LogoURL:       row.LogoURL,
		CoverImageURL: row.CoverImageURL,
		Gallery:       SplitList(row.GalleryURLs),
		IsVerified:    row.IsVerified,
		Notes:         row.Notes,
	}

	if row.Latitude != nil {
		rec.Location.Latitude = *row.Latitude
	}
	if row.Longitude != nil {
		rec.Location.Longitude = *row.Longitude
	}

	if row.OwnerName != "" || row.OwnerEmail != "" || row.OwnerPhone != "" {
		rec.Owner = &bizapi.Owner{
			Name:  row.OwnerName,
			Email: row.OwnerEmail,
			Phone: row.OwnerPhone,
		}
	}

	return rec
}

func hoursOrDefault(h string) string {
	if h == "" {
		return DefaultBusinessHours
	}
	return h
}
