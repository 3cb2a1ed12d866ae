package sql

import (
	"time"

	model "github.com/tigerroll/soundings/pkg/archive/core/domain/model"
)

// --- Mapper functions ---

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// formatTime renders t as stored in the files table.
func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func fromDomainType(t model.SoundingType) *TypeEntity {
	return &TypeEntity{
		ID:       t.ID,
		Type:     t.Code,
		FileType: t.FileType,
		Interval: copyInt(t.IntervalHours),
		Observed: boolToInt(t.Observed),
	}
}

func toDomainType(e *TypeEntity) model.SoundingType {
	return model.SoundingType{
		ID:            e.ID,
		Code:          e.Type,
		FileType:      e.FileType,
		IntervalHours: copyInt(e.Interval),
		Observed:      e.Observed != 0,
	}
}

func fromDomainSite(s model.Site) *SiteEntity {
	return &SiteEntity{
		ID:                 s.ID,
		ShortName:          s.ShortName,
		LongName:           nullableString(s.LongName),
		State:              nullableString(string(s.State)),
		Notes:              nullableString(s.Notes),
		MobileSoundingSite: boolToInt(s.Mobile),
	}
}

func toDomainSite(e *SiteEntity) model.Site {
	return model.Site{
		ID:        e.ID,
		ShortName: e.ShortName,
		LongName:  stringValue(e.LongName),
		State:     model.StateProv(stringValue(e.State)),
		Notes:     stringValue(e.Notes),
		Mobile:    e.MobileSoundingSite != 0,
	}
}

// siteAssignments lists the descriptive columns rewritten by UpdateSite.
func siteAssignments(s model.Site) map[string]interface{} {
	e := fromDomainSite(s)
	return map[string]interface{}{
		"long_name":            e.LongName,
		"state":                e.State,
		"notes":                e.Notes,
		"mobile_sounding_site": e.MobileSoundingSite,
	}
}

func fromDomainLocation(l model.Location) *LocationEntity {
	return &LocationEntity{
		ID:              l.ID,
		Latitude:        l.LatitudeMicro,
		Longitude:       l.LongitudeMicro,
		ElevationMeters: copyInt(l.ElevationMeters),
		TZOffsetSeconds: copyInt(l.TZOffsetSeconds),
	}
}

func toDomainLocation(e *LocationEntity) model.Location {
	return model.Location{
		ID:              e.ID,
		LatitudeMicro:   e.Latitude,
		LongitudeMicro:  e.Longitude,
		ElevationMeters: copyInt(e.ElevationMeters),
		TZOffsetSeconds: copyInt(e.TZOffsetSeconds),
	}
}

// locationKey is the natural key of a location row. A missing elevation matches NULL.
func locationKey(e *LocationEntity) map[string]interface{} {
	key := map[string]interface{}{
		"latitude":  e.Latitude,
		"longitude": e.Longitude,
	}
	if e.ElevationMeters == nil {
		key["elevation_meters"] = nil
	} else {
		key["elevation_meters"] = *e.ElevationMeters
	}
	return key
}

func fromDomainFile(r model.FileRecord) *FileEntity {
	return &FileEntity{
		TypeID:     r.TypeID,
		SiteID:     r.SiteID,
		LocationID: r.LocationID,
		InitTime:   formatTime(r.InitTime),
		EndTime:    formatTime(r.EndTime),
		FileName:   r.FileName,
	}
}
