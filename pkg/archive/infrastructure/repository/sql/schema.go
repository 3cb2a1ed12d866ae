package sql

// TypeEntity is a row of the types table.
type TypeEntity struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Type     string `gorm:"column:type"`
	FileType string
	Interval *int `gorm:"column:interval"`
	Observed int
}

func (TypeEntity) TableName() string {
	return "types"
}

// SiteEntity is a row of the sites table. Absent text is stored as NULL.
type SiteEntity struct {
	ID                 int64 `gorm:"primaryKey;autoIncrement"`
	ShortName          string
	LongName           *string
	State              *string
	Notes              *string
	MobileSoundingSite int
}

func (SiteEntity) TableName() string {
	return "sites"
}

// LocationEntity is a row of the locations table. Coordinates are micro-degrees.
type LocationEntity struct {
	ID              int64 `gorm:"primaryKey;autoIncrement"`
	Latitude        int64
	Longitude       int64
	ElevationMeters *int
	TZOffsetSeconds *int `gorm:"column:tz_offset_seconds"`
}

func (LocationEntity) TableName() string {
	return "locations"
}

// FileEntity is a row of the files table. Times are RFC 3339 UTC text with second
// precision, which sorts in time order.
type FileEntity struct {
	TypeID     int64
	SiteID     int64
	LocationID int64
	InitTime   string
	EndTime    string
	FileName   string
}

func (FileEntity) TableName() string {
	return "files"
}
