package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
)

// FileRecord is one archived artifact as stored in the files table.
type FileRecord struct {
	TypeID     int64
	SiteID     int64
	LocationID int64
	// InitTime is the model initialization or launch time, UTC with second precision.
	InitTime time.Time
	// EndTime is the end of the coverage period.
	EndTime time.Time
	// FileName is the unique handle of the compressed payload.
	FileName string
}

// Validate rejects records that can never be stored.
func (r *FileRecord) Validate() error {
	const op = "FileRecord.Validate"
	if strings.TrimSpace(r.FileName) == "" {
		return exception.InvalidArgument(op, "file name must not be empty")
	}
	if r.InitTime.IsZero() {
		return exception.InvalidArgument(op, "init time of %s must be set", r.FileName)
	}
	if r.EndTime.IsZero() {
		return exception.InvalidArgument(op, "end time of %s must be set", r.FileName)
	}
	if r.EndTime.Before(r.InitTime) {
		return exception.InvalidArgument(op, "end time of %s precedes its init time", r.FileName)
	}
	return nil
}

// FileEntry is a file together with its type, site and location rows.
type FileEntry struct {
	Type     SoundingType
	Site     Site
	Location Location
	InitTime time.Time
	EndTime  time.Time
	FileName string
}

// Record returns the files row of e, using the ids of its dimension rows.
func (e FileEntry) Record() FileRecord {
	return FileRecord{
		TypeID:     e.Type.ID,
		SiteID:     e.Site.ID,
		LocationID: e.Location.ID,
		InitTime:   e.InitTime,
		EndTime:    e.EndTime,
		FileName:   e.FileName,
	}
}

// TimeRange is the half-open interval [From, To). A zero bound leaves that side open.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls in r.
func (r TimeRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To) {
		return false
	}
	return true
}

// Since returns the range starting at from with no upper bound.
func Since(from time.Time) TimeRange { return TimeRange{From: from} }

// Before returns the range of everything strictly before to.
func Before(to time.Time) TimeRange { return TimeRange{To: to} }

// CompressedFileName builds the conventional payload name, e.g. "2020010100Z_GFS_KOUN.buf.gz".
func CompressedFileName(t SoundingType, s Site, initTime time.Time) string {
	var ext string
	switch NormalizeCode(t.FileType) {
	case FileTypeBufkit:
		ext = "buf"
	case FileTypeBufr:
		ext = "bufr"
	default:
		ext = strings.ToLower(strings.TrimSpace(t.FileType))
	}
	return fmt.Sprintf("%s_%s_%s.%s.gz",
		initTime.UTC().Format("2006010215Z"),
		NormalizeCode(t.Code),
		NormalizeCode(s.ShortName),
		ext)
}
