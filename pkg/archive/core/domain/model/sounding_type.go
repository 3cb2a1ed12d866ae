// Package model holds the domain types of the sounding archive index.
package model

import (
	"strings"
	"time"

	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
)

// Common file-format tags.
const (
	FileTypeBufkit = "BUFKIT"
	FileTypeBufr   = "BUFR"
)

// SoundingType is a kind of data source, such as a model (GFS, NAM) or an instrument.
type SoundingType struct {
	// ID is the surrogate key; zero until registered.
	ID int64
	// Code is the unique short code, always upper case.
	Code string
	// FileType is the file-format tag, e.g. "BUFKIT".
	FileType string
	// IntervalHours is the time between runs or launches, nil when irregular.
	IntervalHours *int
	// Observed is false for model output.
	Observed bool
}

// NewSoundingType creates a SoundingType. A non-positive intervalHours means no regular interval.
func NewSoundingType(code, fileType string, intervalHours int, observed bool) SoundingType {
	t := SoundingType{
		Code:     NormalizeCode(code),
		FileType: NormalizeCode(fileType),
		Observed: observed,
	}
	if intervalHours > 0 {
		h := intervalHours
		t.IntervalHours = &h
	}
	return t
}

// NewModelType creates a SoundingType for model output.
func NewModelType(code, fileType string, intervalHours int) SoundingType {
	return NewSoundingType(code, fileType, intervalHours, false)
}

// NewObservedType creates a SoundingType for observed data.
func NewObservedType(code, fileType string, intervalHours int) SoundingType {
	return NewSoundingType(code, fileType, intervalHours, true)
}

// Interval returns the regular spacing between init times.
func (t SoundingType) Interval() (time.Duration, bool) {
	if t.IntervalHours == nil || *t.IntervalHours <= 0 {
		return 0, false
	}
	return time.Duration(*t.IntervalHours) * time.Hour, true
}

// IsModeled reports whether the type is model output.
func (t SoundingType) IsModeled() bool { return !t.Observed }

// Validate normalizes the codes in place and rejects an empty code.
func (t *SoundingType) Validate() error {
	t.Code = NormalizeCode(t.Code)
	t.FileType = NormalizeCode(t.FileType)
	if t.Code == "" {
		return exception.InvalidArgument("SoundingType.Validate", "type code must not be empty")
	}
	if t.FileType == "" {
		return exception.InvalidArgument("SoundingType.Validate", "file type of %s must not be empty", t.Code)
	}
	if t.IntervalHours != nil && *t.IntervalHours <= 0 {
		t.IntervalHours = nil
	}
	return nil
}

// NormalizeCode trims s and converts it to upper case. Type codes and site short names
// are stored in this form.
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
