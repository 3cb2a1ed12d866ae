package model

import (
	"math"
	"strconv"
	"strings"

	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
)

// MicroDegreesPerDegree is the fixed-point scale of stored coordinates.
const MicroDegreesPerDegree = 1_000_000

const (
	maxLatitudeMicro  = 90 * MicroDegreesPerDegree
	maxLongitudeMicro = 180 * MicroDegreesPerDegree
)

// Location is a geographic fix. Identity is the (latitude, longitude, elevation) triple;
// it does not depend on the site that observed it.
type Location struct {
	// ID is the surrogate key; zero until registered.
	ID int64
	// LatitudeMicro is degrees times 1,000,000, truncated toward zero.
	LatitudeMicro int64
	// LongitudeMicro is degrees times 1,000,000, truncated toward zero.
	LongitudeMicro int64
	// ElevationMeters is nil when unknown.
	ElevationMeters *int
	// TZOffsetSeconds is the offset from UTC, nil when unknown. It is not part of the identity.
	TZOffsetSeconds *int
}

// NewLocation range-checks decimal degrees and converts them to micro-degrees. The check
// runs before truncation, so 90.0000009 is rejected rather than stored as 90.
func NewLocation(latitude, longitude float64) (Location, error) {
	if !(latitude >= -90 && latitude <= 90) {
		return Location{}, exception.InvalidArgument("NewLocation", "latitude %v out of range [-90, 90]", latitude)
	}
	if !(longitude >= -180 && longitude <= 180) {
		return Location{}, exception.InvalidArgument("NewLocation", "longitude %v out of range [-180, 180]", longitude)
	}
	lat, err := toMicroDegrees(latitude)
	if err != nil {
		return Location{}, exception.InvalidArgument("NewLocation", "latitude %v: %v", latitude, err)
	}
	lon, err := toMicroDegrees(longitude)
	if err != nil {
		return Location{}, exception.InvalidArgument("NewLocation", "longitude %v: %v", longitude, err)
	}
	return NewLocationMicro(lat, lon)
}

// NewLocationMicro creates a Location from coordinates already scaled to micro-degrees.
func NewLocationMicro(latitudeMicro, longitudeMicro int64) (Location, error) {
	loc := Location{LatitudeMicro: latitudeMicro, LongitudeMicro: longitudeMicro}
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	return loc, nil
}

// WithElevation returns a copy of l with the elevation set.
func (l Location) WithElevation(meters int) Location {
	l.ElevationMeters = &meters
	return l
}

// WithTZOffset returns a copy of l with the UTC offset set.
func (l Location) WithTZOffset(seconds int) Location {
	l.TZOffsetSeconds = &seconds
	return l
}

// Latitude returns the latitude in decimal degrees.
func (l Location) Latitude() float64 {
	return float64(l.LatitudeMicro) / MicroDegreesPerDegree
}

// Longitude returns the longitude in decimal degrees.
func (l Location) Longitude() float64 {
	return float64(l.LongitudeMicro) / MicroDegreesPerDegree
}

// SameIdentity reports whether l and o are the same geometric point.
func (l Location) SameIdentity(o Location) bool {
	if l.LatitudeMicro != o.LatitudeMicro || l.LongitudeMicro != o.LongitudeMicro {
		return false
	}
	if l.ElevationMeters == nil || o.ElevationMeters == nil {
		return l.ElevationMeters == nil && o.ElevationMeters == nil
	}
	return *l.ElevationMeters == *o.ElevationMeters
}

// Validate checks the coordinate ranges.
func (l Location) Validate() error {
	if l.LatitudeMicro < -maxLatitudeMicro || l.LatitudeMicro > maxLatitudeMicro {
		return exception.InvalidArgument("Location.Validate", "latitude %d micro-degrees out of range", l.LatitudeMicro)
	}
	if l.LongitudeMicro < -maxLongitudeMicro || l.LongitudeMicro > maxLongitudeMicro {
		return exception.InvalidArgument("Location.Validate", "longitude %d micro-degrees out of range", l.LongitudeMicro)
	}
	return nil
}

// toMicroDegrees scales v by 1,000,000, truncating toward zero. It works on the shortest
// decimal representation of v so that 35.123456 becomes exactly 35123456.
func toMicroDegrees(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	if math.Abs(v) > 360 {
		return 0, strconv.ErrRange
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 6 {
		frac = frac[:6]
	}
	frac += strings.Repeat("0", 6-len(frac))

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, err
	}
	micro := w*MicroDegreesPerDegree + f
	if neg {
		micro = -micro
	}
	return micro, nil
}
