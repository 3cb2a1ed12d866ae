package model

import (
	"time"
)

// MissingRun is a span of expected init times with no file, both ends inclusive.
type MissingRun struct {
	Start time.Time
	End   time.Time
}

// TypeInventory summarizes the holdings of one sounding type at a site.
type TypeInventory struct {
	Type SoundingType
	// First and Last are the earliest and latest init times.
	First time.Time
	Last  time.Time
	// Missing lists gaps between First and Last; empty when the type has no regular interval.
	Missing []MissingRun
	// Locations lists the distinct locations the files were recorded at.
	Locations []Location
}

// Inventory summarizes the holdings of a site, one entry per sounding type.
type Inventory struct {
	Site  Site
	Types []TypeInventory
}

// ForType returns the entry for the given type code.
func (inv Inventory) ForType(code string) (TypeInventory, bool) {
	code = NormalizeCode(code)
	for _, ti := range inv.Types {
		if ti.Type.Code == code {
			return ti, true
		}
	}
	return TypeInventory{}, false
}

// MissingRuns walks initTimes, which must be sorted ascending, and returns the expected
// init times with no file, grouped into consecutive runs. A non-positive interval yields nil.
func MissingRuns(initTimes []time.Time, interval time.Duration) []MissingRun {
	if interval <= 0 || len(initTimes) == 0 {
		return nil
	}
	var runs []MissingRun
	next := initTimes[0]
	for _, t := range initTimes {
		if next.Before(t) {
			start := next
			end := next
			for next.Before(t) {
				end = next
				next = next.Add(interval)
			}
			runs = append(runs, MissingRun{Start: start, End: end})
		}
		next = next.Add(interval)
	}
	return runs
}
