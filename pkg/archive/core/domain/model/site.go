package model

import (
	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
)

// StateProv is a US state or territory code.
type StateProv string

const (
	AL StateProv = "AL"
	AK StateProv = "AK"
	AZ StateProv = "AZ"
	AR StateProv = "AR"
	CA StateProv = "CA"
	CO StateProv = "CO"
	CT StateProv = "CT"
	DE StateProv = "DE"
	FL StateProv = "FL"
	GA StateProv = "GA"
	HI StateProv = "HI"
	ID StateProv = "ID"
	IL StateProv = "IL"
	IN StateProv = "IN"
	IA StateProv = "IA"
	KS StateProv = "KS"
	KY StateProv = "KY"
	LA StateProv = "LA"
	ME StateProv = "ME"
	MD StateProv = "MD"
	MA StateProv = "MA"
	MI StateProv = "MI"
	MN StateProv = "MN"
	MS StateProv = "MS"
	MO StateProv = "MO"
	MT StateProv = "MT"
	NE StateProv = "NE"
	NV StateProv = "NV"
	NH StateProv = "NH"
	NJ StateProv = "NJ"
	NM StateProv = "NM"
	NY StateProv = "NY"
	NC StateProv = "NC"
	ND StateProv = "ND"
	OH StateProv = "OH"
	OK StateProv = "OK"
	OR StateProv = "OR"
	PA StateProv = "PA"
	RI StateProv = "RI"
	SC StateProv = "SC"
	SD StateProv = "SD"
	TN StateProv = "TN"
	TX StateProv = "TX"
	UT StateProv = "UT"
	VT StateProv = "VT"
	VA StateProv = "VA"
	WA StateProv = "WA"
	WV StateProv = "WV"
	WI StateProv = "WI"
	WY StateProv = "WY"

	// Commonwealth and territories.
	AS StateProv = "AS"
	DC StateProv = "DC"
	FM StateProv = "FM"
	MH StateProv = "MH"
	MP StateProv = "MP"
	PW StateProv = "PW"
	PR StateProv = "PR"
	VI StateProv = "VI"
)

var allStateProvs = []StateProv{
	AL, AK, AZ, AR, CA, CO, CT, DE, FL, GA, HI, ID, IL, IN, IA, KS, KY, LA, ME, MD, MA, MI, MN,
	MS, MO, MT, NE, NV, NH, NJ, NM, NY, NC, ND, OH, OK, OR, PA, RI, SC, SD, TN, TX, UT, VT, VA,
	WA, WV, WI, WY, AS, DC, FM, MH, MP, PW, PR, VI,
}

var stateProvSet = func() map[StateProv]struct{} {
	m := make(map[StateProv]struct{}, len(allStateProvs))
	for _, s := range allStateProvs {
		m[s] = struct{}{}
	}
	return m
}()

// AllStateProvs returns every known code.
func AllStateProvs() []StateProv {
	out := make([]StateProv, len(allStateProvs))
	copy(out, allStateProvs)
	return out
}

// IsValid reports whether s is a known code.
func (s StateProv) IsValid() bool {
	_, ok := stateProvSet[s]
	return ok
}

// ParseStateProv parses a code case-insensitively. The empty string parses to the empty code.
func ParseStateProv(s string) (StateProv, error) {
	code := StateProv(NormalizeCode(s))
	if code == "" {
		return "", nil
	}
	if !code.IsValid() {
		return "", exception.InvalidArgument("ParseStateProv", "unknown state or province code %q", s)
	}
	return code, nil
}

// Site is a station or platform producing soundings.
type Site struct {
	// ID is the surrogate key; zero until registered.
	ID int64
	// ShortName is the unique external identifier, always upper case.
	ShortName string
	// LongName is a human readable name; empty when unknown.
	LongName string
	// State is empty when unknown or outside the US.
	State StateProv
	// Notes holds free text; empty when none.
	Notes string
	// Mobile marks platforms without a fixed location.
	Mobile bool
}

// NewSite creates a Site with only the short name set.
func NewSite(shortName string) Site {
	return Site{ShortName: NormalizeCode(shortName)}
}

// Validate normalizes the short name and state in place and rejects invalid values.
func (s *Site) Validate() error {
	s.ShortName = NormalizeCode(s.ShortName)
	if s.ShortName == "" {
		return exception.InvalidArgument("Site.Validate", "site short name must not be empty")
	}
	state, err := ParseStateProv(string(s.State))
	if err != nil {
		return err
	}
	s.State = state
	return nil
}
