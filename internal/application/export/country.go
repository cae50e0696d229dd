package exportapp

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DisplayCountryNamer names countries in a given language using CLDR data
type DisplayCountryNamer struct {
	namer display.Namer
}

// NewDisplayCountryNamer creates a namer for lang (a BCP 47 tag such as "fr").
// An unparsable tag falls back to French.
func NewDisplayCountryNamer(lang string) *DisplayCountryNamer {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.French
	}
	return &DisplayCountryNamer{namer: display.Regions(tag)}
}

// CountryName returns the display name of an ISO 3166-1 code, or "" when
// the code is unknown.
func (n *DisplayCountryNamer) CountryName(code string) string {
	region, err := language.ParseRegion(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return ""
	}
	return n.namer.Name(region)
}
