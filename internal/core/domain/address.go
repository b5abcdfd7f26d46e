package domain

// SentinelZip is assigned to destinations in countries that do not use postal
// codes. Carrier APIs reject empty postal fields, so the sentinel stands in.
const SentinelZip = "00000"

// Address is a canonical destination: ISO-3166 alpha-2 country code, resolved
// state/subdivision code, city, and a postal code (or SentinelZip).
type Address struct {
	CountryCode string `json:"country_code" bson:"country_code"`
	StateCode   string `json:"state_code,omitempty" bson:"state_code,omitempty"`
	City        string `json:"city" bson:"city"`
	ZipCode     string `json:"zip_code" bson:"zip_code"`
	Street      string `json:"street,omitempty" bson:"street,omitempty"`
}

// usTerritories maps US territory ISO codes to their state-field code.
// Carrier APIs model these as domestic US destinations, so normalization
// rewrites country to "US" and carries the territory in the state field.
var usTerritories = map[string]string{
	"PR": "PR", // Puerto Rico
	"VI": "VI", // US Virgin Islands
	"GU": "GU", // Guam
	"AS": "AS", // American Samoa
	"MP": "MP", // Northern Mariana Islands
}

// IsUSTerritory reports whether code is a US territory that carriers treat as
// a domestic US destination.
func IsUSTerritory(code string) bool {
	_, ok := usTerritories[code]
	return ok
}

// countriesWithoutPostalCode lists destinations that do not use postal codes.
// Shipments there are addressed by city; the zip field gets SentinelZip.
var countriesWithoutPostalCode = map[string]bool{
	"AG": true, // Antigua and Barbuda
	"AI": true, // Anguilla
	"AW": true, // Aruba
	"BB": true, // Barbados
	"BS": true, // Bahamas
	"BZ": true, // Belize
	"BQ": true, // Bonaire
	"CW": true, // Curacao
	"DM": true, // Dominica
	"GD": true, // Grenada
	"KN": true, // Saint Kitts and Nevis
	"KY": true, // Cayman Islands
	"LC": true, // Saint Lucia
	"SX": true, // Sint Maarten
	"TC": true, // Turks and Caicos
	"VC": true, // Saint Vincent and the Grenadines
	"VG": true, // British Virgin Islands
}

// CountryRequiresPostalCode reports the postal-code policy for an ISO country
// code. Unknown countries default to requiring one.
func CountryRequiresPostalCode(code string) bool {
	return !countriesWithoutPostalCode[code]
}

// countryNames resolves common country names to ISO codes. Lookup is a
// convenience for free-form input; two-letter input is assumed to already be
// a code and passes through unchanged.
var countryNames = map[string]string{
	"united states":       "US",
	"usa":                 "US",
	"canada":              "CA",
	"mexico":              "MX",
	"united kingdom":      "GB",
	"germany":             "DE",
	"france":              "FR",
	"spain":               "ES",
	"italy":               "IT",
	"netherlands":         "NL",
	"china":               "CN",
	"japan":               "JP",
	"india":               "IN",
	"brazil":              "BR",
	"australia":           "AU",
	"jamaica":             "JM",
	"haiti":               "HT",
	"dominican republic":  "DO",
	"bahamas":             "BS",
	"barbados":            "BB",
	"trinidad and tobago": "TT",
	"guyana":              "GY",
	"puerto rico":         "PR",
	"aruba":               "AW",
	"belize":              "BZ",
	"cayman islands":      "KY",
	"saint lucia":         "LC",
	"grenada":             "GD",
	"dominica":            "DM",
	"antigua and barbuda": "AG",
}

// ResolveCountryCode maps a free-form country name to its ISO code.
// Returns the input and false when no structured lookup matches.
func ResolveCountryCode(name string) (string, bool) {
	code, ok := countryNames[name]
	return code, ok
}
