package service

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
	"github.com/parcelmarket/shipping-marketplace/internal/core/ports"
)

// ReferenceNormalizer implements ports.AddressNormalizer against the built-in
// country reference tables. It never blocks quoting: when structured lookup
// fails, the raw input is treated as already being a code.
type ReferenceNormalizer struct {
	log zerolog.Logger
}

func NewReferenceNormalizer(log zerolog.Logger) *ReferenceNormalizer {
	return &ReferenceNormalizer{log: log}
}

// Normalize converts free-form destination input into a canonical address.
//
// US territories (PR, VI, GU, AS, MP) are remapped to country=US with the
// territory code in the state field, because carrier APIs model them as
// domestic US destinations. Countries without postal codes get the sentinel
// zip and must carry a non-empty city instead.
func (n *ReferenceNormalizer) Normalize(raw ports.RawAddress) (domain.Address, error) {
	country := n.resolveCountry(raw.Country)
	state := strings.ToUpper(strings.TrimSpace(raw.State))

	if domain.IsUSTerritory(country) {
		state = country
		country = "US"
	}

	addr := domain.Address{
		CountryCode: country,
		StateCode:   state,
		City:        strings.TrimSpace(raw.City),
		ZipCode:     strings.TrimSpace(raw.ZipCode),
		Street:      strings.TrimSpace(raw.Street),
	}

	if !domain.CountryRequiresPostalCode(country) {
		if addr.ZipCode == "" {
			addr.ZipCode = domain.SentinelZip
		}
		if addr.City == "" {
			return domain.Address{}, fmt.Errorf("%w: city is required for destinations in %s", domain.ErrInvalidInput, country)
		}
		return addr, nil
	}

	if len(addr.ZipCode) < 3 {
		return domain.Address{}, fmt.Errorf("%w: postal code is required for destinations in %s", domain.ErrInvalidInput, country)
	}
	return addr, nil
}

// CountryRequiresPostalCode exposes the per-country postal-code policy.
func (n *ReferenceNormalizer) CountryRequiresPostalCode(code string) bool {
	return domain.CountryRequiresPostalCode(strings.ToUpper(strings.TrimSpace(code)))
}

// resolveCountry maps a name or code to an ISO code. Two-letter input passes
// through as already-a-code; unknown names fall back the same way so lookup
// failures never block quoting.
func (n *ReferenceNormalizer) resolveCountry(input string) string {
	trimmed := strings.TrimSpace(input)
	if len(trimmed) == 2 {
		return strings.ToUpper(trimmed)
	}
	if code, ok := domain.ResolveCountryCode(strings.ToLower(trimmed)); ok {
		return code
	}
	n.log.Debug().Str("country", input).Msg("country lookup failed, treating input as code")
	return strings.ToUpper(trimmed)
}
