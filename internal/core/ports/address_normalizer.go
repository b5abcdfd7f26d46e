package ports

import "github.com/parcelmarket/shipping-marketplace/internal/core/domain"

// RawAddress is free-form destination input: country and state may be names
// or codes, zip may be absent for countries without postal codes.
type RawAddress struct {
	Country string
	State   string
	City    string
	ZipCode string
	Street  string
}

// AddressNormalizer converts free-form destination input into a canonical
// address. Implementations must never block quoting: when structured lookup
// fails, the raw input is treated as already-a-code.
type AddressNormalizer interface {
	Normalize(raw RawAddress) (domain.Address, error)
	CountryRequiresPostalCode(code string) bool
}
