package domain

// CarrierCode identifies one of the carriers the marketplace quotes against.
// The set is closed: adding a carrier means adding a constant here and a
// client for it in the carrier registry.
type CarrierCode string

const (
	CarrierFedEx CarrierCode = "fedex"
	CarrierDHL   CarrierCode = "dhl"
	CarrierUPS   CarrierCode = "ups"
)

// AllCarriers returns the fixed carrier set in quoting order.
func AllCarriers() []CarrierCode {
	return []CarrierCode{CarrierFedEx, CarrierDHL, CarrierUPS}
}

// Valid reports whether c is a known carrier code.
func (c CarrierCode) Valid() bool {
	switch c {
	case CarrierFedEx, CarrierDHL, CarrierUPS:
		return true
	}
	return false
}

// ParseCarrierServiceID extracts the carrier from a namespaced carrier
// service id ("fedex-intl-economy"). Returns false for ids that do not name
// a known carrier.
func ParseCarrierServiceID(id string) (CarrierCode, bool) {
	for _, code := range AllCarriers() {
		prefix := string(code) + "-"
		if len(id) > len(prefix) && id[:len(prefix)] == prefix {
			return code, true
		}
	}
	return "", false
}

// DisplayName returns the customer-facing carrier name.
func (c CarrierCode) DisplayName() string {
	switch c {
	case CarrierFedEx:
		return "FedEx"
	case CarrierDHL:
		return "DHL"
	case CarrierUPS:
		return "UPS"
	}
	return string(c)
}
