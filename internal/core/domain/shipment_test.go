package domain

import "testing"

func TestShipmentStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to ShipmentStatus
		ok       bool
	}{
		{StatusQuoted, StatusPaid, true},
		{StatusQuoted, StatusCancelled, true},
		{StatusQuoted, StatusSubmitted, false},
		{StatusPaid, StatusSubmitted, true},
		{StatusPaid, StatusSubmissionFailed, true},
		{StatusPaid, StatusQuoted, false},
		{StatusPaid, StatusCancelled, false},
		{StatusSubmissionFailed, StatusSubmitted, true},
		{StatusSubmissionFailed, StatusSubmissionFailed, true},
		{StatusSubmissionFailed, StatusQuoted, false},
		{StatusSubmitted, StatusPaid, false},
		{StatusCancelled, StatusPaid, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestParseCarrierServiceID(t *testing.T) {
	cases := []struct {
		id      string
		carrier CarrierCode
		ok      bool
	}{
		{"fedex-intl-economy", CarrierFedEx, true},
		{"dhl-fallback-express", CarrierDHL, true},
		{"ups-ground", CarrierUPS, true},
		{"fedex-", "", false},
		{"mystery-service", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		carrier, ok := ParseCarrierServiceID(tc.id)
		if ok != tc.ok || carrier != tc.carrier {
			t.Errorf("%q: expected (%s, %v), got (%s, %v)", tc.id, tc.carrier, tc.ok, carrier, ok)
		}
	}
}
