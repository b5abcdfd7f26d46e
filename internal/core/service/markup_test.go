package service

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
)

func TestMarkupEngine_FixedAndPercentageStack(t *testing.T) {
	engine := NewMarkupEngine(NopAuditEmitter{}, zerolog.Nop())

	snap := snapshotWith(nil,
		domain.MarkupRule{ID: "r1", Name: "flat", Priority: 1, Type: domain.MarkupFixed, Value: 5, Active: true},
		domain.MarkupRule{ID: "r2", Name: "pct", Priority: 2, Type: domain.MarkupPercentage, Value: 10, Active: true},
	)

	res := engine.Apply(100.00, domain.CarrierFedEx, 10, "US", snap, "ref-1")
	if res.FinalPrice != 115.00 {
		t.Fatalf("expected 115.00, got %.2f", res.FinalPrice)
	}
	if res.MarkupAmount != 15.00 {
		t.Fatalf("expected markup 15.00, got %.2f", res.MarkupAmount)
	}
	if len(res.Applied) != 2 {
		t.Fatalf("expected 2 applied rules, got %d", len(res.Applied))
	}
}

func TestMarkupEngine_PercentageComputedOnBase(t *testing.T) {
	engine := NewMarkupEngine(NopAuditEmitter{}, zerolog.Nop())

	// Order must not matter: the percentage is taken on the incoming base,
	// not on the base plus earlier fixed contributions.
	snap := snapshotWith(nil,
		domain.MarkupRule{ID: "r2", Name: "pct", Priority: 1, Type: domain.MarkupPercentage, Value: 10, Active: true},
		domain.MarkupRule{ID: "r1", Name: "flat", Priority: 2, Type: domain.MarkupFixed, Value: 5, Active: true},
	)

	res := engine.Apply(100.00, domain.CarrierFedEx, 10, "US", snap, "ref-2")
	if res.FinalPrice != 115.00 {
		t.Fatalf("expected 115.00 independent of rule order, got %.2f", res.FinalPrice)
	}
}

func TestMarkupEngine_ScopeFiltering(t *testing.T) {
	engine := NewMarkupEngine(NopAuditEmitter{}, zerolog.Nop())

	snap := snapshotWith(nil,
		domain.MarkupRule{ID: "r1", Name: "dhl only", Carrier: "dhl", Type: domain.MarkupFixed, Value: 7, Active: true},
		domain.MarkupRule{ID: "r2", Name: "heavy only", MinWeight: 50, Type: domain.MarkupFixed, Value: 9, Active: true},
		domain.MarkupRule{ID: "r3", Name: "mx only", Countries: []string{"MX"}, Type: domain.MarkupFixed, Value: 11, Active: true},
		domain.MarkupRule{ID: "r4", Name: "inactive", Type: domain.MarkupFixed, Value: 13, Active: false},
	)

	res := engine.Apply(100.00, domain.CarrierFedEx, 10, "US", snap, "ref-3")
	if res.MarkupAmount != 0 {
		t.Fatalf("expected no matching rules, got markup %.2f", res.MarkupAmount)
	}
	if len(res.Applied) != 0 {
		t.Fatalf("expected no applied rules, got %d", len(res.Applied))
	}
	if res.FinalPrice != 100.00 {
		t.Fatalf("expected base passthrough, got %.2f", res.FinalPrice)
	}
}

func TestMarkupEngine_BoundedWeightRange(t *testing.T) {
	engine := NewMarkupEngine(NopAuditEmitter{}, zerolog.Nop())

	rule := domain.MarkupRule{ID: "r1", Name: "mid", MinWeight: 5, MaxWeight: 20, Type: domain.MarkupFixed, Value: 3, Active: true}

	for _, tc := range []struct {
		weight float64
		want   float64
	}{
		{4.9, 0},
		{5.0, 3},
		{20.0, 3},
		{20.1, 0},
	} {
		res := engine.Apply(50.00, domain.CarrierUPS, tc.weight, "US", snapshotWith(nil, rule), "ref-4")
		if res.MarkupAmount != tc.want {
			t.Fatalf("weight %.1f: expected markup %.2f, got %.2f", tc.weight, tc.want, res.MarkupAmount)
		}
	}
}

func TestMarkupEngine_AuditOnlyWhenApplied(t *testing.T) {
	rec := &recordingEmitter{}
	engine := NewMarkupEngine(rec, zerolog.Nop())

	engine.Apply(100.00, domain.CarrierFedEx, 10, "US", snapshotWith(nil), "ref-5")
	if got := len(rec.byStage(domain.StageMarkup)); got != 0 {
		t.Fatalf("expected no markup events without matching rules, got %d", got)
	}

	engine.Apply(100.00, domain.CarrierFedEx, 10, "US", snapshotWith(nil,
		domain.MarkupRule{ID: "r1", Name: "flat", Type: domain.MarkupFixed, Value: 2, Active: true},
	), "ref-5")
	if got := len(rec.byStage(domain.StageMarkup)); got != 1 {
		t.Fatalf("expected 1 markup event, got %d", got)
	}
}
