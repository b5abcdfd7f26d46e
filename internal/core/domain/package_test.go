package domain

import (
	"math"
	"testing"
)

func TestBilledWeight_VolumetricWins(t *testing.T) {
	// 20x20x20 = 8000 in³ / 139 ≈ 57.55 lb, above the 10 lb physical weight.
	p := PackageDescriptor{WeightLb: 10, Dimensions: Dimensions{LengthIn: 20, WidthIn: 20, HeightIn: 20}}

	got := p.BilledWeight()
	want := 8000.0 / 139.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected volumetric %.4f, got %.4f", want, got)
	}
}

func TestBilledWeight_PhysicalWins(t *testing.T) {
	// 6x6x6 = 216 in³ / 139 ≈ 1.55 lb, below the 10 lb physical weight.
	p := PackageDescriptor{WeightLb: 10, Dimensions: Dimensions{LengthIn: 6, WidthIn: 6, HeightIn: 6}}

	if got := p.BilledWeight(); got != 10 {
		t.Fatalf("expected physical 10, got %.4f", got)
	}
}

func TestLinearSize(t *testing.T) {
	d := Dimensions{LengthIn: 60, WidthIn: 20, HeightIn: 20}
	if got := d.LinearSize(); got != 140 {
		t.Fatalf("expected 140, got %.1f", got)
	}
	if d.LinearSize() <= LinearDimensionThreshold {
		t.Fatalf("expected size above the threshold")
	}
}

func TestTotalBilledWeight(t *testing.T) {
	packages := []PackageDescriptor{
		{WeightLb: 10, Dimensions: Dimensions{LengthIn: 6, WidthIn: 6, HeightIn: 6}},
		{WeightLb: 5, Dimensions: Dimensions{LengthIn: 6, WidthIn: 6, HeightIn: 6}},
	}
	if got := TotalBilledWeight(packages); got != 15 {
		t.Fatalf("expected 15, got %.4f", got)
	}
}
