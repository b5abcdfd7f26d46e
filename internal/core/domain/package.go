package domain

// dimDivisor is the volumetric (DIM) divisor for inches/pounds.
const dimDivisor = 139.0

// LinearDimensionThreshold is the length + girth limit (inches) above which
// volumetric pricing supersedes per-pound pricing in the fallback tables.
const LinearDimensionThreshold = 108.0

// Dimensions are package measurements in inches.
type Dimensions struct {
	LengthIn float64 `json:"length_in" bson:"length_in"`
	WidthIn  float64 `json:"width_in" bson:"width_in"`
	HeightIn float64 `json:"height_in" bson:"height_in"`
}

// LinearSize returns length + girth (L + 2W + 2H), the measure carriers use
// for oversize classification.
func (d Dimensions) LinearSize() float64 {
	return d.LengthIn + 2*d.WidthIn + 2*d.HeightIn
}

// VolumetricWeight returns the dimensional weight in pounds.
func (d Dimensions) VolumetricWeight() float64 {
	return d.LengthIn * d.WidthIn * d.HeightIn / dimDivisor
}

// Item is a single article inside a package with its handling classification.
type Item struct {
	Description string `json:"description" bson:"description"`
	IsDangerous bool   `json:"is_dangerous" bson:"is_dangerous"`
	IsFragile   bool   `json:"is_fragile" bson:"is_fragile"`
	IsOversized bool   `json:"is_oversized" bson:"is_oversized"`
}

// PackageDescriptor describes one parcel in a shipment. It is a read-only
// input to the pricing pipeline: created from persisted package records at
// quote time and never mutated afterwards.
type PackageDescriptor struct {
	ID            string     `json:"id" bson:"id"`
	WeightLb      float64    `json:"weight_lb" bson:"weight_lb"`
	Dimensions    Dimensions `json:"dimensions" bson:"dimensions"`
	DeclaredValue float64    `json:"declared_value" bson:"declared_value"`
	Items         []Item     `json:"items,omitempty" bson:"items,omitempty"`
}

// BilledWeight returns max(physical, volumetric), the weight carriers
// actually charge on.
func (p PackageDescriptor) BilledWeight() float64 {
	vol := p.Dimensions.VolumetricWeight()
	if vol > p.WeightLb {
		return vol
	}
	return p.WeightLb
}

// TotalBilledWeight sums the billed weight of all packages.
func TotalBilledWeight(packages []PackageDescriptor) float64 {
	var total float64
	for _, p := range packages {
		total += p.BilledWeight()
	}
	return total
}

// TotalDeclaredValue sums the declared value of all packages.
func TotalDeclaredValue(packages []PackageDescriptor) float64 {
	var total float64
	for _, p := range packages {
		total += p.DeclaredValue
	}
	return total
}
