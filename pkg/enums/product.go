package enums

// ProductUnit is the unit a product price is quoted in.
type ProductUnit string

const (
	ProductUnitKG     ProductUnit = "kg"
	ProductUnitLB     ProductUnit = "lb"
	ProductUnitPiece  ProductUnit = "piece"
	ProductUnitDozen  ProductUnit = "dozen"
	ProductUnitLiter  ProductUnit = "liter"
	ProductUnitGallon ProductUnit = "gallon"
	ProductUnitBunch  ProductUnit = "bunch"
	ProductUnitBag    ProductUnit = "bag"
)

var validProductUnits = []ProductUnit{
	ProductUnitKG,
	ProductUnitLB,
	ProductUnitPiece,
	ProductUnitDozen,
	ProductUnitLiter,
	ProductUnitGallon,
	ProductUnitBunch,
	ProductUnitBag,
}

func (u ProductUnit) IsValid() bool {
	return contains(validProductUnits, u)
}

func ParseProductUnit(value string) (ProductUnit, error) {
	return parse(validProductUnits, value, "product unit")
}

// Freshness describes how produce is preserved.
type Freshness string

const (
	FreshnessFresh  Freshness = "fresh"
	FreshnessFrozen Freshness = "frozen"
	FreshnessDried  Freshness = "dried"
)

var validFreshness = []Freshness{FreshnessFresh, FreshnessFrozen, FreshnessDried}

func (f Freshness) IsValid() bool {
	return contains(validFreshness, f)
}

func ParseFreshness(value string) (Freshness, error) {
	return parse(validFreshness, value, "freshness")
}

// Availability is the listing state shown to buyers.
type Availability string

const (
	AvailabilityAvailable    Availability = "available"
	AvailabilityOutOfStock   Availability = "out_of_stock"
	AvailabilityDiscontinued Availability = "discontinued"
)

var validAvailability = []Availability{AvailabilityAvailable, AvailabilityOutOfStock, AvailabilityDiscontinued}

func (a Availability) IsValid() bool {
	return contains(validAvailability, a)
}

func ParseAvailability(value string) (Availability, error) {
	return parse(validAvailability, value, "availability")
}
