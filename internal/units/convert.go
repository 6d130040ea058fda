package units

type dimension int

const (
	dimMass dimension = iota + 1
	dimVolume
)

type measure struct {
	dim dimension
	// size of the unit in the base unit of its dimension (g or ml)
	base float64
}

var measures = map[string]measure{
	"g":  {dimMass, 1},
	"kg": {dimMass, 1000},
	"ml": {dimVolume, 1},
	"cl": {dimVolume, 10},
	"l":  {dimVolume, 1000},
}

// ConversionFactor reports how many `to` units fit in one `from` unit.
// Identical units (after normalization) always convert with factor 1, which
// covers counted units such as "個" or "本". Units of different dimensions
// or unknown units do not convert.
func ConversionFactor(from, to string) (float64, bool) {
	f, t := NormalizeUnit(from), NormalizeUnit(to)
	if f == t {
		return 1, true
	}
	mf, okF := measures[f]
	mt, okT := measures[t]
	if !okF || !okT || mf.dim != mt.dim {
		return 0, false
	}
	return mf.base / mt.base, true
}

// Compatible reports whether a quantity in unit a can be expressed in unit b.
func Compatible(a, b string) bool {
	_, ok := ConversionFactor(a, b)
	return ok
}

// ConvertQuantity expresses qty in unit `from` as a quantity in unit `to`.
func ConvertQuantity(qty float64, from, to string) (float64, bool) {
	factor, ok := ConversionFactor(from, to)
	if !ok {
		return 0, false
	}
	return qty * factor, true
}

// ConvertUnitPrice turns a price per `from` unit into a price per `to` unit.
func ConvertUnitPrice(pricePerFrom float64, from, to string) (float64, bool) {
	factor, ok := ConversionFactor(from, to)
	if !ok {
		return 0, false
	}
	return pricePerFrom / factor, true
}

// UnitPriceFor derives the price of one targetUnit from a packet that costs
// packetPrice and holds packetSize packetUnits. It returns false when the
// packet size is not positive or the units are incompatible.
func UnitPriceFor(packetPrice, packetSize float64, packetUnit, targetUnit string) (float64, bool) {
	if packetSize <= 0 {
		return 0, false
	}
	return ConvertUnitPrice(packetPrice/packetSize, packetUnit, targetUnit)
}
