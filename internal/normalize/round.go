package normalize

import "github.com/shopspring/decimal"

// Round rounds v half away from zero to the given number of decimal places.
// Scores are computed in full precision and rounded only when reported.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Round2 is Round to two decimals, the precision of every reported score.
func Round2(v float64) float64 { return Round(v, 2) }

// RoundPtr rounds a nullable score, keeping nil as nil.
func RoundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := Round2(*v)
	return &r
}

// scale multiplies in decimal so that unit conversions of short decimal
// inputs ("1.2 lakh") come out exact.
func scale(v, factor float64) float64 {
	f, _ := decimal.NewFromFloat(v).Mul(decimal.NewFromFloat(factor)).Float64()
	return f
}
