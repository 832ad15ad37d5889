package normalize

import (
	"encoding/json"
	"math"
	"testing"
)

const floatTolerance = 1e-6

func approxEqual(a, b float64) bool { return math.Abs(a-b) <= floatTolerance }

func TestParse_Rules(t *testing.T) {
	tests := []struct {
		name     string
		in       any
		want     float64
		wantUnit Unit
		wantRule string
	}{
		{"percentage", "84.7%", 84.7, UnitPercent, "percent"},
		{"percentage with text", "Placement rate: 92 %", 92, UnitPercent, "percent"},
		{"lpa", "4.2 LPA", 4.2, UnitLPA, "lpa"},
		{"lpa dotted", "6 L.P.A.", 6, UnitLPA, "lpa"},
		{"lakh", "1.2 lakh", 120000, UnitINR, "lakh"},
		{"lakhs plural", "12 Lakhs", 1200000, UnitINR, "lakh"},
		{"lac", "3 lacs", 300000, UnitINR, "lakh"},
		{"crore", "5 Cr", 50000000, UnitINR, "crore"},
		{"crore words", "2.5 crores", 25000000, UnitINR, "crore"},
		{"rupee symbol", "₹85,000", 85000, UnitINR, "currency"},
		{"rs prefix", "Rs. 1,25,000", 125000, UnitINR, "currency"},
		{"inr prefix", "INR 85000", 85000, UnitINR, "currency"},
		{"sq ft", "18,500 sq. ft", 18500 * SqftToSqm, UnitSqm, "sqft"},
		{"sqft", "1000 sqft", 1000 * SqftToSqm, UnitSqm, "sqft"},
		{"square feet", "200 square feet", 200 * SqftToSqm, UnitSqm, "sqft"},
		{"acres", "5 acres", 5 * AcreToSqm, UnitSqm, "acres"},
		{"hectares", "2 hectares", 20000, UnitSqm, "hectares"},
		{"sqm", "1718.7055 sqm", 1718.7055, UnitSqm, "sqm"},
		{"sq m", "450 sq. m.", 450, UnitSqm, "sqm"},
		{"square meters", "12,000 square meters", 12000, UnitSqm, "sqm"},
		{"count with noise", "1840 students", 1840, UnitCount, "number"},
		{"total prefix", "Total: 1,200", 1200, UnitCount, "number"},
		{"plain decimal string", "84.76", 84.76, UnitCount, "number"},
		{"negative count", "-5", -5, UnitCount, "number"},
		{"academic year dash is not a sign", "2023-24", 2023, UnitCount, "number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			if !got.OK {
				t.Fatalf("Parse(%v) not OK", tt.in)
			}
			if !approxEqual(got.Value, tt.want) {
				t.Fatalf("Parse(%v) = %v, want %v", tt.in, got.Value, tt.want)
			}
			if got.Unit != tt.wantUnit {
				t.Fatalf("Parse(%v) unit = %q, want %q", tt.in, got.Unit, tt.wantUnit)
			}
			if got.Rule != tt.wantRule {
				t.Fatalf("Parse(%v) rule = %q, want %q", tt.in, got.Rule, tt.wantRule)
			}
		})
	}
}

func TestParse_Absent(t *testing.T) {
	for _, in := range []any{nil, "", "N/A", "none", "null", "not available", true, []any{1}, map[string]any{"a": 1}} {
		if got := Parse(in); got.OK {
			t.Errorf("Parse(%#v) = %v, want not OK", in, got.Value)
		}
	}
}

func TestParse_NumbersPassThrough(t *testing.T) {
	for _, in := range []any{84.76, 0.0, -3.5, 1e7} {
		got := Parse(in)
		if !got.OK || got.Value != in.(float64) {
			t.Errorf("Parse(%v) = %+v, want unchanged", in, got)
		}
	}
	if v, ok := Value(json.Number("42.5")); !ok || v != 42.5 {
		t.Errorf("Value(json.Number) = %v, %v", v, ok)
	}
	if v, ok := Value(7); !ok || v != 7 {
		t.Errorf("Value(int) = %v, %v", v, ok)
	}
}

func TestParse_Idempotent(t *testing.T) {
	for _, in := range []string{"84.7%", "4.2 LPA", "1.2 lakh", "18,500 sq. ft", "5 acres", "1840 students"} {
		first := Parse(in)
		second := Parse(first.Value)
		if !second.OK || second.Value != first.Value {
			t.Errorf("Parse(Parse(%q)) = %v, want %v", in, second.Value, first.Value)
		}
	}
}

func TestParse_LPAKeepsValueAndCarriesINR(t *testing.T) {
	for _, n := range []float64{0.5, 3, 4.2, 12.75, 44} {
		got := Parse(formatFloat(n) + " LPA")
		if !approxEqual(got.Value, n) {
			t.Fatalf("Parse(%v LPA) = %v, want %v", n, got.Value, n)
		}
		if !got.IsLPA || !got.HasINR || !approxEqual(got.INR, n*LPAToINR) {
			t.Fatalf("Parse(%v LPA) side channel = %+v", n, got)
		}
	}
}

func TestParse_SqftRoundTrip(t *testing.T) {
	for _, x := range []float64{1, 250, 1000, 18500, 123456.5} {
		sqft := Parse(formatFloat(x) + " sqft")
		sqm := Parse(formatFloat(math.Round(x*SqftToSqm*1e6)/1e6) + " sqm")
		if !sqft.OK || !sqm.OK {
			t.Fatalf("round trip for %v: sqft=%+v sqm=%+v", x, sqft, sqm)
		}
		if math.Abs(sqft.Value-sqm.Value) > 1e-5 {
			t.Fatalf("round trip for %v: %v != %v", x, sqft.Value, sqm.Value)
		}
	}
}

func formatFloat(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

func TestRound(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{84.7619047, 84.76},
		{84.765, 84.77},
		{-1.005, -1.01},
		{100, 100},
		{0.125, 0.13},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if RoundPtr(nil) != nil {
		t.Fatalf("RoundPtr(nil) must stay nil")
	}
}
