// Package trend splits a batch's blocks by academic year, scores every year
// with the KPI engine and describes how each KPI moved across the years.
package trend

import (
	"fmt"
	"math"
	"sort"

	"github.com/idlab-discover/instiscore/internal/aggregate"
	"github.com/idlab-discover/instiscore/internal/block"
	"github.com/idlab-discover/instiscore/internal/kpi"
	"github.com/idlab-discover/instiscore/internal/normalize"
	"github.com/idlab-discover/instiscore/internal/rules"
)

const insufficientHistory = "Insufficient historical data"

// Year is the KPI set computed from one academic year's data. A nil value
// means the KPI was not measurable that year.
type Year struct {
	Year int                 `json:"year"`
	KPIs map[kpi.ID]*float64 `json:"kpis"`
}

// Series describes one KPI across the years where it was measured.
// Min, Max and Avg are nil when fewer than two points exist.
type Series struct {
	KPI        kpi.ID   `json:"kpi"`
	Slope      float64  `json:"slope"`
	Volatility float64  `json:"volatility"`
	Min        *float64 `json:"min,omitempty"`
	Max        *float64 `json:"max,omitempty"`
	Avg        *float64 `json:"avg,omitempty"`
	Insight    string   `json:"insight"`
	DataPoints int      `json:"data_points"`
}

// Report is the year-wise view of a batch.
type Report struct {
	Years             []int    `json:"years_available"`
	PerYear           []Year   `json:"kpis_per_year"`
	Trends            []Series `json:"trends"`
	HasHistoricalData bool     `json:"has_historical_data"`
}

// Trend returns the series for id.
func (r Report) Trend(id kpi.ID) (Series, bool) {
	for _, s := range r.Trends {
		if s.KPI == id {
			return s, true
		}
	}
	return Series{}, false
}

// Analyzer computes year-wise reports. It is safe for concurrent use.
type Analyzer struct {
	rules  *rules.RuleSet
	kpi    *kpi.Engine
	policy rules.TrendPolicy
}

func NewAnalyzer(rs *rules.RuleSet, engine *kpi.Engine) *Analyzer {
	p := rs.Policy.Trend
	if p.MinYearFields <= 0 {
		p.MinYearFields = 2
	}
	if p.MinPoints < 2 {
		p.MinPoints = 2
	}
	return &Analyzer{rules: rs, kpi: engine, policy: p}
}

// Analyze groups the fields of blocks by year and scores each year that
// carries at least MinYearFields positive numbers. Blocks flagged invalid
// are ignored. Zero KPI values count as not measured.
func (a *Analyzer) Analyze(batchID string, mode rules.Mode, blocks []*block.Block) Report {
	byYear := collect(blocks)

	rep := Report{Years: []int{}, PerYear: []Year{}, Trends: []Series{}}
	for _, y := range sortedYears(byYear) {
		if positiveNumbers(byYear[y]) < a.policy.MinYearFields {
			logf(batchID, "year %d skipped: too few numeric fields", y)
			continue
		}
		rep.Years = append(rep.Years, y)
		rep.PerYear = append(rep.PerYear, a.scoreYear(mode, byYear[y]))
	}
	rep.HasHistoricalData = len(rep.Years) >= 2

	for _, id := range a.kpiOrder(mode) {
		rep.Trends = append(rep.Trends, a.series(id, rep.PerYear))
	}
	logf(batchID, "%d years with data", len(rep.Years))
	return rep
}

func (a *Analyzer) kpiOrder(mode rules.Mode) []kpi.ID {
	specs := a.rules.KPIs(mode)
	ids := make([]kpi.ID, 0, len(specs)+1)
	for _, s := range specs {
		ids = append(ids, kpi.ID(s.ID))
	}
	return append(ids, kpi.OverallScore)
}

// scoreYear rebuilds one block per type from the year's fields and runs
// them through enrichment and the KPI engine like a live batch.
func (a *Analyzer) scoreYear(mode rules.Mode, types map[string]map[string]any) Year {
	names := make([]string, 0, len(types))
	for t := range types {
		names = append(names, t)
	}
	sort.Strings(names)

	blocks := make([]*block.Block, 0, len(names))
	for _, t := range names {
		b := block.New(t, types[t])
		block.Enrich(b, a.rules)
		blocks = append(blocks, b)
	}
	results := a.kpi.Evaluate(mode, aggregate.Merge(blocks))

	out := Year{KPIs: map[kpi.ID]*float64{}}
	all := append(append([]kpi.Result{}, results.KPIs...), results.Overall)
	for _, r := range all {
		if r.Value != nil && *r.Value > 0 {
			v := *r.Value
			out.KPIs[r.ID] = &v
		} else {
			out.KPIs[r.ID] = nil
		}
	}
	return out
}

func (a *Analyzer) series(id kpi.ID, years []Year) Series {
	var xs []int
	var vs []float64
	for _, y := range years {
		if v := y.KPIs[id]; v != nil {
			xs = append(xs, y.Year)
			vs = append(vs, *v)
		}
	}
	s := Series{KPI: id, DataPoints: len(vs), Insight: insufficientHistory}
	if len(vs) < a.policy.MinPoints {
		return s
	}

	if span := xs[len(xs)-1] - xs[0]; span != 0 {
		s.Slope = (vs[len(vs)-1] - vs[0]) / float64(span)
	}
	s.Volatility = stddev(vs)
	s.Insight = a.insight(s.Slope, s.Volatility)
	s.Slope = normalize.Round2(s.Slope)
	s.Volatility = normalize.Round2(s.Volatility)

	lo, hi, sum := vs[0], vs[0], 0.0
	for _, v := range vs {
		lo, hi, sum = math.Min(lo, v), math.Max(hi, v), sum+v
	}
	avg := sum / float64(len(vs))
	s.Min, s.Max, s.Avg = normalize.RoundPtr(&lo), normalize.RoundPtr(&hi), normalize.RoundPtr(&avg)
	return s
}

func (a *Analyzer) insight(slope, volatility float64) string {
	p := a.policy
	direction := "Stable"
	switch {
	case slope > p.StrongSlope:
		direction = "Strong growth"
	case slope > p.ModerateSlope:
		direction = "Moderate growth"
	case slope < -p.StrongSlope:
		direction = "Significant decline"
	case slope < -p.ModerateSlope:
		direction = "Slight decline"
	}

	stability := "fairly stable"
	switch {
	case volatility > p.HighVolatility:
		stability = "highly irregular"
	case volatility > p.ModerateVolatility:
		stability = "moderate fluctuations"
	case volatility < p.LowVolatility:
		stability = "very consistent"
	}
	return fmt.Sprintf("%s (%+.1f/year), %s (±%.1f)", direction, slope, stability, volatility)
}

// stddev is the sample standard deviation.
func stddev(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	var mean float64
	for _, v := range vs {
		mean += v
	}
	mean /= float64(len(vs))
	var ss float64
	for _, v := range vs {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(vs)-1))
}
