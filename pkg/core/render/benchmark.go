package render

import (
	"math"
	"strconv"
	"strings"

	"financial_report/pkg/models"
)

// BenchmarkStatus is the outcome of comparing a ratio against its benchmark.
type BenchmarkStatus string

const (
	BenchmarkPass    BenchmarkStatus = "pass"
	BenchmarkFail    BenchmarkStatus = "fail"
	BenchmarkNeutral BenchmarkStatus = ""
)

// Tone maps a status to a cell tone.
func (s BenchmarkStatus) Tone() Tone {
	switch s {
	case BenchmarkPass:
		return Success
	case BenchmarkFail:
		return Danger
	}
	return Neutral
}

// two-character operators first so ">=" is not read as ">".
var benchmarkOps = []string{">=", "<=", ">", "<"}

// CheckBenchmark compares value against a benchmark such as ">= 1.25x" or
// "< 60%". Anything unparseable is neutral.
func CheckBenchmark(value float64, benchmark string) BenchmarkStatus {
	b := strings.TrimSpace(benchmark)
	for _, op := range benchmarkOps {
		if !strings.HasPrefix(b, op) {
			continue
		}
		num := strings.TrimSpace(b[len(op):])
		num = strings.TrimSpace(strings.TrimRight(num, "x%"))
		threshold, err := strconv.ParseFloat(num, 64)
		if err != nil || math.IsNaN(threshold) {
			return BenchmarkNeutral
		}
		var ok bool
		switch op {
		case ">=":
			ok = value >= threshold
		case "<=":
			ok = value <= threshold
		case ">":
			ok = value > threshold
		case "<":
			ok = value < threshold
		}
		if ok {
			return BenchmarkPass
		}
		return BenchmarkFail
	}
	return BenchmarkNeutral
}

// dualEpsilon is the minimum gap between standard and period-adjusted values
// for the adjusted figure to be shown.
const dualEpsilon = 0.1

// dualCells compares two period maps and renders the adjusted value where it
// differs from the standard one. ok is false when no period differs.
func (g *grid) dualCells(std, adjusted models.Node, format func(pk string, v float64) string) ([]Cell, bool) {
	differs := false
	cells := g.cells(func(pk string) Cell {
		a, aok := adjusted.Get(pk).Float()
		s, sok := std.Get(pk).Float()
		if aok && sok && math.Abs(a-s) > dualEpsilon {
			differs = true
			return Cell{Value: &a, Text: format(pk, a)}
		}
		return TextCell("-")
	})
	return cells, differs
}
