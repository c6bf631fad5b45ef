package validate

import (
	"fmt"
	"math"

	"financial_report/pkg/core/resolve"
	"financial_report/pkg/core/schema"
	"financial_report/pkg/models"
)

// =============================================================================
// SELF-REPORTED INTEGRITY
// =============================================================================

// CheckIntegrity surfaces the balance sheet imbalances the document reports
// about itself. Figures are trusted, not recomputed.
func CheckIntegrity(doc models.Node, tag schema.Tag) []string {
	res := resolve.New(doc, tag)
	issues := []string{}

	if tag == schema.V6_0 {
		flags := doc.Path("verification", "balance_sheet_balances")
		for _, pk := range res.PeriodKeys() {
			if f := flags.Get(pk); f.Exists() && !f.Truthy() {
				issues = append(issues, fmt.Sprintf("%s: Balance Sheet does not balance", res.PeriodLabel(pk)))
			}
		}
		return issues
	}

	verification := doc.Path("integrity_check", "balance_sheet_verification")
	for _, pk := range res.PeriodKeys() {
		if v, ok := verification.Path(pk, "variance").Float(); ok && v != 0 {
			issues = append(issues, fmt.Sprintf("%s: Balance Sheet variance", res.PeriodLabel(pk)))
		}
	}
	return issues
}

// =============================================================================
// INDEPENDENT RECONCILIATION
// =============================================================================

// DefaultTolerance is the absolute difference, in reporting units, below
// which a period counts as balanced.
const DefaultTolerance = 1.0

// BalanceCheck verifies Assets = Liabilities + Equity for one period.
type BalanceCheck struct {
	Period           string  `json:"period"`
	Label            string  `json:"label"`
	TotalAssets      float64 `json:"total_assets"`
	TotalLiabilities float64 `json:"total_liabilities"`
	TotalEquity      float64 `json:"total_equity"`
	ComputedAssets   float64 `json:"computed_assets"` // L + E
	Difference       float64 `json:"difference"`
	IsBalanced       bool    `json:"is_balanced"`
	Tolerance        float64 `json:"tolerance"`
}

// CheckBalanceEquation validates A = L + E within tolerance.
func CheckBalanceEquation(assets, liabilities, equity, tolerance float64) *BalanceCheck {
	computed := liabilities + equity
	diff := assets - computed

	return &BalanceCheck{
		TotalAssets:      assets,
		TotalLiabilities: liabilities,
		TotalEquity:      equity,
		ComputedAssets:   computed,
		Difference:       diff,
		IsBalanced:       math.Abs(diff) <= tolerance,
		Tolerance:        tolerance,
	}
}

// Reconcile recomputes the balance equation from the balance sheet totals.
// It is informational only; periods missing total assets are skipped.
func Reconcile(doc models.Node, tag schema.Tag, tolerance float64) []*BalanceCheck {
	res := resolve.New(doc, tag)
	bs := res.BalanceSheet()
	var out []*BalanceCheck

	for _, pk := range res.PeriodKeys() {
		assets := resolve.Value(bs.Get("total_assets"), pk, nil)
		if assets == nil {
			continue
		}
		equity := sectionTotal(bs.Get("equity"), pk)
		liabilities := resolve.Value(bs.Get("total_liabilities"), pk, nil)
		if liabilities == nil {
			ncl := sectionTotal(bs.Get("non_current_liabilities"), pk)
			cl := sectionTotal(bs.Get("current_liabilities"), pk)
			l := ncl + cl
			liabilities = &l
		}
		check := CheckBalanceEquation(*assets, *liabilities, equity, tolerance)
		check.Period = pk
		check.Label = res.PeriodLabel(pk)
		out = append(out, check)
	}
	return out
}

func sectionTotal(section models.Node, pk string) float64 {
	return resolve.ValueOr(section.Get("total"), pk, 0)
}
