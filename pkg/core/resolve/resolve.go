// Package resolve locates semantically equivalent data across schema
// generations. Every function is total: absent fields produce defaults.
package resolve

import (
	"strings"

	"financial_report/pkg/core/schema"
	"financial_report/pkg/models"
)

// Logical names a root section independently of the schema generation.
type Logical int

const (
	IncomeStatement Logical = iota
	BalanceSheet
	CompanyInfo
)

// rootKeys maps logical sections to {v6+ key, legacy key}.
var rootKeys = map[Logical][2]string{
	IncomeStatement: {"statement_of_comprehensive_income", "income_statement"},
	BalanceSheet:    {"statement_of_financial_position", "balance_sheet"},
	CompanyInfo:     {"company_info", "company"},
}

// Resolver binds a document to its classified tag. It is a read-only view and
// safe to share.
type Resolver struct {
	Doc models.Node
	Tag schema.Tag
}

// New creates a resolver for an already classified document.
func New(doc models.Node, tag schema.Tag) *Resolver {
	return &Resolver{Doc: doc, Tag: tag}
}

// Section returns the tag-appropriate root section for a logical name.
func (r *Resolver) Section(l Logical) models.Node {
	keys, ok := rootKeys[l]
	if !ok {
		return models.Missing
	}
	if r.Tag.IsV6Layout() {
		return r.Doc.Get(keys[0])
	}
	return r.Doc.Get(keys[1])
}

// IncomeStatement is Section(IncomeStatement).
func (r *Resolver) IncomeStatement() models.Node { return r.Section(IncomeStatement) }

// BalanceSheet is Section(BalanceSheet).
func (r *Resolver) BalanceSheet() models.Node { return r.Section(BalanceSheet) }

// CompanyInfo is Section(CompanyInfo).
func (r *Resolver) CompanyInfo() models.Node { return r.Section(CompanyInfo) }

// Currency returns _schema_info.currency_unit, defaulting to "RM".
func (r *Resolver) Currency() string {
	return r.Doc.Path("_schema_info", "currency_unit").StrOr("RM")
}

// CompanyName returns legal_name, then name, then def.
func (r *Resolver) CompanyName(def string) string {
	ci := r.CompanyInfo()
	if s := ci.Get("legal_name").Str(); s != "" {
		return s
	}
	return ci.Get("name").StrOr(def)
}

// =============================================================================
// VALUES
// =============================================================================

// F returns a pointer to v.
func F(v float64) *float64 { return &v }

// Zero is the default used where a missing figure should read as 0.
func Zero() *float64 { return F(0) }

// ValueNode finds the node holding a line item's value for a period. A
// non-empty "values" object pins the lookup; otherwise a non-empty
// "values_standard" object pins it; otherwise legacy "amount.values" is read.
// found is false when the pinned tier lacks the period.
func ValueNode(item models.Node, pk string) (models.Node, bool) {
	if !item.IsObject() {
		return models.Missing, false
	}
	for _, tier := range []string{"values", "values_standard"} {
		c := item.Get(tier)
		if c.NonEmptyObject() {
			v := c.Get(pk)
			return v, v.Exists()
		}
	}
	v := item.Path("amount", "values", pk)
	return v, v.Exists()
}

// Value returns the period value of a line item. def is returned when the
// period is not present; a present null yields nil.
func Value(item models.Node, pk string, def *float64) *float64 {
	v, ok := ValueNode(item, pk)
	if !ok {
		return def
	}
	return v.FloatPtr()
}

// ValueOr is Value with a scalar default and nil mapped to def.
func ValueOr(item models.Node, pk string, def float64) float64 {
	if v := Value(item, pk, nil); v != nil {
		return *v
	}
	return def
}

// Margin reads a legacy margin_pct.values entry.
func Margin(item models.Node, pk string, def *float64) *float64 {
	v := item.Path("margin_pct", "values", pk)
	if !v.Exists() {
		return def
	}
	return v.FloatPtr()
}

// SeriesValue reads container[pk] from a plain period map.
func SeriesValue(container models.Node, pk string, def *float64) *float64 {
	v := container.Get(pk)
	if !v.Exists() {
		return def
	}
	return v.FloatPtr()
}

// AnyValue reports whether the item has a non-nil value for some period.
func AnyValue(item models.Node, periods []string) bool {
	for _, pk := range periods {
		if Value(item, pk, nil) != nil {
			return true
		}
	}
	return false
}

// AnyNonZero reports whether the item has a non-zero value for some period.
func AnyNonZero(item models.Node, periods []string) bool {
	for _, pk := range periods {
		if v := Value(item, pk, nil); v != nil && *v != 0 {
			return true
		}
	}
	return false
}

// =============================================================================
// DISPLAY NAMES
// =============================================================================

// SnakeToTitle converts "trade_receivables" to "Trade Receivables".
func SnakeToTitle(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
	}
	return strings.Join(parts, " ")
}

// DisplayName resolves display_name, then _display_name, then the key.
func DisplayName(item models.Node, key string) string {
	for _, k := range []string{"display_name", "_display_name"} {
		if v := item.Get(k); v.IsString() {
			return v.Str()
		}
	}
	return SnakeToTitle(key)
}

var ratioDisplayNames = map[string]string{
	"gross_profit_margin":     "Gross Profit Margin",
	"operating_profit_margin": "Operating Profit Margin",
	"pbt_margin":              "PBT Margin",
	"net_profit_margin":       "Net Profit Margin",
	"ebitda_margin":           "EBITDA Margin",
	"roa":                     "ROA",
	"roe":                     "ROE",
	"current_ratio":           "Current Ratio",
	"quick_ratio":             "Quick Ratio",
	"cash_ratio":              "Cash Ratio",
	"liabilities_to_equity":   "Liabilities-to-Equity",
	"liabilities_to_assets":   "Liabilities-to-Assets",
	"debt_to_equity":          "Debt-to-Equity",
	"debt_to_assets":          "Debt-to-Assets",
	"equity_ratio":            "Equity Ratio",
	"gearing_ratio":           "Gearing Ratio",
	"interest_coverage":       "Interest Coverage",
	"dscr":                    "DSCR",
	"asset_turnover":          "Asset Turnover",
	"receivables_turnover":    "Receivables Turnover",
	"debtor_days":             "Debtor Days",
	"creditor_days":           "Creditor Days",
	"inventory_days":          "Inventory Turnover Days",
	"inventory_turnover":      "Inventory Turnover",
	"cash_conversion_cycle":   "Cash Conversion Cycle",
	"working_capital":         "Working Capital",
	"working_capital_ratio":   "Working Capital Ratio",
}

// RatioDisplayName returns the registered name of a ratio key.
func RatioDisplayName(key string) string {
	if n, ok := ratioDisplayNames[key]; ok {
		return n
	}
	return SnakeToTitle(key)
}
