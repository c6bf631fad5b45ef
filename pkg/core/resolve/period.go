package resolve

import (
	"regexp"
	"strings"

	"financial_report/pkg/core/schema"
	"financial_report/pkg/models"
)

// PeriodType classifies the source of a reporting period.
type PeriodType string

const (
	Audited    PeriodType = "audited"
	Management PeriodType = "management"
	Unaudited  PeriodType = "unaudited"
	UnknownSrc PeriodType = "unknown"
)

var (
	daysSuffix   = regexp.MustCompile(`\s*-\s*\d+\s*days?\s*$`)
	fourDigit20  = regexp.MustCompile(`20\d{2}`)
	monthsEnded  = regexp.MustCompile(`(?i)(\d+)\s+months\s+ended\s+(\d+\s+\w+\s+\d+)`)
	monthYear    = regexp.MustCompile(`(\w+)\s+(\d{4})`)
	ytdKeyFormat = regexp.MustCompile(`^([a-z]+)(\d+)`)
)

// PeriodKeys returns the document's period keys in source order.
func (r *Resolver) PeriodKeys() []string {
	if r.Tag.IsV6Layout() {
		if keys := r.Doc.Path("company_info", "periods_analyzed").Keys(); len(keys) > 0 {
			return keys
		}
		return r.Doc.Path("statement_of_comprehensive_income", "revenue", "total", "values").Keys()
	}
	var keys []string
	r.Doc.Get("periods").Each(func(k string, v models.Node) bool {
		if v.IsObject() && v.Has("period_label") {
			keys = append(keys, k)
		}
		return true
	})
	return keys
}

// PeriodDescription returns the raw periods_analyzed description.
func (r *Resolver) PeriodDescription(pk string) string {
	return r.Doc.Path("company_info", "periods_analyzed", pk).Str()
}

// PeriodLabel derives the display label of a period.
func (r *Resolver) PeriodLabel(pk string) string {
	if !r.Tag.IsV6Layout() {
		return r.Doc.Path("periods", pk, "period_label").StrOr(pk)
	}
	desc := r.PeriodDescription(pk)
	if desc != "" {
		if label, ok := labelFromDescription(desc); ok {
			return label
		}
	}
	return labelFromKey(pk)
}

func labelFromDescription(desc string) (string, bool) {
	desc = strings.TrimSpace(daysSuffix.ReplaceAllString(desc, ""))
	if schema.HasSourceSuffix(desc) {
		return desc, true
	}
	if strings.Contains(desc, "Year ended") || strings.Contains(desc, "FY") {
		if year := fourDigit20.FindString(desc); year != "" {
			switch {
			case strings.Contains(desc, "Audited"):
				return "FY" + year, true
			case strings.Contains(desc, "Management"):
				return "FY" + year + " (MA)", true
			}
			return "FY" + year, true
		}
	}
	if strings.Contains(desc, "months ended") {
		if m := monthsEnded.FindStringSubmatch(desc); m != nil {
			if my := monthYear.FindStringSubmatch(m[2]); my != nil {
				mon := my[1]
				if len(mon) > 3 {
					mon = mon[:3]
				}
				return "YTD " + mon + " " + my[2], true
			}
		}
	}
	return "", false
}

func labelFromKey(pk string) string {
	lower := strings.ToLower(pk)
	switch {
	case strings.HasPrefix(lower, "fy"):
		return "FY" + strings.ReplaceAll(lower, "fy", "")
	case strings.HasPrefix(lower, "ytd_"):
		if m := ytdKeyFormat.FindStringSubmatch(lower[4:]); m != nil {
			return "YTD " + SnakeToTitle(m[1]) + " " + m[2]
		}
	}
	return strings.ReplaceAll(strings.ToUpper(pk), "_", " ")
}

// PeriodType classifies a period from its description.
func (r *Resolver) PeriodType(pk string) PeriodType {
	if !r.Tag.IsV6Layout() {
		t := r.Doc.Path("periods", pk, "type").Str()
		if t == "" {
			return UnknownSrc
		}
		return PeriodType(t)
	}
	desc := r.PeriodDescription(pk)
	switch {
	case strings.Contains(desc, "(Audited"):
		return Audited
	case strings.Contains(desc, "(MA)"), strings.Contains(desc, "Management"):
		return Management
	case strings.Contains(desc, "(Unaudited"):
		return Unaudited
	case strings.Contains(desc, "Audited"):
		return Audited
	}
	return UnknownSrc
}

// PeriodLabels maps each period key to its label.
func (r *Resolver) PeriodLabels(periods []string) map[string]string {
	out := make(map[string]string, len(periods))
	for _, pk := range periods {
		out[pk] = r.PeriodLabel(pk)
	}
	return out
}
