package render

import (
	"time"

	"financial_report/pkg/core/resolve"
	"financial_report/pkg/core/schema"
	"financial_report/pkg/core/validate"
	"financial_report/pkg/models"
)

// Renderer projects a resolved document into one report section.
type Renderer func(r *resolve.Resolver, periods []string) Section

// Sections lists the body renderers in report order.
var Sections = []Renderer{
	Notes,
	AuditOpinion,
	PnL,
	BalanceSheet,
	Ratios,
	WorkingCapital,
	FundingMismatch,
	FundingProfile,
	DSCR,
	TNW,
	Integrity,
	Observations,
}

// Report is the assembled, writer-independent report model.
type Report struct {
	Schema       schema.Tag        `json:"schema"`
	Currency     string            `json:"currency"`
	Periods      []string          `json:"periods"`
	PeriodLabels map[string]string `json:"period_labels"`
	Validation   validate.Result   `json:"validation"`
	Integrity    []string          `json:"integrity"`
	Header       Header            `json:"header"`
	Banner       string            `json:"banner"`
	Nav          []NavLink         `json:"nav"`
	Sections     []Section         `json:"sections"`
	Footer       Footer            `json:"footer"`
}

// Section returns the rendered section with the given id.
func (rep *Report) Section(id string) (Section, bool) {
	for _, s := range rep.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// BuildReport classifies, validates and renders a document. Hard validation
// errors return a *validate.ValidationError and no report.
func BuildReport(doc models.Node) (*Report, error) {
	return BuildReportAt(doc, time.Now())
}

// BuildReportAt is BuildReport with a fixed generation time.
func BuildReportAt(doc models.Node, now time.Time) (*Report, error) {
	tag := schema.Classify(doc)
	result := validate.Validate(doc, tag)
	if err := result.Err(); err != nil {
		return nil, err
	}
	return Render(doc, tag, result, now), nil
}

// Render projects an already classified and validated document. Sections
// with no content are dropped.
func Render(doc models.Node, tag schema.Tag, result validate.Result, now time.Time) *Report {
	r := resolve.New(doc, tag)
	periods := r.PeriodKeys()

	rep := &Report{
		Schema:       tag,
		Currency:     r.Currency(),
		Periods:      periods,
		PeriodLabels: r.PeriodLabels(periods),
		Validation:   result,
		Integrity:    validate.CheckIntegrity(doc, tag),
		Header:       BuildHeader(r, periods, now),
		Banner:       ConfidentialBanner,
		Nav:          Navigation,
		Footer:       BuildFooter(r, now),
	}
	for _, render := range Sections {
		if s := render(r, periods); !s.Empty() {
			rep.Sections = append(rep.Sections, s)
		}
	}
	return rep
}
