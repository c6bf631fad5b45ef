package render

import (
	"fmt"

	"financial_report/pkg/core/resolve"
)

// Notes lists the source document of each period and the schema version.
func Notes(r *resolve.Resolver, periods []string) Section {
	sec := Section{
		ID:       "notes",
		Title:    "Notes on Financial Reports",
		Subtitle: "Source documents and analysis basis",
		Icon:     "📋",
	}
	var docs []Item
	for _, pk := range periods {
		source := "Management Accounts"
		if r.PeriodType(pk) == resolve.Audited {
			source = "Audited"
		}
		docs = append(docs, Item{Label: r.PeriodLabel(pk), Text: source})
	}
	sec.addList("Source Documents", docs)

	basis := []Item{{Label: "Schema Version", Text: string(r.Tag)}}
	ci := r.CompanyInfo()
	if ci.Get("sme_qualified").Truthy() {
		basis = append(basis, Item{Label: "SME Status", Text: fmt.Sprintf("Qualified (%s)", ci.Get("sme_qualification_note").Str())})
	}
	sec.addFields("Analysis Basis", basis)
	return sec
}
