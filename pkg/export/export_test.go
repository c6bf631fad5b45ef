package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFilename(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		company, ext, want string
	}{
		{"Acme Sdn. Bhd.", "html", "Acme_Sdn__Bhd__Financial_Analysis_20260309.html"},
		{"", ".xlsx", "Financial_Report_Financial_Analysis_20260309.xlsx"},
		{"A/B & Co", "pdf", "A_B___Co_Financial_Analysis_20260309.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Filename(tt.company, now, tt.ext), tt.company)
	}
}

func TestColumns(t *testing.T) {
	assert.Equal(t, []string{"FY2024", "(Audited)"}, ColumnLines("FY2024\n(Audited)"))
	assert.Equal(t, "FY2024 (Audited)", FlatColumn("FY2024\n(Audited)"))
	assert.Equal(t, "Item", FlatColumn("Item"))
}
