package patterns

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"PublicationsMonitor/internal/domain"
)

func TestDefaultRegistryOrder(t *testing.T) {
	t.Parallel()

	reg := Default()
	require.Equal(t, 7, reg.Len())

	ids := make([]string, 0, reg.Len())
	for _, e := range reg.Entries() {
		ids = append(ids, e.ID)
	}
	require.Equal(t, []string{
		"monthly_business_survey",
		"macroeconomic_projections",
		"financial_stability_report",
		"letter_to_president",
		"balance_of_payments",
		"observatory_payment_security",
		"annual_report",
	}, ids)

	fsr, ok := reg.Lookup("financial_stability_report")
	require.True(t, ok)
	require.Equal(t, domain.PriorityHighest, fsr.Priority)
	require.Equal(t, "Financial Stability Report", fsr.Title)

	_, ok = reg.Lookup("test")
	require.False(t, ok)
}

func TestMatchIsCaseInsensitiveAndFirstWins(t *testing.T) {
	t.Parallel()

	reg := Default()

	e, ok := reg.Match("FINANCIAL STABILITY REPORT – June 2025")
	require.True(t, ok)
	require.Equal(t, "financial_stability_report", e.ID)

	// Both the survey and the projections patterns match; the survey comes first.
	e, ok = reg.Match("Monthly business survey and macroeconomic projections")
	require.True(t, ok)
	require.Equal(t, "monthly_business_survey", e.ID)

	e, ok = reg.Match("Balance of payments and international investment position 2024")
	require.True(t, ok)
	require.Equal(t, "balance_of_payments", e.ID)

	_, ok = reg.Match("Press releases")
	require.False(t, ok)
}

func TestNewRejectsInvalidEntries(t *testing.T) {
	t.Parallel()

	good := Entry{ID: "a", Title: "A", Pattern: regexp.MustCompile("a"), Priority: domain.PriorityLow}

	_, err := New(good, good)
	require.Error(t, err)

	_, err = New(Entry{ID: "b", Title: "B", Priority: domain.PriorityLow})
	require.Error(t, err)

	_, err = New(Entry{ID: "c", Title: "C", Pattern: regexp.MustCompile("c"), Priority: "Urgent"})
	require.Error(t, err)

	_, err = Compile("bad", "Bad", "(unclosed", domain.PriorityLow)
	require.Error(t, err)
}

func TestEntriesReturnsCopy(t *testing.T) {
	t.Parallel()

	reg := Default()
	entries := reg.Entries()
	entries[0].ID = "mutated"

	first := reg.Entries()[0]
	require.Equal(t, "monthly_business_survey", first.ID)
}
