package export

import (
	"strings"
	"testing"

	"github.com/bindassguntupalli/hold-your-pocket/internal/core"
)

func TestWriteCSVEmpty(t *testing.T) {
	var b strings.Builder
	if err := WriteCSV(&b, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if got := b.String(); got != "Date,Category,Description,Amount\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestWriteCSVRows(t *testing.T) {
	expenses := []core.Expense{
		{
			Category:    core.CategoryFood,
			Amount:      core.Money{Cents: 1250},
			Date:        core.NewDate(2024, 3, 15),
			Description: "groceries",
		},
		{
			Category:    core.CategoryTravel,
			Amount:      core.Money{Cents: 19900},
			Date:        core.NewDate(2024, 3, 2),
			Description: "flight, one way",
		},
	}

	var b strings.Builder
	if err := WriteCSV(&b, expenses); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	want := "Date,Category,Description,Amount\n" +
		"2024-03-15,Food,groceries,12.50\n" +
		"2024-03-02,Travel,\"flight, one way\",199.00\n"
	if got := b.String(); got != want {
		t.Errorf("output mismatch\ngot:  %q\nwant: %q", got, want)
	}
}

func TestWriteCSVQuotesAndNewlines(t *testing.T) {
	expenses := []core.Expense{
		{
			Category:    core.CategoryOther,
			Amount:      core.Money{Cents: 100},
			Date:        core.NewDate(2024, 1, 1),
			Description: "said \"hi\"\nthen left",
		},
	}

	var b strings.Builder
	if err := WriteCSV(&b, expenses); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	want := "Date,Category,Description,Amount\n" +
		"2024-01-01,Other,\"said \"\"hi\"\"\nthen left\",1.00\n"
	if got := b.String(); got != want {
		t.Errorf("output mismatch\ngot:  %q\nwant: %q", got, want)
	}
}
