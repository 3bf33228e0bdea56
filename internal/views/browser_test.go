package views

import (
	"fmt"
	"testing"

	"github.com/mr1hm/disaster-dashboard/internal/models"
)

func makeRecords(n int) []models.Record {
	records := make([]models.Record, n)
	for i := range records {
		records[i] = models.Record{Text: fmt.Sprintf("tweet %d", i), Relevance: "relevant"}
	}
	return records
}

func TestPaginate_LastPartialPage(t *testing.T) {
	records := makeRecords(25)

	p := Paginate(records, 3)

	if p.Number != 3 || p.TotalPages != 3 {
		t.Errorf("expected page 3 of 3, got %d of %d", p.Number, p.TotalPages)
	}
	if len(p.Records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(p.Records))
	}
	if p.Start != 20 || p.End != 25 {
		t.Errorf("expected window [20,25), got [%d,%d)", p.Start, p.End)
	}
	if p.Records[0].Text != "tweet 20" || p.Records[4].Text != "tweet 24" {
		t.Errorf("unexpected records: %q .. %q", p.Records[0].Text, p.Records[4].Text)
	}
}

func TestPaginate_ClampsOutOfRange(t *testing.T) {
	records := makeRecords(25)

	tests := []struct {
		page     int
		wantPage int
	}{
		{0, 1},
		{-3, 1},
		{4, 3},
		{len(records) + 100, 3},
	}

	for _, tt := range tests {
		p := Paginate(records, tt.page)
		want := Paginate(records, tt.wantPage)

		if p.Number != tt.wantPage {
			t.Errorf("page %d clamped to %d, want %d", tt.page, p.Number, tt.wantPage)
		}
		if fmt.Sprint(p.Records) != fmt.Sprint(want.Records) {
			t.Errorf("page %d records differ from boundary page %d", tt.page, tt.wantPage)
		}
	}
}

func TestPaginate_PartitionsDataset(t *testing.T) {
	for _, n := range []int{1, 9, 10, 11, 20, 37} {
		records := makeRecords(n)
		first := Paginate(records, 1)

		seen := make(map[string]int)
		for page := 1; page <= first.TotalPages; page++ {
			for _, r := range Paginate(records, page).Records {
				seen[r.Text]++
			}
		}

		wantPages := (n + PageSize - 1) / PageSize
		if first.TotalPages != wantPages {
			t.Errorf("n=%d: expected %d pages, got %d", n, wantPages, first.TotalPages)
		}
		if len(seen) != n {
			t.Errorf("n=%d: expected %d distinct records across pages, got %d", n, n, len(seen))
		}
		for text, count := range seen {
			if count != 1 {
				t.Errorf("n=%d: record %q appeared %d times", n, text, count)
			}
		}
	}
}

func TestPaginate_EmptyDataset(t *testing.T) {
	p := Paginate(nil, 5)

	if p.Number != 1 || p.TotalPages != 0 {
		t.Errorf("expected page 1 of 0, got %d of %d", p.Number, p.TotalPages)
	}
	if p.Records == nil || len(p.Records) != 0 {
		t.Errorf("expected empty non-nil records, got %v", p.Records)
	}
}

func TestPaginate_DoesNotAliasInput(t *testing.T) {
	records := makeRecords(3)

	p := Paginate(records, 1)
	p.Records[0].Text = "changed"

	if records[0].Text != "tweet 0" {
		t.Error("page records alias the dataset")
	}
}
