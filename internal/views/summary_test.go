package views

import (
	"fmt"
	"testing"

	"github.com/mr1hm/disaster-dashboard/internal/models"
)

func TestSummarize_Scenario(t *testing.T) {
	records := []models.Record{
		{Relevance: "relevant", Label: "flood"},
		{Relevance: "not relevant", Label: "flood"},
		{Relevance: "relevant", Label: "earthquake"},
	}

	s := Summarize(records)

	wantRel := map[string]int{"relevant": 2, "not relevant": 1}
	wantLabel := map[string]int{"flood": 2, "earthquake": 1}

	if fmt.Sprint(s.RelevanceCounts) != fmt.Sprint(wantRel) {
		t.Errorf("relevance counts = %v, want %v", s.RelevanceCounts, wantRel)
	}
	if fmt.Sprint(s.LabelCounts) != fmt.Sprint(wantLabel) {
		t.Errorf("label counts = %v, want %v", s.LabelCounts, wantLabel)
	}

	if len(s.LabelBars) != 2 || s.LabelBars[0].Value != "flood" || s.LabelBars[0].Count != 2 {
		t.Errorf("unexpected label bars: %+v", s.LabelBars)
	}
	if len(s.RelevanceSlices) != 2 || s.RelevanceSlices[0].Value != "relevant" {
		t.Fatalf("unexpected relevance slices: %+v", s.RelevanceSlices)
	}
	if got := s.RelevanceSlices[0].Share; got < 0.666 || got > 0.667 {
		t.Errorf("expected share ~0.667, got %f", got)
	}
}

func TestSummarize_RelevanceSumsToTotal(t *testing.T) {
	records := []models.Record{
		{Relevance: "relevant", Label: "fire"},
		{Relevance: "", Label: ""},
		{Relevance: "not relevant"},
		{Relevance: "relevant", Label: "fire"},
		{Relevance: ""},
	}

	s := Summarize(records)

	sum := 0
	for _, c := range s.RelevanceCounts {
		sum += c
	}
	if sum != len(records) {
		t.Errorf("relevance counts sum to %d, want %d", sum, len(records))
	}
	if s.RelevanceCounts[UnknownRelevance] != 2 {
		t.Errorf("expected 2 unknown relevance, got %d", s.RelevanceCounts[UnknownRelevance])
	}

	labelSum := 0
	for _, c := range s.LabelCounts {
		labelSum += c
	}
	if labelSum != 2 {
		t.Errorf("label counts should only include non-null labels, got %d", labelSum)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	if s.Total != 0 || len(s.RelevanceCounts) != 0 || len(s.LabelCounts) != 0 {
		t.Errorf("expected empty summary, got %+v", s)
	}
	if s.RelevanceSlices == nil || s.LabelBars == nil {
		t.Error("chart series should be empty, not nil")
	}
}

func TestSortedCounts_TieBreakByValue(t *testing.T) {
	got := sortedCounts(map[string]int{"b": 1, "a": 1, "c": 3})

	want := []CategoryCount{{"c", 3}, {"a", 1}, {"b", 1}}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("sortedCounts = %v, want %v", got, want)
	}
}
