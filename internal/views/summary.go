package views

import (
	"sort"

	"github.com/mr1hm/disaster-dashboard/internal/models"
)

// UnknownRelevance collects records whose relevance cell was empty, so the
// relevance table always sums to the dataset size.
const UnknownRelevance = "unknown"

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type ProportionSlice struct {
	Value string  `json:"value"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

type Summary struct {
	Total           int               `json:"total"`
	RelevanceCounts map[string]int    `json:"relevance_counts"`
	LabelCounts     map[string]int    `json:"label_counts"`
	RelevanceSlices []ProportionSlice `json:"relevance_slices"`
	LabelBars       []CategoryCount   `json:"label_bars"`
}

// Summarize builds the relevance and label frequency tables.
func Summarize(records []models.Record) Summary {
	relevance := make(map[string]int)
	labels := make(map[string]int)

	for _, r := range records {
		rel := r.Relevance
		if rel == "" {
			rel = UnknownRelevance
		}
		relevance[rel]++

		if r.Label != "" {
			labels[r.Label]++
		}
	}

	return NewSummary(len(records), relevance, labels)
}

// NewSummary derives the chart series from already counted tables.
func NewSummary(total int, relevance, labels map[string]int) Summary {
	s := Summary{
		Total:           total,
		RelevanceCounts: relevance,
		LabelCounts:     labels,
		LabelBars:       sortedCounts(labels),
	}

	bars := sortedCounts(relevance)
	s.RelevanceSlices = make([]ProportionSlice, 0, len(bars))
	for _, b := range bars {
		share := 0.0
		if total > 0 {
			share = float64(b.Count) / float64(total)
		}
		s.RelevanceSlices = append(s.RelevanceSlices, ProportionSlice{Value: b.Value, Count: b.Count, Share: share})
	}

	return s
}

// sortedCounts orders by count desc, then value asc.
func sortedCounts(counts map[string]int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, CategoryCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
