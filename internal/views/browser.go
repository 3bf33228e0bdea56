package views

import "github.com/mr1hm/disaster-dashboard/internal/models"

const PageSize = 10

type Page struct {
	Number     int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	PageSize   int             `json:"page_size"`
	Total      int             `json:"total"`
	Start      int             `json:"start"`
	End        int             `json:"end"`
	Records    []models.Record `json:"records"`
}

// Bounds clamps page into [1, ceil(total/PageSize)] and returns the clamped
// number, the page count and the zero-indexed [start, end) window.
func Bounds(total, page int) (number, totalPages, start, end int) {
	totalPages = (total + PageSize - 1) / PageSize
	number = page
	if number > totalPages {
		number = totalPages
	}
	if number < 1 {
		number = 1
	}
	if totalPages == 0 {
		return number, 0, 0, 0
	}

	start = (number - 1) * PageSize
	end = min(number*PageSize, total)
	return number, totalPages, start, end
}

// Paginate returns the clamped page of records. It never fails; an empty
// dataset yields an empty page.
func Paginate(records []models.Record, page int) Page {
	number, totalPages, start, end := Bounds(len(records), page)

	window := make([]models.Record, end-start)
	copy(window, records[start:end])

	return Page{
		Number:     number,
		TotalPages: totalPages,
		PageSize:   PageSize,
		Total:      len(records),
		Start:      start,
		End:        end,
		Records:    window,
	}
}
