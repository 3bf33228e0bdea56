package models

import "strings"

// View is the navigation selection.
type View string

const (
	ViewDashboard View = "Dashboard"
	ViewDataset   View = "Dataset"
	ViewHeatmap   View = "Heatmap"
	ViewAbout     View = "About"
)

var AllViews = []View{ViewDashboard, ViewDataset, ViewHeatmap, ViewAbout}

// ParseView maps a navigation value onto a View. Unknown values fall back to
// the dashboard and report ok=false.
func ParseView(s string) (View, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dashboard":
		return ViewDashboard, true
	case "dataset":
		return ViewDataset, true
	case "heatmap":
		return ViewHeatmap, true
	case "about", "about us":
		return ViewAbout, true
	default:
		return ViewDashboard, false
	}
}
