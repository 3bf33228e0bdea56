package api

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/mr1hm/disaster-dashboard/internal/models"
)

const aboutText = "Details about the team and project..."

var viewTitles = map[models.View]string{
	models.ViewDashboard: "Disaster Aggregation System",
	models.ViewDataset:   "Tweet Details",
	models.ViewHeatmap:   "Heatmap of Tweet Locations",
	models.ViewAbout:     "About Us",
}

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("page.html").Funcs(template.FuncMap{
	"percent": func(share float64) string { return fmt.Sprintf("%.1f%%", share*100) },
	"inc":     func(i int) int { return i + 1 },
	"dec":     func(i int) int { return i - 1 },
	"orNA": func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	},
}).ParseFS(templateFS, "templates/page.html"))

type pageData struct {
	ViewPayload
	Nav      []models.View
	Category string
	Features []Feature
}
