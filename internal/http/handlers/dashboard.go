package handlers

import (
	"html/template"
	"net/http"

	"github.com/sidekickhq/leadline/internal/leads"
	"github.com/sidekickhq/leadline/pkg/logging"
)

var dashboardTemplate = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"preview": func(s string) string {
		if len(s) > 50 {
			return s[:50] + "..."
		}
		return s
	},
}).Parse(`<!DOCTYPE html>
<html>
<head><title>Leadline Dashboard</title></head>
<body style="font-family: Arial; padding: 20px;">
	<h1>Leadline</h1>
	<h2>Recent Leads</h2>
	<table border="1" cellpadding="10">
		<tr>
			<th>Time</th>
			<th>Name</th>
			<th>Phone</th>
			<th>Service</th>
			<th>Status</th>
			<th>Last Message</th>
		</tr>
		{{range .Leads}}
		<tr>
			<td>{{.CreatedAt.Format "2006-01-02 15:04"}}</td>
			<td>{{.Name}}</td>
			<td>{{.Phone}}</td>
			<td>{{.RequestedService}}</td>
			<td><strong>{{.Status}}</strong></td>
			<td>{{preview .LastMessage}}</td>
		</tr>
		{{end}}
	</table>
	<br>
	<p>Total Leads: {{.Total}}</p>
	<p>Booked: {{.Booked}}</p>
	<p>Escalated: {{.Escalated}}</p>
	<p>In Progress: {{.InProgress}}</p>
</body>
</html>`))

type dashboardData struct {
	Leads      []*leads.Lead
	Total      int
	Booked     int
	Escalated  int
	InProgress int
}

// DashboardHandler renders the operator lead overview.
type DashboardHandler struct {
	repo   leads.Repository
	logger *logging.Logger
}

// NewDashboardHandler wires the dashboard.
func NewDashboardHandler(repo leads.Repository, logger *logging.Logger) *DashboardHandler {
	if repo == nil {
		panic("handlers: leads repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DashboardHandler{repo: repo, logger: logger}
}

// Render handles GET /dashboard.
func (h *DashboardHandler) Render(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		http.Error(w, "failed to load leads", http.StatusInternalServerError)
		return
	}

	data := dashboardData{Leads: all, Total: len(all)}
	for _, lead := range all {
		switch lead.Status {
		case leads.StatusBooked:
			data.Booked++
		case leads.StatusEscalated:
			data.Escalated++
		case leads.StatusContacted, leads.StatusContinuing:
			data.InProgress++
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTemplate.Execute(w, data); err != nil {
		h.logger.Error("failed to render dashboard", "error", err)
	}
}
