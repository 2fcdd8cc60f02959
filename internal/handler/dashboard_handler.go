// internal/handler/dashboard_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leadforge/leadforge-backend/internal/model"
	"github.com/leadforge/leadforge-backend/internal/repository"
)

// DashboardHandler serves the read-only presentation surface.
type DashboardHandler struct {
	LeadRepo     repository.LeadRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface
	LogRepo      repository.EmailLogRepositoryInterface
}

type dashboardResponse struct {
	LeadsByGrade  map[model.Grade]int      `json:"leads_by_grade"`
	LeadsByStatus map[model.LeadStatus]int `json:"leads_by_status"`
	TodaySent     int                      `json:"today_sent"`
	TodayOpened   int                      `json:"today_opened"`
	TodayReplied  int                      `json:"today_replied"`
	OpenRate      float64                  `json:"open_rate"`
	ReplyRate     float64                  `json:"reply_rate"`
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	byGrade, err := h.LeadRepo.CountByGrade()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	byStatus, err := h.LeadRepo.CountByStatus()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	stats, err := h.LogRepo.TodayStats(time.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := dashboardResponse{
		LeadsByGrade:  byGrade,
		LeadsByStatus: byStatus,
		TodaySent:     stats.Sent,
		TodayOpened:   stats.Opened,
		TodayReplied:  stats.Replied,
	}
	if stats.Sent > 0 {
		resp.OpenRate = 100 * float64(stats.Opened) / float64(stats.Sent)
		resp.ReplyRate = 100 * float64(stats.Replied) / float64(stats.Sent)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *DashboardHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	lead, err := h.LeadRepo.GetByID(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lead)
}

func (h *DashboardHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 500 {
		limit = 100
	}

	filter := repository.LeadFilter{Limit: limit}
	if grade := r.URL.Query().Get("grade"); grade != "" {
		filter.Grades = []model.Grade{model.Grade(grade)}
	}
	if category := r.URL.Query().Get("category"); category != "" {
		filter.Categories = []string{category}
	}

	leads, err := h.LeadRepo.List(filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"data": leads, "count": len(leads)})
}

func (h *DashboardHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	status := r.URL.Query().Get("status")

	campaigns, total, err := h.CampaignRepo.List((page-1)*pageSize, pageSize, status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": campaigns,
		"pagination": map[string]int{
			"page":        page,
			"page_size":   pageSize,
			"total_count": total,
			"total_pages": (total + pageSize - 1) / pageSize,
		},
	})
}

// GetCampaign returns one campaign with its sequence, counters and the most
// recent log entries.
func (h *DashboardHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	campaign, err := h.CampaignRepo.GetByID(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	logs, err := h.LogRepo.ListByCampaign(id, 100)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"campaign": campaign,
		"logs":     logs,
	})
}
