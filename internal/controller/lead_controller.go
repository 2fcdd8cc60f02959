// internal/controller/lead_controller.go
package controller

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leadforge/leadforge-backend/internal/model"
	"github.com/leadforge/leadforge-backend/internal/repository"
	"github.com/leadforge/leadforge-backend/internal/service"
)

type LeadController struct {
	LeadService *service.LeadService
}

type contactBody struct {
	Channel string `json:"channel" validate:"required,oneof=email phone handle"`
	Value   string `json:"value" validate:"required"`
}

type leadBody struct {
	Name           string        `json:"name" validate:"required"`
	Handle         string        `json:"handle"`
	Category       string        `json:"category"`
	AvgViews       float64       `json:"avg_views" validate:"gte=0"`
	Followers      int64         `json:"followers" validate:"gte=0"`
	PostsPerWeek   float64       `json:"posts_per_week" validate:"gte=0"`
	KeywordMatches int           `json:"keyword_matches" validate:"gte=0"`
	Notes          string        `json:"notes"`
	Contacts       []contactBody `json:"contacts" validate:"dive"`
}

func (b *leadBody) toModel() *model.Lead {
	lead := &model.Lead{
		Name:           b.Name,
		Handle:         b.Handle,
		Category:       b.Category,
		AvgViews:       b.AvgViews,
		Followers:      b.Followers,
		PostsPerWeek:   b.PostsPerWeek,
		KeywordMatches: b.KeywordMatches,
		Notes:          b.Notes,
	}
	for _, c := range b.Contacts {
		lead.Contacts = append(lead.Contacts, model.Contact{
			Channel: model.ContactChannel(c.Channel),
			Value:   c.Value,
		})
	}
	return lead
}

func (ct *LeadController) Create(w http.ResponseWriter, r *http.Request) {
	var body leadBody
	if err := decodeAndValidate(r, &body); err != nil {
		writeError(w, err)
		return
	}

	lead, err := ct.LeadService.CreateLead(body.toModel())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

func (ct *LeadController) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var body leadBody
	if err := decodeAndValidate(r, &body); err != nil {
		writeError(w, err)
		return
	}

	lead := body.toModel()
	lead.ID = id
	updated, err := ct.LeadService.UpdateLead(lead)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (ct *LeadController) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	if err := ct.LeadService.DeleteLead(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": id})
}

func (ct *LeadController) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var body struct {
		Status string `json:"status" validate:"required"`
	}
	if err := decodeAndValidate(r, &body); err != nil {
		writeError(w, err)
		return
	}

	lead, err := ct.LeadService.SetStatus(id, model.LeadStatus(body.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (ct *LeadController) Score(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	lead, err := ct.LeadService.ScoreLead(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (ct *LeadController) ScoreBatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Category string `json:"category"`
		Limit    int    `json:"limit" validate:"gte=0,lte=1000"`
	}
	if err := decodeAndValidate(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Limit == 0 {
		body.Limit = 100
	}

	filter := repository.LeadFilter{Limit: body.Limit}
	if body.Category != "" {
		filter.Categories = []string{body.Category}
	}

	result, err := ct.LeadService.ScoreBatch(filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
