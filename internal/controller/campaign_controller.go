// internal/controller/campaign_controller.go
package controller

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leadforge/leadforge-backend/internal/model"
	"github.com/leadforge/leadforge-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
}

type stepBody struct {
	TemplateID int `json:"template_id" validate:"required,gt=0"`
	DelayDays  int `json:"delay_days" validate:"gte=0"`
}

type campaignBody struct {
	Name             string     `json:"name" validate:"required"`
	TargetGrades     []string   `json:"target_grades" validate:"required,min=1,dive,oneof=A B C D"`
	TargetCategories []string   `json:"target_categories"`
	MinScore         float64    `json:"min_score" validate:"gte=0,lte=100"`
	DailyLimit       int        `json:"daily_limit" validate:"gte=0"`
	HourlyLimit      int        `json:"hourly_limit" validate:"gte=0"`
	MinIntervalDays  int        `json:"min_interval_days" validate:"gte=0"`
	SendStartHour    int        `json:"send_start_hour" validate:"gte=0,lte=23"`
	SendEndHour      int        `json:"send_end_hour" validate:"gte=1,lte=24"`
	SendDays         []int      `json:"send_days" validate:"dive,gte=0,lte=6"`
	AutoComplete     bool       `json:"auto_complete"`
	Sequence         []stepBody `json:"sequence" validate:"dive"`
}

func (b *campaignBody) toModel() *model.Campaign {
	c := &model.Campaign{
		Name:             b.Name,
		TargetCategories: b.TargetCategories,
		MinScore:         b.MinScore,
		DailyLimit:       b.DailyLimit,
		HourlyLimit:      b.HourlyLimit,
		MinIntervalDays:  b.MinIntervalDays,
		SendStartHour:    b.SendStartHour,
		SendEndHour:      b.SendEndHour,
		SendDays:         b.SendDays,
		AutoComplete:     b.AutoComplete,
	}
	for _, g := range b.TargetGrades {
		c.TargetGrades = append(c.TargetGrades, model.Grade(g))
	}
	for i, s := range b.Sequence {
		c.Sequence = append(c.Sequence, model.SequenceStep{
			Position:   i + 1,
			TemplateID: s.TemplateID,
			DelayDays:  s.DelayDays,
		})
	}
	return c
}

func (ct *CampaignController) Create(w http.ResponseWriter, r *http.Request) {
	var body campaignBody
	if err := decodeAndValidate(r, &body); err != nil {
		writeError(w, err)
		return
	}

	campaign, err := ct.CampaignService.CreateCampaign(body.toModel())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

func (ct *CampaignController) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var body campaignBody
	if err := decodeAndValidate(r, &body); err != nil {
		writeError(w, err)
		return
	}

	campaign := body.toModel()
	campaign.ID = id
	updated, err := ct.CampaignService.UpdateCampaign(campaign)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (ct *CampaignController) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	if err := ct.CampaignService.CampaignRepo.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": id})
}

func (ct *CampaignController) Start(w http.ResponseWriter, r *http.Request) {
	ct.lifecycle(w, r, ct.CampaignService.Start)
}

func (ct *CampaignController) Pause(w http.ResponseWriter, r *http.Request) {
	ct.lifecycle(w, r, ct.CampaignService.Pause)
}

func (ct *CampaignController) Resume(w http.ResponseWriter, r *http.Request) {
	ct.lifecycle(w, r, ct.CampaignService.Resume)
}

func (ct *CampaignController) Complete(w http.ResponseWriter, r *http.Request) {
	ct.lifecycle(w, r, ct.CampaignService.Complete)
}

func (ct *CampaignController) lifecycle(w http.ResponseWriter, r *http.Request, op func(int) (*model.Campaign, error)) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	campaign, err := op(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (ct *CampaignController) SendBatch(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var body struct {
		BatchSize int `json:"batch_size" validate:"required,gt=0,lte=500"`
	}
	if err := decodeAndValidate(r, &body); err != nil {
		writeError(w, err)
		return
	}

	result, err := ct.CampaignService.SendBatch(r.Context(), id, body.BatchSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
