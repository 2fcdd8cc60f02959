// internal/controller/template_controller.go
package controller

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leadforge/leadforge-backend/internal/model"
	"github.com/leadforge/leadforge-backend/internal/repository"
)

type TemplateController struct {
	TemplateRepo repository.TemplateRepositoryInterface
}

type templateBody struct {
	Type    string `json:"type" validate:"required,oneof=introduction follow_up reminder"`
	Name    string `json:"name" validate:"required"`
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

func (ct *TemplateController) Create(w http.ResponseWriter, r *http.Request) {
	var body templateBody
	if err := decodeAndValidate(r, &body); err != nil {
		writeError(w, err)
		return
	}

	tmpl := &model.Template{
		Type:    model.TemplateType(body.Type),
		Name:    body.Name,
		Subject: body.Subject,
		Body:    body.Body,
	}
	if err := ct.TemplateRepo.Create(tmpl); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tmpl)
}

func (ct *TemplateController) List(w http.ResponseWriter, r *http.Request) {
	templates, err := ct.TemplateRepo.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (ct *TemplateController) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	tmpl, err := ct.TemplateRepo.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

func (ct *TemplateController) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var body templateBody
	if err := decodeAndValidate(r, &body); err != nil {
		writeError(w, err)
		return
	}

	tmpl, err := ct.TemplateRepo.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	tmpl.Type = model.TemplateType(body.Type)
	tmpl.Name = body.Name
	tmpl.Subject = body.Subject
	tmpl.Body = body.Body
	if err := ct.TemplateRepo.Update(tmpl); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

func (ct *TemplateController) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	if _, err := ct.TemplateRepo.GetByID(id); err != nil {
		writeError(w, err)
		return
	}
	if err := ct.TemplateRepo.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": id})
}
