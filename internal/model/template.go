// internal/model/template.go
package model

import "time"

type TemplateType string

const (
	TemplateIntroduction TemplateType = "introduction"
	TemplateFollowUp     TemplateType = "follow_up"
	TemplateReminder     TemplateType = "reminder"
)

func ValidTemplateType(t TemplateType) bool {
	switch t {
	case TemplateIntroduction, TemplateFollowUp, TemplateReminder:
		return true
	}
	return false
}

type Template struct {
	ID        int          `db:"id" json:"id"`
	Type      TemplateType `db:"type" json:"type"`
	Name      string       `db:"name" json:"name"`
	Subject   string       `db:"subject" json:"subject"`
	Body      string       `db:"body" json:"body"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time   `db:"updated_at" json:"updated_at,omitempty"`
}
