// internal/model/campaign.go
package model

import "time"

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

// campaignTransitions is the only source of truth for campaign lifecycle
// legality. completed is terminal.
var campaignTransitions = map[CampaignStatus]map[CampaignStatus]bool{
	CampaignDraft:  {CampaignActive: true},
	CampaignActive: {CampaignPaused: true, CampaignCompleted: true},
	CampaignPaused: {CampaignActive: true},
}

func (s CampaignStatus) CanTransition(to CampaignStatus) bool {
	return campaignTransitions[s][to]
}

// SequenceStep is one (template, delay) pair in a campaign's ordered plan.
// DelayDays counts from the previous step's send, 0 for the first step.
type SequenceStep struct {
	ID         int `db:"id" json:"id"`
	CampaignID int `db:"campaign_id" json:"campaign_id"`
	Position   int `db:"position" json:"position"`
	TemplateID int `db:"template_id" json:"template_id"`
	DelayDays  int `db:"delay_days" json:"delay_days"`
}

type Campaign struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`

	// Targeting predicate.
	TargetGrades     []Grade  `db:"-" json:"target_grades"`
	TargetCategories []string `db:"-" json:"target_categories"`
	MinScore         float64  `db:"min_score" json:"min_score"`

	// Volume and window constraints.
	DailyLimit      int   `db:"daily_limit" json:"daily_limit"`
	HourlyLimit     int   `db:"hourly_limit" json:"hourly_limit"`
	MinIntervalDays int   `db:"min_interval_days" json:"min_interval_days"`
	SendStartHour   int   `db:"send_start_hour" json:"send_start_hour"`
	SendEndHour     int   `db:"send_end_hour" json:"send_end_hour"`
	SendDays        []int `db:"-" json:"send_days"` // time.Weekday values

	Sequence []SequenceStep `db:"-" json:"sequence,omitempty"`

	Status       CampaignStatus `db:"status" json:"status"`
	AutoComplete bool           `db:"auto_complete" json:"auto_complete"`

	SentCount    int `db:"sent_count" json:"sent_count"`
	OpenedCount  int `db:"opened_count" json:"opened_count"`
	ClickedCount int `db:"clicked_count" json:"clicked_count"`
	RepliedCount int `db:"replied_count" json:"replied_count"`

	StartedAt *time.Time `db:"started_at" json:"started_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// InWindow reports whether t falls inside the campaign's sending hours and
// days. An empty SendDays list means every day; SendEndHour is exclusive.
func (c *Campaign) InWindow(t time.Time) bool {
	if len(c.SendDays) > 0 {
		ok := false
		for _, d := range c.SendDays {
			if time.Weekday(d) == t.Weekday() {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	h := t.Hour()
	return h >= c.SendStartHour && h < c.SendEndHour
}

// TargetsGrade reports whether g is in the target grade set (empty set
// matches nothing: a campaign always names its grades).
func (c *Campaign) TargetsGrade(g Grade) bool {
	for _, tg := range c.TargetGrades {
		if tg == g {
			return true
		}
	}
	return false
}

// TargetsCategory reports whether cat is targeted. An empty category set
// matches every category.
func (c *Campaign) TargetsCategory(cat string) bool {
	if len(c.TargetCategories) == 0 {
		return true
	}
	for _, tc := range c.TargetCategories {
		if tc == cat {
			return true
		}
	}
	return false
}
