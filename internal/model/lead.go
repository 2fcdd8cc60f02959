// internal/model/lead.go
package model

import "time"

type LeadStatus string

const (
	LeadNew           LeadStatus = "new"
	LeadContactFound  LeadStatus = "contact_found"
	LeadContacted     LeadStatus = "contacted"
	LeadResponded     LeadStatus = "responded"
	LeadConverted     LeadStatus = "converted"
	LeadNotInterested LeadStatus = "not_interested"
	LeadInvalid       LeadStatus = "invalid"
)

// leadTransitions is the forward chain of the lead lifecycle. Skips along the
// chain are allowed (a lead whose contact arrived with the record itself goes
// new -> contacted on its first dispatch).
var leadTransitions = map[LeadStatus]map[LeadStatus]bool{
	LeadNew:          {LeadContactFound: true, LeadContacted: true},
	LeadContactFound: {LeadContacted: true},
	LeadContacted:    {LeadResponded: true, LeadConverted: true},
	LeadResponded:    {LeadConverted: true},
}

// Terminal reports whether no further transition is allowed from s.
func (s LeadStatus) Terminal() bool {
	return s == LeadConverted || s == LeadNotInterested || s == LeadInvalid
}

// CanTransition enforces the lead state machine. not_interested and invalid
// are reachable from any non-terminal state.
func (s LeadStatus) CanTransition(to LeadStatus) bool {
	if s == to {
		return false
	}
	if to == LeadNotInterested || to == LeadInvalid {
		return !s.Terminal()
	}
	return leadTransitions[s][to]
}

func ValidLeadStatus(s LeadStatus) bool {
	switch s {
	case LeadNew, LeadContactFound, LeadContacted, LeadResponded,
		LeadConverted, LeadNotInterested, LeadInvalid:
		return true
	}
	return false
}

type ContactChannel string

const (
	ChannelEmail  ContactChannel = "email"
	ChannelPhone  ContactChannel = "phone"
	ChannelHandle ContactChannel = "handle"
)

type Contact struct {
	ID      int            `db:"id" json:"id"`
	LeadID  int            `db:"lead_id" json:"lead_id"`
	Channel ContactChannel `db:"channel" json:"channel"`
	Value   string         `db:"value" json:"value"`
}

type Lead struct {
	ID       int    `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Handle   string `db:"handle" json:"handle"`
	Category string `db:"category" json:"category"`

	// Raw metrics as collected; zero means unknown.
	AvgViews       float64 `db:"avg_views" json:"avg_views"`
	Followers      int64   `db:"followers" json:"followers"`
	PostsPerWeek   float64 `db:"posts_per_week" json:"posts_per_week"`
	KeywordMatches int     `db:"keyword_matches" json:"keyword_matches"`

	InfluenceScore float64 `db:"influence_score" json:"influence_score"`
	ActivityScore  float64 `db:"activity_score" json:"activity_score"`
	RelevanceScore float64 `db:"relevance_score" json:"relevance_score"`
	Score          float64 `db:"score" json:"score"`
	Grade          Grade   `db:"grade" json:"grade"`
	ScorePartial   bool    `db:"score_partial" json:"score_partial"`

	Status LeadStatus `db:"status" json:"status"`
	Notes  string     `db:"notes" json:"notes"`

	Contacts []Contact `db:"-" json:"contacts,omitempty"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// HasContact is true iff at least one contact is attached.
func (l *Lead) HasContact() bool {
	return len(l.Contacts) > 0
}

// EmailAddress returns the first email contact, or "".
func (l *Lead) EmailAddress() string {
	for _, c := range l.Contacts {
		if c.Channel == ChannelEmail {
			return c.Value
		}
	}
	return ""
}
