// internal/model/email_log.go
package model

import "time"

type LogStatus string

const (
	LogSent         LogStatus = "sent"
	LogOpened       LogStatus = "opened"
	LogClicked      LogStatus = "clicked"
	LogReplied      LogStatus = "replied"
	LogBounced      LogStatus = "bounced"
	LogUnsubscribed LogStatus = "unsubscribed"
)

// logRank orders the engagement chain. bounced and unsubscribed sit outside
// the chain and are only reachable from sent.
var logRank = map[LogStatus]int{
	LogSent:    0,
	LogOpened:  1,
	LogClicked: 2,
	LogReplied: 3,
}

// CanAdvance reports whether a log in status s may move to status to.
// Engagement statuses only ever move forward; a duplicate or regressive
// event is not an advance.
func (s LogStatus) CanAdvance(to LogStatus) bool {
	if to == LogBounced || to == LogUnsubscribed {
		return s == LogSent
	}
	fromRank, ok := logRank[s]
	if !ok {
		return false
	}
	toRank, ok := logRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// EmailLog is one record per dispatch attempt that reached the provider.
type EmailLog struct {
	ID         int    `db:"id" json:"id"`
	CampaignID int    `db:"campaign_id" json:"campaign_id"`
	LeadID     int    `db:"lead_id" json:"lead_id"`
	Step       int    `db:"step" json:"step"`
	MessageRef string `db:"message_ref" json:"message_ref"`
	Recipient  string `db:"recipient" json:"recipient"`
	Subject    string `db:"subject" json:"subject"`

	Status    LogStatus  `db:"status" json:"status"`
	LastError string     `db:"last_error" json:"last_error,omitempty"`

	SentAt    time.Time  `db:"sent_at" json:"sent_at"`
	OpenedAt  *time.Time `db:"opened_at" json:"opened_at,omitempty"`
	ClickedAt *time.Time `db:"clicked_at" json:"clicked_at,omitempty"`
	RepliedAt *time.Time `db:"replied_at" json:"replied_at,omitempty"`
}
