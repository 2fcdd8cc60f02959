package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/leadforge/leadforge-backend/internal/errors"
	"github.com/leadforge/leadforge-backend/internal/model"
)

type EmailLogRepositoryInterface interface {
	Create(l *model.EmailLog) error
	GetByID(id int) (*model.EmailLog, error)
	GetByMessageRef(ref string) (*model.EmailLog, error)
	Update(l *model.EmailLog) error

	// CountForLead is the number of log rows for (campaign, lead); it is the
	// lead's position in the campaign sequence.
	CountForLead(campaignID, leadID int) (int, error)
	LastForLead(campaignID, leadID int) (*model.EmailLog, error)
	CountBouncedForLead(leadID int) (int, error)

	ListByCampaign(campaignID, limit int) ([]*model.EmailLog, error)
	TodayStats(day time.Time) (TodayStats, error)
}

// TodayStats summarizes log activity for one calendar day.
type TodayStats struct {
	Sent    int
	Opened  int
	Replied int
}

type EmailLogRepository struct {
	DB *sql.DB
}

var _ EmailLogRepositoryInterface = (*EmailLogRepository)(nil)

const logColumns = `id, campaign_id, lead_id, step, message_ref, recipient, subject,
	status, last_error, sent_at, opened_at, clicked_at, replied_at`

func scanLog(row interface{ Scan(...any) error }) (*model.EmailLog, error) {
	var l model.EmailLog
	err := row.Scan(&l.ID, &l.CampaignID, &l.LeadID, &l.Step, &l.MessageRef,
		&l.Recipient, &l.Subject, &l.Status, &l.LastError,
		&l.SentAt, &l.OpenedAt, &l.ClickedAt, &l.RepliedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *EmailLogRepository) Create(l *model.EmailLog) error {
	if l.SentAt.IsZero() {
		l.SentAt = time.Now()
	}
	query := `
        INSERT INTO email_logs (campaign_id, lead_id, step, message_ref, recipient,
            subject, status, last_error, sent_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	return r.DB.QueryRow(query, l.CampaignID, l.LeadID, l.Step, l.MessageRef,
		l.Recipient, l.Subject, l.Status, l.LastError, l.SentAt).Scan(&l.ID)
}

func (r *EmailLogRepository) GetByID(id int) (*model.EmailLog, error) {
	l, err := scanLog(r.DB.QueryRow(`SELECT `+logColumns+` FROM email_logs WHERE id=$1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewEmailLogNotFound(id)
		}
		return nil, err
	}
	return l, nil
}

func (r *EmailLogRepository) GetByMessageRef(ref string) (*model.EmailLog, error) {
	l, err := scanLog(r.DB.QueryRow(`SELECT `+logColumns+` FROM email_logs WHERE message_ref=$1`, ref))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

func (r *EmailLogRepository) Update(l *model.EmailLog) error {
	query := `
        UPDATE email_logs
        SET status=$1, last_error=$2, opened_at=$3, clicked_at=$4, replied_at=$5
        WHERE id=$6
    `
	_, err := r.DB.Exec(query, l.Status, l.LastError, l.OpenedAt, l.ClickedAt, l.RepliedAt, l.ID)
	return err
}

func (r *EmailLogRepository) CountForLead(campaignID, leadID int) (int, error) {
	var n int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM email_logs WHERE campaign_id=$1 AND lead_id=$2`,
		campaignID, leadID).Scan(&n)
	return n, err
}

func (r *EmailLogRepository) LastForLead(campaignID, leadID int) (*model.EmailLog, error) {
	l, err := scanLog(r.DB.QueryRow(`SELECT `+logColumns+` FROM email_logs
        WHERE campaign_id=$1 AND lead_id=$2 ORDER BY step DESC LIMIT 1`, campaignID, leadID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

func (r *EmailLogRepository) CountBouncedForLead(leadID int) (int, error) {
	var n int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM email_logs WHERE lead_id=$1 AND status=$2`,
		leadID, model.LogBounced).Scan(&n)
	return n, err
}

func (r *EmailLogRepository) ListByCampaign(campaignID, limit int) ([]*model.EmailLog, error) {
	rows, err := r.DB.Query(`SELECT `+logColumns+` FROM email_logs
        WHERE campaign_id=$1 ORDER BY sent_at DESC LIMIT $2`, campaignID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*model.EmailLog{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *EmailLogRepository) TodayStats(day time.Time) (TodayStats, error) {
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	var s TodayStats
	err := r.DB.QueryRow(`
        SELECT
            COUNT(*) FILTER (WHERE sent_at >= $1 AND sent_at < $2 AND status <> 'bounced'),
            COUNT(*) FILTER (WHERE opened_at >= $1 AND opened_at < $2),
            COUNT(*) FILTER (WHERE replied_at >= $1 AND replied_at < $2)
        FROM email_logs`, start, end).Scan(&s.Sent, &s.Opened, &s.Replied)
	return s, err
}
