package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/leadforge/leadforge-backend/internal/errors"
	"github.com/leadforge/leadforge-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	GetByID(id int) (*model.Campaign, error)
	List(offset, limit int, status string) ([]*model.Campaign, int, error)
	ListActive() ([]*model.Campaign, error)
	Update(c *model.Campaign) error
	Delete(id int) error

	// UpdateStatus is a compare-and-set on the status column; it reports
	// whether the row actually moved, so two concurrent transitions cannot
	// both win.
	UpdateStatus(id int, from, to model.CampaignStatus, startedAt *time.Time) (bool, error)

	// IncrementCounter bumps one of the running counters (sent, opened,
	// clicked, replied) atomically in the database.
	IncrementCounter(id int, counter string) error
}

type CampaignRepository struct {
	DB *sql.DB
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)

const campaignColumns = `id, name, target_grades, target_categories, min_score,
	daily_limit, hourly_limit, min_interval_days, send_start_hour, send_end_hour,
	send_days, status, auto_complete, sent_count, opened_count, clicked_count,
	replied_count, started_at, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	var grades []string
	var days []int64
	err := row.Scan(&c.ID, &c.Name, pq.Array(&grades), pq.Array(&c.TargetCategories),
		&c.MinScore, &c.DailyLimit, &c.HourlyLimit, &c.MinIntervalDays,
		&c.SendStartHour, &c.SendEndHour, pq.Array(&days), &c.Status, &c.AutoComplete,
		&c.SentCount, &c.OpenedCount, &c.ClickedCount, &c.RepliedCount,
		&c.StartedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	for _, g := range grades {
		c.TargetGrades = append(c.TargetGrades, model.Grade(g))
	}
	for _, d := range days {
		c.SendDays = append(c.SendDays, int(d))
	}
	return &c, nil
}

func gradesToStrings(grades []model.Grade) []string {
	out := make([]string, len(grades))
	for i, g := range grades {
		out[i] = string(g)
	}
	return out
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	query := `
        INSERT INTO campaigns (name, target_grades, target_categories, min_score,
            daily_limit, hourly_limit, min_interval_days, send_start_hour,
            send_end_hour, send_days, status, auto_complete, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING id
    `
	err := r.DB.QueryRow(query, c.Name, pq.Array(gradesToStrings(c.TargetGrades)),
		pq.Array(c.TargetCategories), c.MinScore, c.DailyLimit, c.HourlyLimit,
		c.MinIntervalDays, c.SendStartHour, c.SendEndHour, pq.Array(c.SendDays),
		c.Status, c.AutoComplete, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		return err
	}
	return r.replaceSteps(c)
}

func (r *CampaignRepository) replaceSteps(c *model.Campaign) error {
	if _, err := r.DB.Exec(`DELETE FROM campaign_steps WHERE campaign_id=$1`, c.ID); err != nil {
		return err
	}
	// Positions are renumbered 1..n on every write; the request order is the
	// sequence order.
	for i := range c.Sequence {
		step := &c.Sequence[i]
		step.CampaignID = c.ID
		step.Position = i + 1
		err := r.DB.QueryRow(`
            INSERT INTO campaign_steps (campaign_id, position, template_id, delay_days)
            VALUES ($1, $2, $3, $4) RETURNING id`,
			step.CampaignID, step.Position, step.TemplateID, step.DelayDays).Scan(&step.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *CampaignRepository) loadSteps(c *model.Campaign) error {
	rows, err := r.DB.Query(`
        SELECT id, campaign_id, position, template_id, delay_days
        FROM campaign_steps WHERE campaign_id=$1 ORDER BY position`, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	c.Sequence = nil
	for rows.Next() {
		var s model.SequenceStep
		if err := rows.Scan(&s.ID, &s.CampaignID, &s.Position, &s.TemplateID, &s.DelayDays); err != nil {
			return err
		}
		c.Sequence = append(c.Sequence, s)
	}
	return rows.Err()
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	if err := r.loadSteps(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) List(offset, limit int, status string) ([]*model.Campaign, int, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	countArgs := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		countArgs = append(countArgs, status)
	}
	var total int
	if err := r.DB.QueryRow(countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	for _, c := range campaigns {
		if err := r.loadSteps(c); err != nil {
			return nil, 0, err
		}
	}
	return campaigns, total, nil
}

func (r *CampaignRepository) ListActive() ([]*model.Campaign, error) {
	campaigns, _, err := r.List(0, 100, string(model.CampaignActive))
	return campaigns, err
}

func (r *CampaignRepository) Update(c *model.Campaign) error {
	query := `
        UPDATE campaigns
        SET name=$1, target_grades=$2, target_categories=$3, min_score=$4,
            daily_limit=$5, hourly_limit=$6, min_interval_days=$7,
            send_start_hour=$8, send_end_hour=$9, send_days=$10,
            auto_complete=$11, updated_at=NOW()
        WHERE id=$12
    `
	_, err := r.DB.Exec(query, c.Name, pq.Array(gradesToStrings(c.TargetGrades)),
		pq.Array(c.TargetCategories), c.MinScore, c.DailyLimit, c.HourlyLimit,
		c.MinIntervalDays, c.SendStartHour, c.SendEndHour, pq.Array(c.SendDays),
		c.AutoComplete, c.ID)
	if err != nil {
		return err
	}
	return r.replaceSteps(c)
}

func (r *CampaignRepository) Delete(id int) error {
	if _, err := r.DB.Exec(`DELETE FROM campaign_steps WHERE campaign_id=$1`, id); err != nil {
		return err
	}
	_, err := r.DB.Exec(`DELETE FROM campaigns WHERE id=$1`, id)
	return err
}

func (r *CampaignRepository) UpdateStatus(id int, from, to model.CampaignStatus, startedAt *time.Time) (bool, error) {
	var res sql.Result
	var err error
	if startedAt != nil {
		res, err = r.DB.Exec(`UPDATE campaigns SET status=$1, started_at=$2, updated_at=NOW() WHERE id=$3 AND status=$4`,
			to, *startedAt, id, from)
	} else {
		res, err = r.DB.Exec(`UPDATE campaigns SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`,
			to, id, from)
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// counterColumns whitelists counter names so IncrementCounter can splice the
// column into SQL safely.
var counterColumns = map[string]string{
	"sent":    "sent_count",
	"opened":  "opened_count",
	"clicked": "clicked_count",
	"replied": "replied_count",
}

func (r *CampaignRepository) IncrementCounter(id int, counter string) error {
	col, ok := counterColumns[counter]
	if !ok {
		return fmt.Errorf("unknown campaign counter %q", counter)
	}
	_, err := r.DB.Exec(fmt.Sprintf(`UPDATE campaigns SET %s=%s+1, updated_at=NOW() WHERE id=$1`, col, col), id)
	return err
}
