package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/leadforge/leadforge-backend/internal/errors"
	"github.com/leadforge/leadforge-backend/internal/model"
)

// LeadFilter narrows candidate queries. Zero values mean "no constraint".
type LeadFilter struct {
	ExcludeStatuses []model.LeadStatus
	Grades          []model.Grade
	Categories      []string
	MinScore        float64
	RequireEmail    bool
	UnscoredOnly    bool
	Limit           int
}

type LeadRepositoryInterface interface {
	Create(l *model.Lead) error
	GetByID(id int) (*model.Lead, error)
	List(filter LeadFilter) ([]*model.Lead, error)
	Update(l *model.Lead) error
	Delete(id int) error

	AddContact(c *model.Contact) error
	ReplaceContacts(leadID int, contacts []model.Contact) error

	UpdateScore(id int, res LeadScoreUpdate) error
	// UpdateStatus is a compare-and-set; it reports whether the row moved.
	UpdateStatus(id int, from, to model.LeadStatus) (bool, error)

	CountByGrade() (map[model.Grade]int, error)
	CountByStatus() (map[model.LeadStatus]int, error)
}

// LeadScoreUpdate carries the stored result of one scoring pass.
type LeadScoreUpdate struct {
	Influence float64
	Activity  float64
	Relevance float64
	Composite float64
	Grade     model.Grade
	Partial   bool
}

type LeadRepository struct {
	DB *sql.DB
}

var _ LeadRepositoryInterface = (*LeadRepository)(nil)

const leadColumns = `id, name, handle, category, avg_views, followers, posts_per_week,
	keyword_matches, influence_score, activity_score, relevance_score, score, grade,
	score_partial, status, notes, created_at, updated_at`

func scanLead(row interface{ Scan(...any) error }) (*model.Lead, error) {
	var l model.Lead
	err := row.Scan(&l.ID, &l.Name, &l.Handle, &l.Category, &l.AvgViews, &l.Followers,
		&l.PostsPerWeek, &l.KeywordMatches, &l.InfluenceScore, &l.ActivityScore,
		&l.RelevanceScore, &l.Score, &l.Grade, &l.ScorePartial, &l.Status, &l.Notes,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LeadRepository) Create(l *model.Lead) error {
	l.CreatedAt = time.Now()
	if l.Status == "" {
		l.Status = model.LeadNew
	}
	if l.Grade == "" {
		l.Grade = model.GradeD
	}
	query := `
        INSERT INTO leads (name, handle, category, avg_views, followers, posts_per_week,
            keyword_matches, score, grade, status, notes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id
    `
	if err := r.DB.QueryRow(query, l.Name, l.Handle, l.Category, l.AvgViews, l.Followers,
		l.PostsPerWeek, l.KeywordMatches, l.Score, l.Grade, l.Status, l.Notes,
		l.CreatedAt).Scan(&l.ID); err != nil {
		return err
	}
	for i := range l.Contacts {
		l.Contacts[i].LeadID = l.ID
		if err := r.AddContact(&l.Contacts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *LeadRepository) GetByID(id int) (*model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id=$1`
	l, err := scanLead(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewLeadNotFound(id)
		}
		return nil, err
	}
	if err := r.loadContacts(l); err != nil {
		return nil, err
	}
	return l, nil
}

func (r *LeadRepository) List(filter LeadFilter) ([]*model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if len(filter.ExcludeStatuses) > 0 {
		statuses := make([]string, len(filter.ExcludeStatuses))
		for i, s := range filter.ExcludeStatuses {
			statuses[i] = string(s)
		}
		query += fmt.Sprintf(" AND status <> ALL($%d)", argPos)
		args = append(args, pq.Array(statuses))
		argPos++
	}
	if len(filter.Grades) > 0 {
		grades := make([]string, len(filter.Grades))
		for i, g := range filter.Grades {
			grades[i] = string(g)
		}
		query += fmt.Sprintf(" AND grade = ANY($%d)", argPos)
		args = append(args, pq.Array(grades))
		argPos++
	}
	if len(filter.Categories) > 0 {
		query += fmt.Sprintf(" AND category = ANY($%d)", argPos)
		args = append(args, pq.Array(filter.Categories))
		argPos++
	}
	if filter.MinScore > 0 {
		query += fmt.Sprintf(" AND score >= $%d", argPos)
		args = append(args, filter.MinScore)
		argPos++
	}
	if filter.RequireEmail {
		query += " AND EXISTS (SELECT 1 FROM contacts WHERE contacts.lead_id = leads.id AND contacts.channel = 'email')"
	}
	if filter.UnscoredOnly {
		query += " AND score = 0"
	}

	query += " ORDER BY id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filter.Limit)
	}

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []*model.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, l := range leads {
		if err := r.loadContacts(l); err != nil {
			return nil, err
		}
	}
	return leads, nil
}

func (r *LeadRepository) Update(l *model.Lead) error {
	query := `
        UPDATE leads
        SET name=$1, handle=$2, category=$3, avg_views=$4, followers=$5,
            posts_per_week=$6, keyword_matches=$7, notes=$8, updated_at=NOW()
        WHERE id=$9
    `
	_, err := r.DB.Exec(query, l.Name, l.Handle, l.Category, l.AvgViews, l.Followers,
		l.PostsPerWeek, l.KeywordMatches, l.Notes, l.ID)
	return err
}

func (r *LeadRepository) Delete(id int) error {
	if _, err := r.DB.Exec(`DELETE FROM contacts WHERE lead_id=$1`, id); err != nil {
		return err
	}
	_, err := r.DB.Exec(`DELETE FROM leads WHERE id=$1`, id)
	return err
}

func (r *LeadRepository) AddContact(c *model.Contact) error {
	query := `INSERT INTO contacts (lead_id, channel, value) VALUES ($1, $2, $3) RETURNING id`
	return r.DB.QueryRow(query, c.LeadID, c.Channel, c.Value).Scan(&c.ID)
}

func (r *LeadRepository) ReplaceContacts(leadID int, contacts []model.Contact) error {
	if _, err := r.DB.Exec(`DELETE FROM contacts WHERE lead_id=$1`, leadID); err != nil {
		return err
	}
	for i := range contacts {
		contacts[i].LeadID = leadID
		if err := r.AddContact(&contacts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *LeadRepository) loadContacts(l *model.Lead) error {
	rows, err := r.DB.Query(`SELECT id, lead_id, channel, value FROM contacts WHERE lead_id=$1 ORDER BY id`, l.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	l.Contacts = nil
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.LeadID, &c.Channel, &c.Value); err != nil {
			return err
		}
		l.Contacts = append(l.Contacts, c)
	}
	return rows.Err()
}

func (r *LeadRepository) UpdateScore(id int, res LeadScoreUpdate) error {
	query := `
        UPDATE leads
        SET influence_score=$1, activity_score=$2, relevance_score=$3, score=$4,
            grade=$5, score_partial=$6, updated_at=NOW()
        WHERE id=$7
    `
	_, err := r.DB.Exec(query, res.Influence, res.Activity, res.Relevance,
		res.Composite, res.Grade, res.Partial, id)
	return err
}

func (r *LeadRepository) UpdateStatus(id int, from, to model.LeadStatus) (bool, error) {
	res, err := r.DB.Exec(`UPDATE leads SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *LeadRepository) CountByGrade() (map[model.Grade]int, error) {
	rows, err := r.DB.Query(`SELECT grade, COUNT(*) FROM leads GROUP BY grade`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[model.Grade]int{}
	for rows.Next() {
		var g model.Grade
		var n int
		if err := rows.Scan(&g, &n); err != nil {
			return nil, err
		}
		counts[g] = n
	}
	return counts, rows.Err()
}

func (r *LeadRepository) CountByStatus() (map[model.LeadStatus]int, error) {
	rows, err := r.DB.Query(`SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[model.LeadStatus]int{}
	for rows.Next() {
		var s model.LeadStatus
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		counts[s] = n
	}
	return counts, rows.Err()
}
