package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/leadforge/leadforge-backend/internal/errors"
	"github.com/leadforge/leadforge-backend/internal/model"
)

type TemplateRepositoryInterface interface {
	Create(t *model.Template) error
	GetByID(id int) (*model.Template, error)
	List() ([]*model.Template, error)
	Update(t *model.Template) error
	Delete(id int) error
}

type TemplateRepository struct {
	DB *sql.DB
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)

func (r *TemplateRepository) Create(t *model.Template) error {
	t.CreatedAt = time.Now()
	query := `
        INSERT INTO templates (type, name, subject, body, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	return r.DB.QueryRow(query, t.Type, t.Name, t.Subject, t.Body, t.CreatedAt).Scan(&t.ID)
}

func (r *TemplateRepository) GetByID(id int) (*model.Template, error) {
	query := `SELECT id, type, name, subject, body, created_at, updated_at FROM templates WHERE id=$1`
	var t model.Template
	err := r.DB.QueryRow(query, id).Scan(&t.ID, &t.Type, &t.Name, &t.Subject, &t.Body, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewTemplateNotFound(id)
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) List() ([]*model.Template, error) {
	rows, err := r.DB.Query(`SELECT id, type, name, subject, body, created_at, updated_at FROM templates ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []*model.Template{}
	for rows.Next() {
		var t model.Template
		if err := rows.Scan(&t.ID, &t.Type, &t.Name, &t.Subject, &t.Body, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, &t)
	}
	return templates, rows.Err()
}

func (r *TemplateRepository) Update(t *model.Template) error {
	query := `UPDATE templates SET type=$1, name=$2, subject=$3, body=$4, updated_at=NOW() WHERE id=$5`
	_, err := r.DB.Exec(query, t.Type, t.Name, t.Subject, t.Body, t.ID)
	return err
}

func (r *TemplateRepository) Delete(id int) error {
	_, err := r.DB.Exec(`DELETE FROM templates WHERE id=$1`, id)
	return err
}
