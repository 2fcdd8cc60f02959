// internal/service/lead_service.go
package service

import (
	"context"
	"log"

	"github.com/leadforge/leadforge-backend/internal/collect"
	appErrors "github.com/leadforge/leadforge-backend/internal/errors"
	"github.com/leadforge/leadforge-backend/internal/model"
	"github.com/leadforge/leadforge-backend/internal/repository"
	"github.com/leadforge/leadforge-backend/internal/scoring"
)

type LeadService struct {
	LeadRepo  repository.LeadRepositoryInterface
	Scorer    *scoring.Engine
	Source    collect.LeadSource
	Extractor collect.ContactExtractor
}

// ScoreBatchResult summarizes one scoring pass.
type ScoreBatchResult struct {
	Scored  int `json:"scored"`
	Partial int `json:"partial"`
}

// CollectResult summarizes one collection sweep.
type CollectResult struct {
	Searched  int `json:"searched"`
	Created   int `json:"created"`
	Extracted int `json:"extracted"`
}

func (s *LeadService) CreateLead(l *model.Lead) (*model.Lead, error) {
	if l.Name == "" {
		return nil, appErrors.NewValidation("name", "required")
	}
	for _, c := range l.Contacts {
		if c.Value == "" {
			return nil, appErrors.NewValidation("contacts", "contact value required")
		}
	}
	l.Status = model.LeadNew
	if len(l.Contacts) > 0 {
		l.Status = model.LeadContactFound
	}
	if err := s.LeadRepo.Create(l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *LeadService) UpdateLead(l *model.Lead) (*model.Lead, error) {
	if l.Name == "" {
		return nil, appErrors.NewValidation("name", "required")
	}
	if _, err := s.LeadRepo.GetByID(l.ID); err != nil {
		return nil, err
	}
	if err := s.LeadRepo.Update(l); err != nil {
		return nil, err
	}
	return s.LeadRepo.GetByID(l.ID)
}

func (s *LeadService) DeleteLead(id int) error {
	if _, err := s.LeadRepo.GetByID(id); err != nil {
		return err
	}
	return s.LeadRepo.Delete(id)
}

// SetStatus applies an explicit, externally requested lead transition
// (converted, not_interested, invalid, contact_found). Rescoring never
// happens here; a status change and a score are independent.
func (s *LeadService) SetStatus(id int, to model.LeadStatus) (*model.Lead, error) {
	if !model.ValidLeadStatus(to) {
		return nil, appErrors.NewValidation("status", "unknown status")
	}
	lead, err := s.LeadRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !lead.Status.CanTransition(to) {
		return nil, appErrors.NewIllegalTransition("lead", string(lead.Status), string(to))
	}
	moved, err := s.LeadRepo.UpdateStatus(id, lead.Status, to)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, appErrors.NewIllegalTransition("lead", string(lead.Status), string(to))
	}
	return s.LeadRepo.GetByID(id)
}

// ScoreLead recomputes and stores one lead's scores. Safe to repeat: the
// engine is pure and the write just overwrites the previous result.
func (s *LeadService) ScoreLead(id int) (*model.Lead, error) {
	lead, err := s.LeadRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	res := s.Scorer.Score(lead)
	update := repository.LeadScoreUpdate{
		Influence: res.Influence,
		Activity:  res.Activity,
		Relevance: res.Relevance,
		Composite: res.Composite,
		Grade:     res.Grade,
		Partial:   res.Partial,
	}
	if err := s.LeadRepo.UpdateScore(id, update); err != nil {
		return nil, err
	}
	return s.LeadRepo.GetByID(id)
}

// ScoreBatch scores a bounded subset of leads matching the filter.
func (s *LeadService) ScoreBatch(filter repository.LeadFilter) (*ScoreBatchResult, error) {
	leads, err := s.LeadRepo.List(filter)
	if err != nil {
		return nil, err
	}

	result := &ScoreBatchResult{}
	for _, lead := range leads {
		res := s.Scorer.Score(lead)
		err := s.LeadRepo.UpdateScore(lead.ID, repository.LeadScoreUpdate{
			Influence: res.Influence,
			Activity:  res.Activity,
			Relevance: res.Relevance,
			Composite: res.Composite,
			Grade:     res.Grade,
			Partial:   res.Partial,
		})
		if err != nil {
			log.Println("⚠️ failed to store score for lead", lead.ID, ":", err)
			continue
		}
		result.Scored++
		if res.Partial {
			result.Partial++
		}
	}
	return result, nil
}

// Collect runs one discovery sweep for a keyword and stores new leads.
func (s *LeadService) Collect(ctx context.Context, keyword, category string, maxResults int) (*CollectResult, error) {
	if s.Source == nil {
		return &CollectResult{}, nil
	}
	records, err := s.Source.Search(ctx, keyword, category, maxResults)
	if err != nil {
		return nil, err
	}

	result := &CollectResult{Searched: len(records)}
	for _, rec := range records {
		lead := &model.Lead{
			Name:           rec.Name,
			Handle:         rec.Handle,
			Category:       rec.Category,
			AvgViews:       rec.AvgViews,
			Followers:      rec.Followers,
			PostsPerWeek:   rec.PostsPerWeek,
			KeywordMatches: rec.KeywordMatches,
			Status:         model.LeadNew,
		}
		if err := s.LeadRepo.Create(lead); err != nil {
			log.Println("⚠️ failed to store collected lead:", err)
			continue
		}
		result.Created++
	}
	return result, nil
}

// ExtractContacts runs the extraction collaborator over leads still in the
// new state and advances those that gained a contact.
func (s *LeadService) ExtractContacts(ctx context.Context, limit int) (int, error) {
	if s.Extractor == nil {
		return 0, nil
	}
	leads, err := s.LeadRepo.List(repository.LeadFilter{
		ExcludeStatuses: []model.LeadStatus{
			model.LeadContactFound, model.LeadContacted, model.LeadResponded,
			model.LeadConverted, model.LeadNotInterested, model.LeadInvalid,
		},
		Limit: limit,
	})
	if err != nil {
		return 0, err
	}

	extracted := 0
	for _, lead := range leads {
		if lead.HasContact() {
			continue
		}
		contacts, err := s.Extractor.Extract(ctx, lead)
		if err != nil {
			log.Println("⚠️ contact extraction failed for lead", lead.ID, ":", err)
			continue
		}
		if len(contacts) == 0 {
			continue
		}
		if err := s.LeadRepo.ReplaceContacts(lead.ID, contacts); err != nil {
			log.Println("⚠️ failed to store contacts for lead", lead.ID, ":", err)
			continue
		}
		if _, err := s.LeadRepo.UpdateStatus(lead.ID, lead.Status, model.LeadContactFound); err != nil {
			log.Println("⚠️ failed to advance lead", lead.ID, ":", err)
			continue
		}
		extracted++
	}
	return extracted, nil
}
