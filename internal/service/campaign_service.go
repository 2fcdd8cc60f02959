// internal/service/campaign_service.go
package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/leadforge/leadforge-backend/internal/dispatch"
	appErrors "github.com/leadforge/leadforge-backend/internal/errors"
	"github.com/leadforge/leadforge-backend/internal/model"
	"github.com/leadforge/leadforge-backend/internal/ratelimit"
	"github.com/leadforge/leadforge-backend/internal/repository"
)

// Dispatcher is what the scheduler needs from the dispatch layer.
type Dispatcher interface {
	Dispatch(ctx context.Context, to, subject, body string) dispatch.Outcome
}

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	LeadRepo     repository.LeadRepositoryInterface
	TemplateRepo repository.TemplateRepositoryInterface
	LogRepo      repository.EmailLogRepositoryInterface
	Counters     ratelimit.CounterStore
	Dispatcher   Dispatcher

	SenderName string
	OrgName    string

	// InvalidAfterBounces marks a lead invalid once this many of its sends
	// have terminally failed.
	InvalidAfterBounces int

	// Now is injectable for window tests; nil means time.Now.
	Now func() time.Time
}

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ===================== Lifecycle =====================

// Start moves a draft campaign to active. A campaign with no sequence steps
// has nothing to send and is rejected.
func (s *CampaignService) Start(id int) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if len(c.Sequence) == 0 {
		return nil, appErrors.NewValidation("sequence", "campaign has no sequence steps")
	}
	return s.transition(c, model.CampaignActive, true)
}

func (s *CampaignService) Pause(id int) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return s.transition(c, model.CampaignPaused, false)
}

func (s *CampaignService) Resume(id int) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return s.transition(c, model.CampaignActive, false)
}

func (s *CampaignService) Complete(id int) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return s.transition(c, model.CampaignCompleted, false)
}

// transition applies one edge of the campaign state machine through the
// repository's compare-and-set, so a concurrent transition loses cleanly.
func (s *CampaignService) transition(c *model.Campaign, to model.CampaignStatus, stamp bool) (*model.Campaign, error) {
	if !c.Status.CanTransition(to) {
		return nil, appErrors.NewIllegalTransition("campaign", string(c.Status), string(to))
	}
	var startedAt *time.Time
	if stamp {
		now := s.now()
		startedAt = &now
	}
	moved, err := s.CampaignRepo.UpdateStatus(c.ID, c.Status, to, startedAt)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, appErrors.NewIllegalTransition("campaign", string(c.Status), string(to))
	}
	return s.CampaignRepo.GetByID(c.ID)
}

// ===================== Batch sending =====================

// SendOutcome is the per-lead record inside a batch result.
type SendOutcome struct {
	LeadID    int    `json:"lead_id"`
	Step      int    `json:"step"`
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

// SendBatchResult is what SendBatch reports instead of raising: fewer sends
// than requested is an answer, not an error.
type SendBatchResult struct {
	CampaignID    int           `json:"campaign_id"`
	Requested     int           `json:"requested"`
	Sent          int           `json:"sent"`
	Failed        int           `json:"failed"`
	RateLimited   bool          `json:"rate_limited"`
	OutsideWindow bool          `json:"outside_window"`
	NotActive     bool          `json:"not_active,omitempty"`
	Completed     bool          `json:"completed,omitempty"`
	Outcomes      []SendOutcome `json:"outcomes,omitempty"`
}

// SendBatch selects up to batchSize eligible leads for the campaign, renders
// each one's next sequence step and dispatches it. Counters only move for
// confirmed sends; outside the sending window the call is a no-op. The
// context is honored at lead boundaries only, never mid-send.
func (s *CampaignService) SendBatch(ctx context.Context, campaignID, batchSize int) (*SendBatchResult, error) {
	result := &SendBatchResult{CampaignID: campaignID, Requested: batchSize}
	if batchSize <= 0 {
		return result, nil
	}

	c, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status != model.CampaignActive {
		result.NotActive = true
		return result, nil
	}

	now := s.now()
	if !c.InWindow(now) {
		result.OutsideWindow = true
		return result, nil
	}

	candidates, err := s.LeadRepo.List(repository.LeadFilter{
		ExcludeStatuses: []model.LeadStatus{model.LeadInvalid, model.LeadNotInterested},
		Grades:          c.TargetGrades,
		Categories:      c.TargetCategories,
		MinScore:        c.MinScore,
		RequireEmail:    true,
	})
	if err != nil {
		return nil, err
	}

	exhausted := true
	for _, lead := range candidates {
		if result.Sent >= batchSize || result.RateLimited {
			exhausted = false
			break
		}
		if ctx.Err() != nil {
			exhausted = false
			break
		}
		if !s.eligible(lead, c) {
			continue
		}

		step, ok, err := s.nextStep(c, lead, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			if step != nil {
				// A remaining step deferred by its delay still counts
				// against completion.
				exhausted = false
			}
			continue
		}
		exhausted = false

		granted, err := s.Counters.Acquire(ctx, c.ID, now, c.DailyLimit, c.HourlyLimit)
		if err != nil {
			return nil, err
		}
		if !granted {
			result.RateLimited = true
			break
		}

		outcome := s.sendStep(ctx, c, lead, step, now)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Delivered {
			result.Sent++
		} else {
			result.Failed++
			if err := s.Counters.Release(ctx, c.ID, now); err != nil {
				log.Println("⚠️ failed to release counter:", err)
			}
		}
	}

	if c.AutoComplete && exhausted && ctx.Err() == nil {
		if _, err := s.transition(c, model.CampaignCompleted, false); err == nil {
			result.Completed = true
		}
	}

	return result, nil
}

// eligible re-checks the targeting predicate in one place; the repository
// filter is an optimization, this is the authority.
func (s *CampaignService) eligible(lead *model.Lead, c *model.Campaign) bool {
	if lead.Status == model.LeadInvalid || lead.Status == model.LeadNotInterested {
		return false
	}
	if !lead.HasContact() || lead.EmailAddress() == "" {
		return false
	}
	if !c.TargetsGrade(lead.Grade) {
		return false
	}
	if !c.TargetsCategory(lead.Category) {
		return false
	}
	if lead.Score < c.MinScore {
		return false
	}
	return true
}

// nextStep resolves the lead's position in the sequence from its existing
// logs. Returns (nil, false) when every step has been sent, and
// (step, false) when the next step exists but its delay or the campaign's
// minimum interval has not elapsed yet.
func (s *CampaignService) nextStep(c *model.Campaign, lead *model.Lead, now time.Time) (*model.SequenceStep, bool, error) {
	sent, err := s.LogRepo.CountForLead(c.ID, lead.ID)
	if err != nil {
		return nil, false, err
	}
	if sent >= len(c.Sequence) {
		return nil, false, nil
	}
	step := &c.Sequence[sent]

	if sent > 0 {
		last, err := s.LogRepo.LastForLead(c.ID, lead.ID)
		if err != nil {
			return nil, false, err
		}
		if last != nil {
			wait := step.DelayDays
			if c.MinIntervalDays > wait {
				wait = c.MinIntervalDays
			}
			if now.Before(last.SentAt.AddDate(0, 0, wait)) {
				return step, false, nil
			}
		}
	}
	return step, true, nil
}

// sendStep renders and dispatches one step for one lead, then records the
// outcome. It never returns an error: a failed send is an outcome.
func (s *CampaignService) sendStep(ctx context.Context, c *model.Campaign, lead *model.Lead, step *model.SequenceStep, now time.Time) SendOutcome {
	outcome := SendOutcome{LeadID: lead.ID, Step: step.Position}

	tmpl, err := s.TemplateRepo.GetByID(step.TemplateID)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	vars := TemplateVars(lead, s.SenderName, s.OrgName)
	subject := RenderTemplate(tmpl.Subject, vars)
	body := RenderTemplate(tmpl.Body, vars)
	recipient := lead.EmailAddress()

	sendOut := s.Dispatcher.Dispatch(ctx, recipient, subject, body)

	entry := &model.EmailLog{
		CampaignID: c.ID,
		LeadID:     lead.ID,
		Step:       step.Position,
		MessageRef: uuid.NewString(),
		Recipient:  recipient,
		Subject:    subject,
		SentAt:     now,
	}

	if sendOut.Delivered {
		entry.Status = model.LogSent
		if err := s.LogRepo.Create(entry); err != nil {
			log.Println("⚠️ failed to write email log:", err)
		}
		if err := s.CampaignRepo.IncrementCounter(c.ID, "sent"); err != nil {
			log.Println("⚠️ failed to bump sent counter:", err)
		}
		s.markContacted(lead)
		outcome.Delivered = true
		return outcome
	}

	// Terminal failure: the attempt is recorded as bounced and repeated
	// bounces poison the lead so future batches skip it.
	entry.Status = model.LogBounced
	if sendOut.Err != nil {
		entry.LastError = sendOut.Err.Error()
		outcome.Error = sendOut.Err.Error()
	}
	if err := s.LogRepo.Create(entry); err != nil {
		log.Println("⚠️ failed to write bounce log:", err)
	}
	s.maybeInvalidate(lead)
	return outcome
}

// markContacted advances a lead to contacted on its first successful send in
// any campaign. Later sends find the lead already past that state.
func (s *CampaignService) markContacted(lead *model.Lead) {
	if !lead.Status.CanTransition(model.LeadContacted) {
		return
	}
	moved, err := s.LeadRepo.UpdateStatus(lead.ID, lead.Status, model.LeadContacted)
	if err != nil {
		log.Println("⚠️ failed to mark lead contacted:", err)
		return
	}
	if moved {
		lead.Status = model.LeadContacted
	}
}

func (s *CampaignService) maybeInvalidate(lead *model.Lead) {
	if s.InvalidAfterBounces <= 0 {
		return
	}
	bounced, err := s.LogRepo.CountBouncedForLead(lead.ID)
	if err != nil {
		log.Println("⚠️ failed to count bounces:", err)
		return
	}
	if bounced < s.InvalidAfterBounces {
		return
	}
	if !lead.Status.CanTransition(model.LeadInvalid) {
		return
	}
	if moved, err := s.LeadRepo.UpdateStatus(lead.ID, lead.Status, model.LeadInvalid); err != nil {
		log.Println("⚠️ failed to invalidate lead:", err)
	} else if moved {
		lead.Status = model.LeadInvalid
	}
}

// ===================== CRUD =====================

func (s *CampaignService) CreateCampaign(c *model.Campaign) (*model.Campaign, error) {
	if err := validateCampaign(c); err != nil {
		return nil, err
	}
	for _, step := range c.Sequence {
		if _, err := s.TemplateRepo.GetByID(step.TemplateID); err != nil {
			return nil, err
		}
	}
	c.Status = model.CampaignDraft
	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CampaignService) UpdateCampaign(c *model.Campaign) (*model.Campaign, error) {
	existing, err := s.CampaignRepo.GetByID(c.ID)
	if err != nil {
		return nil, err
	}
	if existing.Status != model.CampaignDraft && existing.Status != model.CampaignPaused {
		return nil, appErrors.NewValidation("status", "only draft or paused campaigns can be edited")
	}
	if err := validateCampaign(c); err != nil {
		return nil, err
	}
	if err := s.CampaignRepo.Update(c); err != nil {
		return nil, err
	}
	return s.CampaignRepo.GetByID(c.ID)
}

func validateCampaign(c *model.Campaign) error {
	if c.Name == "" {
		return appErrors.NewValidation("name", "required")
	}
	if len(c.TargetGrades) == 0 {
		return appErrors.NewValidation("target_grades", "at least one grade required")
	}
	if c.DailyLimit < 0 || c.HourlyLimit < 0 {
		return appErrors.NewValidation("limits", "must not be negative")
	}
	if c.SendStartHour < 0 || c.SendEndHour > 24 || c.SendStartHour >= c.SendEndHour {
		return appErrors.NewValidation("send_hours", "start hour must precede end hour within 0-24")
	}
	for _, d := range c.SendDays {
		if d < 0 || d > 6 {
			return appErrors.NewValidation("send_days", "weekday values must be 0-6")
		}
	}
	for _, step := range c.Sequence {
		if step.DelayDays < 0 {
			return appErrors.NewValidation("sequence", "step delay must not be negative")
		}
	}
	return nil
}
