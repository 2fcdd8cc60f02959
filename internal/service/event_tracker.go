// internal/service/event_tracker.go
package service

import (
	"log"
	"time"

	appErrors "github.com/leadforge/leadforge-backend/internal/errors"
	"github.com/leadforge/leadforge-backend/internal/model"
	"github.com/leadforge/leadforge-backend/internal/repository"
)

// EventTracker ingests provider callbacks (open, click, reply, bounce,
// unsubscribe) and advances email logs and lead state. Log status only ever
// moves forward; duplicate or out-of-order events are silent no-ops.
type EventTracker struct {
	LogRepo      repository.EmailLogRepositoryInterface
	LeadRepo     repository.LeadRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface

	Now func() time.Time
}

func (t *EventTracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *EventTracker) MarkOpened(logID int) error {
	return t.advance(logID, model.LogOpened)
}

func (t *EventTracker) MarkClicked(logID int) error {
	return t.advance(logID, model.LogClicked)
}

func (t *EventTracker) MarkReplied(logID int) error {
	return t.advance(logID, model.LogReplied)
}

func (t *EventTracker) MarkBounced(logID int) error {
	return t.advance(logID, model.LogBounced)
}

func (t *EventTracker) MarkUnsubscribed(logID int) error {
	return t.advance(logID, model.LogUnsubscribed)
}

// Apply routes a named event to its handler. Unknown event names are
// validation errors so a misconfigured webhook shows up instead of being
// swallowed.
func (t *EventTracker) Apply(event string, logID int) error {
	switch event {
	case "opened":
		return t.MarkOpened(logID)
	case "clicked":
		return t.MarkClicked(logID)
	case "replied":
		return t.MarkReplied(logID)
	case "bounced":
		return t.MarkBounced(logID)
	case "unsubscribed":
		return t.MarkUnsubscribed(logID)
	default:
		return appErrors.NewValidation("event", "unknown event "+event)
	}
}

// ApplyByRef is Apply keyed by the provider-facing message reference.
func (t *EventTracker) ApplyByRef(event, messageRef string) error {
	entry, err := t.LogRepo.GetByMessageRef(messageRef)
	if err != nil {
		return err
	}
	if entry == nil {
		log.Println("⚠️ tracking event for unknown message ref:", messageRef)
		return nil
	}
	return t.Apply(event, entry.ID)
}

func (t *EventTracker) advance(logID int, to model.LogStatus) error {
	entry, err := t.LogRepo.GetByID(logID)
	if err != nil {
		return err
	}
	if !entry.Status.CanAdvance(to) {
		return nil
	}

	now := t.now()
	switch to {
	case model.LogOpened:
		entry.OpenedAt = &now
	case model.LogClicked:
		if entry.OpenedAt == nil {
			entry.OpenedAt = &now
		}
		entry.ClickedAt = &now
	case model.LogReplied:
		// A reply implies the mail was opened (and the thread engaged) even
		// when the provider never delivered those events; backfill them.
		if entry.OpenedAt == nil {
			entry.OpenedAt = &now
		}
		if entry.ClickedAt == nil {
			entry.ClickedAt = &now
		}
		entry.RepliedAt = &now
	}
	entry.Status = to
	if err := t.LogRepo.Update(entry); err != nil {
		return err
	}

	t.bumpCampaignCounter(entry.CampaignID, to)

	if to == model.LogReplied {
		t.markResponded(entry.LeadID)
	}
	return nil
}

// bumpCampaignCounter counts only first transitions: advance already
// filtered duplicates, so every call here is a fresh state.
func (t *EventTracker) bumpCampaignCounter(campaignID int, to model.LogStatus) {
	var counter string
	switch to {
	case model.LogOpened:
		counter = "opened"
	case model.LogClicked:
		counter = "clicked"
	case model.LogReplied:
		counter = "replied"
	default:
		return
	}
	if err := t.CampaignRepo.IncrementCounter(campaignID, counter); err != nil {
		log.Println("⚠️ failed to bump campaign counter:", err)
	}
}

// markResponded advances the lead on its first reply; later replies find it
// already responded (or converted) and do nothing.
func (t *EventTracker) markResponded(leadID int) {
	lead, err := t.LeadRepo.GetByID(leadID)
	if err != nil {
		log.Println("⚠️ failed to load lead for reply:", err)
		return
	}
	if !lead.Status.CanTransition(model.LeadResponded) {
		return
	}
	if _, err := t.LeadRepo.UpdateStatus(lead.ID, lead.Status, model.LeadResponded); err != nil {
		log.Println("⚠️ failed to mark lead responded:", err)
	}
}
