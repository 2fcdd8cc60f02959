package service

import (
	"testing"
	"time"

	appErrors "github.com/leadforge/leadforge-backend/internal/errors"
	"github.com/leadforge/leadforge-backend/internal/model"
)

type trackerFixture struct {
	tracker   *EventTracker
	leads     *mockLeadRepo
	campaigns *mockCampaignRepo
	logs      *mockLogRepo
}

func newTrackerFixture(t *testing.T) (*trackerFixture, *model.EmailLog) {
	t.Helper()
	f := &trackerFixture{
		leads:     newMockLeadRepo(),
		campaigns: newMockCampaignRepo(),
		logs:      newMockLogRepo(),
	}
	f.tracker = &EventTracker{
		LogRepo:      f.logs,
		LeadRepo:     f.leads,
		CampaignRepo: f.campaigns,
		Now:          func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) },
	}

	lead := &model.Lead{Name: "alice", Status: model.LeadContacted}
	if err := f.leads.Create(lead); err != nil {
		t.Fatal(err)
	}
	c := &model.Campaign{Name: "Outreach", TargetGrades: []model.Grade{model.GradeA}, Status: model.CampaignActive}
	if err := f.campaigns.Create(c); err != nil {
		t.Fatal(err)
	}
	entry := &model.EmailLog{
		CampaignID: c.ID, LeadID: lead.ID, Step: 1,
		MessageRef: "ref-1", Recipient: "alice@x.io",
		Status: model.LogSent,
	}
	if err := f.logs.Create(entry); err != nil {
		t.Fatal(err)
	}
	return f, entry
}

func TestEngagementOnlyMovesForward(t *testing.T) {
	f, entry := newTrackerFixture(t)

	if err := f.tracker.MarkReplied(entry.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := f.logs.GetByID(entry.ID)
	if got.Status != model.LogReplied {
		t.Fatalf("status = %s, want replied", got.Status)
	}

	// A late open event must not regress the log.
	if err := f.tracker.MarkOpened(entry.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = f.logs.GetByID(entry.ID)
	if got.Status != model.LogReplied {
		t.Errorf("late open regressed status to %s", got.Status)
	}
}

func TestReplyBackfillsTimestamps(t *testing.T) {
	f, entry := newTrackerFixture(t)

	if err := f.tracker.MarkReplied(entry.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := f.logs.GetByID(entry.ID)
	if got.OpenedAt == nil || got.ClickedAt == nil || got.RepliedAt == nil {
		t.Errorf("reply must backfill opened/clicked, got %+v", got)
	}
}

func TestDuplicateEventsCountOnce(t *testing.T) {
	f, entry := newTrackerFixture(t)

	for i := 0; i < 3; i++ {
		if err := f.tracker.MarkOpened(entry.ID); err != nil {
			t.Fatal(err)
		}
	}
	c, _ := f.campaigns.GetByID(entry.CampaignID)
	if c.OpenedCount != 1 {
		t.Errorf("opened_count = %d, want 1", c.OpenedCount)
	}
}

func TestFirstReplyMarksLeadResponded(t *testing.T) {
	f, entry := newTrackerFixture(t)

	if err := f.tracker.MarkReplied(entry.ID); err != nil {
		t.Fatal(err)
	}
	lead, _ := f.leads.GetByID(entry.LeadID)
	if lead.Status != model.LeadResponded {
		t.Fatalf("lead status = %s, want responded", lead.Status)
	}
	c, _ := f.campaigns.GetByID(entry.CampaignID)
	if c.RepliedCount != 1 {
		t.Errorf("replied_count = %d, want 1", c.RepliedCount)
	}
}

func TestBounceOnlyFromSent(t *testing.T) {
	f, entry := newTrackerFixture(t)

	if err := f.tracker.MarkOpened(entry.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.tracker.MarkBounced(entry.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := f.logs.GetByID(entry.ID)
	if got.Status != model.LogOpened {
		t.Errorf("opened log must not bounce, status = %s", got.Status)
	}
}

func TestApplyRoutesAndRejectsUnknown(t *testing.T) {
	f, entry := newTrackerFixture(t)

	if err := f.tracker.Apply("clicked", entry.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := f.logs.GetByID(entry.ID)
	if got.Status != model.LogClicked {
		t.Fatalf("status = %s, want clicked", got.Status)
	}

	if err := f.tracker.Apply("forwarded", entry.ID); !appErrors.IsValidation(err) {
		t.Errorf("unknown event: err = %v, want validation error", err)
	}
}

func TestApplyByRef(t *testing.T) {
	f, entry := newTrackerFixture(t)

	if err := f.tracker.ApplyByRef("opened", entry.MessageRef); err != nil {
		t.Fatal(err)
	}
	got, _ := f.logs.GetByID(entry.ID)
	if got.Status != model.LogOpened {
		t.Fatalf("status = %s, want opened", got.Status)
	}

	// Unknown refs are dropped, not errors: the provider can replay stale
	// callbacks long after a log is gone.
	if err := f.tracker.ApplyByRef("opened", "no-such-ref"); err != nil {
		t.Errorf("unknown ref: err = %v, want nil", err)
	}
}
