package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/leadforge/leadforge-backend/internal/dispatch"
	appErrors "github.com/leadforge/leadforge-backend/internal/errors"
	"github.com/leadforge/leadforge-backend/internal/model"
	"github.com/leadforge/leadforge-backend/internal/repository"
)

// ---------- lead repo ----------

type mockLeadRepo struct {
	mu     sync.Mutex
	leads  map[int]*model.Lead
	nextID int
}

func newMockLeadRepo() *mockLeadRepo {
	return &mockLeadRepo{leads: map[int]*model.Lead{}}
}

var _ repository.LeadRepositoryInterface = (*mockLeadRepo)(nil)

func copyLead(l *model.Lead) *model.Lead {
	c := *l
	c.Contacts = append([]model.Contact(nil), l.Contacts...)
	return &c
}

func (m *mockLeadRepo) Create(l *model.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	l.ID = m.nextID
	if l.Status == "" {
		l.Status = model.LeadNew
	}
	m.leads[l.ID] = copyLead(l)
	return nil
}

func (m *mockLeadRepo) GetByID(id int) (*model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return nil, appErrors.NewLeadNotFound(id)
	}
	return copyLead(l), nil
}

func (m *mockLeadRepo) List(filter repository.LeadFilter) ([]*model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int, 0, len(m.leads))
	for id := range m.leads {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := []*model.Lead{}
	for _, id := range ids {
		l := m.leads[id]
		if excluded(l.Status, filter.ExcludeStatuses) {
			continue
		}
		if len(filter.Grades) > 0 && !gradeIn(l.Grade, filter.Grades) {
			continue
		}
		if len(filter.Categories) > 0 && !stringIn(l.Category, filter.Categories) {
			continue
		}
		if filter.MinScore > 0 && l.Score < filter.MinScore {
			continue
		}
		if filter.RequireEmail && l.EmailAddress() == "" {
			continue
		}
		if filter.UnscoredOnly && l.Score != 0 {
			continue
		}
		out = append(out, copyLead(l))
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func excluded(s model.LeadStatus, set []model.LeadStatus) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

func gradeIn(g model.Grade, set []model.Grade) bool {
	for _, x := range set {
		if x == g {
			return true
		}
	}
	return false
}

func stringIn(s string, set []string) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

// Update mirrors the SQL repository: profile fields only, never status,
// scores or contacts.
func (m *mockLeadRepo) Update(l *model.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.leads[l.ID]
	if !ok {
		return appErrors.NewLeadNotFound(l.ID)
	}
	stored.Name = l.Name
	stored.Handle = l.Handle
	stored.Category = l.Category
	stored.AvgViews = l.AvgViews
	stored.Followers = l.Followers
	stored.PostsPerWeek = l.PostsPerWeek
	stored.KeywordMatches = l.KeywordMatches
	stored.Notes = l.Notes
	return nil
}

func (m *mockLeadRepo) Delete(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.leads, id)
	return nil
}

func (m *mockLeadRepo) AddContact(c *model.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[c.LeadID]
	if !ok {
		return appErrors.NewLeadNotFound(c.LeadID)
	}
	l.Contacts = append(l.Contacts, *c)
	return nil
}

func (m *mockLeadRepo) ReplaceContacts(leadID int, contacts []model.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[leadID]
	if !ok {
		return appErrors.NewLeadNotFound(leadID)
	}
	l.Contacts = append([]model.Contact(nil), contacts...)
	return nil
}

func (m *mockLeadRepo) UpdateScore(id int, res repository.LeadScoreUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return appErrors.NewLeadNotFound(id)
	}
	l.InfluenceScore = res.Influence
	l.ActivityScore = res.Activity
	l.RelevanceScore = res.Relevance
	l.Score = res.Composite
	l.Grade = res.Grade
	l.ScorePartial = res.Partial
	return nil
}

func (m *mockLeadRepo) UpdateStatus(id int, from, to model.LeadStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return false, appErrors.NewLeadNotFound(id)
	}
	if l.Status != from {
		return false, nil
	}
	l.Status = to
	return true, nil
}

func (m *mockLeadRepo) CountByGrade() (map[model.Grade]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[model.Grade]int{}
	for _, l := range m.leads {
		out[l.Grade]++
	}
	return out, nil
}

func (m *mockLeadRepo) CountByStatus() (map[model.LeadStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[model.LeadStatus]int{}
	for _, l := range m.leads {
		out[l.Status]++
	}
	return out, nil
}

// ---------- campaign repo ----------

type mockCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[int]*model.Campaign
	nextID    int
}

func newMockCampaignRepo() *mockCampaignRepo {
	return &mockCampaignRepo{campaigns: map[int]*model.Campaign{}}
}

var _ repository.CampaignRepositoryInterface = (*mockCampaignRepo)(nil)

func copyCampaign(c *model.Campaign) *model.Campaign {
	cp := *c
	cp.TargetGrades = append([]model.Grade(nil), c.TargetGrades...)
	cp.TargetCategories = append([]string(nil), c.TargetCategories...)
	cp.SendDays = append([]int(nil), c.SendDays...)
	cp.Sequence = append([]model.SequenceStep(nil), c.Sequence...)
	return &cp
}

func (m *mockCampaignRepo) Create(c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	for i := range c.Sequence {
		c.Sequence[i].CampaignID = c.ID
		c.Sequence[i].Position = i + 1
	}
	m.campaigns[c.ID] = copyCampaign(c)
	return nil
}

func (m *mockCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return copyCampaign(c), nil
}

func (m *mockCampaignRepo) List(offset, limit int, status string) ([]*model.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.campaigns))
	for id := range m.campaigns {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := []*model.Campaign{}
	for _, id := range ids {
		c := m.campaigns[id]
		if status != "" && string(c.Status) != status {
			continue
		}
		out = append(out, copyCampaign(c))
	}
	return out, len(out), nil
}

func (m *mockCampaignRepo) ListActive() ([]*model.Campaign, error) {
	out, _, err := m.List(0, 100, string(model.CampaignActive))
	return out, err
}

func (m *mockCampaignRepo) Update(c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[c.ID]; !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	keep := m.campaigns[c.ID].Status
	m.campaigns[c.ID] = copyCampaign(c)
	m.campaigns[c.ID].Status = keep
	return nil
}

func (m *mockCampaignRepo) Delete(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.campaigns, id)
	return nil
}

func (m *mockCampaignRepo) UpdateStatus(id int, from, to model.CampaignStatus, startedAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return false, appErrors.NewCampaignNotFound(id)
	}
	if c.Status != from {
		return false, nil
	}
	c.Status = to
	if startedAt != nil {
		c.StartedAt = startedAt
	}
	return true, nil
}

func (m *mockCampaignRepo) IncrementCounter(id int, counter string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	switch counter {
	case "sent":
		c.SentCount++
	case "opened":
		c.OpenedCount++
	case "clicked":
		c.ClickedCount++
	case "replied":
		c.RepliedCount++
	}
	return nil
}

// ---------- template repo ----------

type mockTemplateRepo struct {
	mu        sync.Mutex
	templates map[int]*model.Template
	nextID    int
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{templates: map[int]*model.Template{}}
}

var _ repository.TemplateRepositoryInterface = (*mockTemplateRepo)(nil)

func (m *mockTemplateRepo) Create(t *model.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	cp := *t
	m.templates[t.ID] = &cp
	return nil
}

func (m *mockTemplateRepo) GetByID(id int) (*model.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, appErrors.NewTemplateNotFound(id)
	}
	cp := *t
	return &cp, nil
}

func (m *mockTemplateRepo) List() ([]*model.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Template{}
	for _, t := range m.templates {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockTemplateRepo) Update(t *model.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[t.ID]; !ok {
		return appErrors.NewTemplateNotFound(t.ID)
	}
	cp := *t
	m.templates[t.ID] = &cp
	return nil
}

func (m *mockTemplateRepo) Delete(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.templates, id)
	return nil
}

// ---------- email log repo ----------

type mockLogRepo struct {
	mu     sync.Mutex
	logs   map[int]*model.EmailLog
	nextID int
}

func newMockLogRepo() *mockLogRepo {
	return &mockLogRepo{logs: map[int]*model.EmailLog{}}
}

var _ repository.EmailLogRepositoryInterface = (*mockLogRepo)(nil)

func (m *mockLogRepo) Create(l *model.EmailLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	l.ID = m.nextID
	if l.SentAt.IsZero() {
		l.SentAt = time.Now()
	}
	cp := *l
	m.logs[l.ID] = &cp
	return nil
}

func (m *mockLogRepo) GetByID(id int) (*model.EmailLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.logs[id]
	if !ok {
		return nil, appErrors.NewEmailLogNotFound(id)
	}
	cp := *l
	return &cp, nil
}

func (m *mockLogRepo) GetByMessageRef(ref string) (*model.EmailLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.logs {
		if l.MessageRef == ref {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockLogRepo) Update(l *model.EmailLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.logs[l.ID]; !ok {
		return appErrors.NewEmailLogNotFound(l.ID)
	}
	cp := *l
	m.logs[l.ID] = &cp
	return nil
}

func (m *mockLogRepo) CountForLead(campaignID, leadID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.logs {
		if l.CampaignID == campaignID && l.LeadID == leadID {
			n++
		}
	}
	return n, nil
}

func (m *mockLogRepo) LastForLead(campaignID, leadID int) (*model.EmailLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last *model.EmailLog
	for _, l := range m.logs {
		if l.CampaignID != campaignID || l.LeadID != leadID {
			continue
		}
		if last == nil || l.Step > last.Step {
			last = l
		}
	}
	if last == nil {
		return nil, nil
	}
	cp := *last
	return &cp, nil
}

func (m *mockLogRepo) CountBouncedForLead(leadID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.logs {
		if l.LeadID == leadID && l.Status == model.LogBounced {
			n++
		}
	}
	return n, nil
}

func (m *mockLogRepo) ListByCampaign(campaignID, limit int) ([]*model.EmailLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.EmailLog{}
	for _, l := range m.logs {
		if l.CampaignID == campaignID {
			cp := *l
			out = append(out, &cp)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *mockLogRepo) TodayStats(day time.Time) (repository.TodayStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s repository.TodayStats
	for _, l := range m.logs {
		if sameDay(l.SentAt, day) && l.Status != model.LogBounced {
			s.Sent++
		}
		if l.OpenedAt != nil && sameDay(*l.OpenedAt, day) {
			s.Opened++
		}
		if l.RepliedAt != nil && sameDay(*l.RepliedAt, day) {
			s.Replied++
		}
	}
	return s, nil
}

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

// ---------- dispatcher ----------

// fakeDispatcher delivers everything unless a recipient is listed in fail
// (transient after retries) or permanent.
type fakeDispatcher struct {
	mu        sync.Mutex
	calls     []string
	fail      map[string]bool
	permanent map[string]bool
}

var _ Dispatcher = (*fakeDispatcher)(nil)

func (f *fakeDispatcher) Dispatch(_ context.Context, to, subject, body string) dispatch.Outcome {
	f.mu.Lock()
	f.calls = append(f.calls, to)
	f.mu.Unlock()

	if f.permanent[to] {
		return dispatch.Outcome{Attempts: 1, Permanent: true, Err: appErrors.NewPermanentSend("rejected")}
	}
	if f.fail[to] {
		return dispatch.Outcome{Attempts: 3, Err: appErrors.NewValidation("send", "transient failure")}
	}
	return dispatch.Outcome{Delivered: true, Attempts: 1}
}

func (f *fakeDispatcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
