// internal/collect/collect.go
package collect

import (
	"context"
	"fmt"
	"strings"

	"github.com/leadforge/leadforge-backend/internal/model"
)

// LeadRecord is the structured shape a collection collaborator yields; only
// these fields cross into the engine.
type LeadRecord struct {
	Name           string
	Handle         string
	Category       string
	AvgViews       float64
	Followers      int64
	PostsPerWeek   float64
	KeywordMatches int
}

// LeadSource finds prospect records for a keyword. Implementations wrap
// whatever discovery channel the deployment uses.
type LeadSource interface {
	Search(ctx context.Context, keyword, category string, maxResults int) ([]LeadRecord, error)
}

// ContactExtractor resolves contact channels for a lead. An empty slice with
// a nil error means "nothing found", which is not a failure.
type ContactExtractor interface {
	Extract(ctx context.Context, lead *model.Lead) ([]model.Contact, error)
}

// StaticSource serves a fixed record set, for development and seeding.
type StaticSource struct {
	Records []LeadRecord
}

var _ LeadSource = (*StaticSource)(nil)

func (s *StaticSource) Search(_ context.Context, keyword, category string, maxResults int) ([]LeadRecord, error) {
	out := []LeadRecord{}
	for _, rec := range s.Records {
		if category != "" && rec.Category != category {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(rec.Name+" "+rec.Handle), strings.ToLower(keyword)) {
			continue
		}
		out = append(out, rec)
		if maxResults > 0 && len(out) >= maxResults {
			break
		}
	}
	return out, nil
}

// HandleExtractor derives an email guess from the lead handle, for
// development. Production extraction is an external service.
type HandleExtractor struct {
	Domain string
}

var _ ContactExtractor = (*HandleExtractor)(nil)

func (e *HandleExtractor) Extract(_ context.Context, lead *model.Lead) ([]model.Contact, error) {
	handle := strings.TrimPrefix(lead.Handle, "@")
	if handle == "" {
		return nil, nil
	}
	domain := e.Domain
	if domain == "" {
		domain = "example.com"
	}
	return []model.Contact{{
		LeadID:  lead.ID,
		Channel: model.ChannelEmail,
		Value:   fmt.Sprintf("%s@%s", strings.ToLower(handle), domain),
	}}, nil
}
