// cmd/seeder/main.go
package main

import (
	"log"

	"github.com/leadforge/leadforge-backend/internal/config"
	"github.com/leadforge/leadforge-backend/internal/db"
	"github.com/leadforge/leadforge-backend/internal/model"
	"github.com/leadforge/leadforge-backend/internal/repository"
	"github.com/leadforge/leadforge-backend/internal/scoring"
)

// Seeds a demo data set: a handful of leads across categories, the three
// template types and one draft campaign targeting A/B fitness leads.
func main() {
	cfg := config.Load()

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatal("failed to open database: ", err)
	}
	defer conn.Close()

	leadRepo := &repository.LeadRepository{DB: conn}
	templateRepo := &repository.TemplateRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}
	engine := scoring.NewEngine()

	leads := []*model.Lead{
		{
			Name: "Alice Kim", Handle: "@alicelifts", Category: "fitness",
			AvgViews: 85_000, Followers: 420_000, PostsPerWeek: 5, KeywordMatches: 7,
			Status: model.LeadContactFound,
			Contacts: []model.Contact{
				{Channel: model.ChannelEmail, Value: "alice@alicelifts.io"},
			},
		},
		{
			Name: "Bob Otieno", Handle: "@bobruns", Category: "fitness",
			AvgViews: 12_000, Followers: 55_000, PostsPerWeek: 3, KeywordMatches: 4,
			Status: model.LeadContactFound,
			Contacts: []model.Contact{
				{Channel: model.ChannelEmail, Value: "bob@bobruns.co"},
			},
		},
		{
			Name: "Carla Mwangi", Handle: "@carlacooks", Category: "food",
			AvgViews: 40_000, Followers: 150_000, PostsPerWeek: 6, KeywordMatches: 2,
			Status: model.LeadNew,
		},
		{
			Name: "Dan Wafula", Handle: "@danwanders", Category: "travel",
			AvgViews: 2_000, Followers: 9_000, PostsPerWeek: 1, KeywordMatches: 1,
			Status: model.LeadNew,
		},
	}

	for _, lead := range leads {
		res := engine.Score(lead)
		lead.InfluenceScore = res.Influence
		lead.ActivityScore = res.Activity
		lead.RelevanceScore = res.Relevance
		lead.Score = res.Composite
		lead.Grade = res.Grade
		lead.ScorePartial = res.Partial
		if err := leadRepo.Create(lead); err != nil {
			log.Fatal("failed to seed lead: ", err)
		}
		log.Printf("seeded lead %s (score %.1f, grade %s)", lead.Name, lead.Score, lead.Grade)
	}

	templates := []*model.Template{
		{
			Type: model.TemplateIntroduction, Name: "Intro",
			Subject: "Partnering with {organization_name}",
			Body:    "Hi {lead_name},\n\nWe loved what {lead_handle} has been posting. {sender_name} from {organization_name} here - would you be open to a quick chat about a collaboration?\n\nBest,\n{sender_name}",
		},
		{
			Type: model.TemplateFollowUp, Name: "Follow-up",
			Subject: "Following up, {lead_name}",
			Body:    "Hi {lead_name},\n\nJust floating my earlier note back up. Still keen to work with {lead_handle}.\n\n{sender_name}",
		},
		{
			Type: model.TemplateReminder, Name: "Last nudge",
			Subject: "Last note from {organization_name}",
			Body:    "Hi {lead_name},\n\nClosing the loop on this one - if the timing is wrong, no worries at all.\n\n{sender_name}",
		},
	}
	for _, tmpl := range templates {
		if err := templateRepo.Create(tmpl); err != nil {
			log.Fatal("failed to seed template: ", err)
		}
		log.Println("seeded template", tmpl.Name)
	}

	campaign := &model.Campaign{
		Name:             "Fitness outreach Q2",
		TargetGrades:     []model.Grade{model.GradeA, model.GradeB},
		TargetCategories: []string{"fitness"},
		MinScore:         40,
		DailyLimit:       50,
		HourlyLimit:      10,
		MinIntervalDays:  3,
		SendStartHour:    9,
		SendEndHour:      17,
		SendDays:         []int{1, 2, 3, 4, 5},
		Sequence: []model.SequenceStep{
			{TemplateID: templates[0].ID, DelayDays: 0},
			{TemplateID: templates[1].ID, DelayDays: 4},
			{TemplateID: templates[2].ID, DelayDays: 7},
		},
	}
	if err := campaignRepo.Create(campaign); err != nil {
		log.Fatal("failed to seed campaign: ", err)
	}
	log.Println("✅ seeded campaign", campaign.Name)
}
