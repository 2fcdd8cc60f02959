// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leadforge/leadforge-backend/internal/automation"
	"github.com/leadforge/leadforge-backend/internal/collect"
	"github.com/leadforge/leadforge-backend/internal/config"
	"github.com/leadforge/leadforge-backend/internal/controller"
	"github.com/leadforge/leadforge-backend/internal/db"
	"github.com/leadforge/leadforge-backend/internal/dispatch"
	"github.com/leadforge/leadforge-backend/internal/handler"
	"github.com/leadforge/leadforge-backend/internal/queue"
	"github.com/leadforge/leadforge-backend/internal/ratelimit"
	"github.com/leadforge/leadforge-backend/internal/repository"
	"github.com/leadforge/leadforge-backend/internal/scoring"
	"github.com/leadforge/leadforge-backend/internal/service"
)

func main() {
	cfg := config.Load()

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatal("failed to open database: ", err)
	}
	defer conn.Close()

	// Counters live for the process: built here, closed on shutdown. The
	// in-memory store covers deployments without Redis.
	var counters ratelimit.CounterStore
	if store, err := ratelimit.NewRedisCounterStore(cfg.RedisAddr, cfg.RedisPassword); err != nil {
		log.Println("⚠️ Redis unavailable, using in-memory counters:", err)
		counters = ratelimit.NewMemoryCounterStore()
	} else {
		counters = store
	}
	defer counters.Close()

	leadRepo := &repository.LeadRepository{DB: conn}
	templateRepo := &repository.TemplateRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}
	logRepo := &repository.EmailLogRepository{DB: conn}

	var sender dispatch.Sender
	if cfg.SMTPHost != "" {
		sender = dispatch.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername,
			cfg.SMTPPassword, cfg.FromEmail, cfg.FromName, cfg.SendTimeout)
	} else {
		log.Println("⚠️ SMTP_HOST not set, using mock sender")
		sender = dispatch.MockSender{}
	}
	dispatcher := dispatch.NewDispatcher(sender, dispatch.DefaultPolicy(cfg.MaxSendAttempts), cfg.SendTimeout)

	leadService := &service.LeadService{
		LeadRepo:  leadRepo,
		Scorer:    scoring.NewEngine(),
		Source:    &collect.StaticSource{},
		Extractor: &collect.HandleExtractor{},
	}
	campaignService := &service.CampaignService{
		CampaignRepo:        campaignRepo,
		LeadRepo:            leadRepo,
		TemplateRepo:        templateRepo,
		LogRepo:             logRepo,
		Counters:            counters,
		Dispatcher:          dispatcher,
		SenderName:          cfg.SenderName,
		OrgName:             cfg.OrgName,
		InvalidAfterBounces: cfg.InvalidAfterBounces,
	}
	tracker := &service.EventTracker{
		LogRepo:      logRepo,
		LeadRepo:     leadRepo,
		CampaignRepo: campaignRepo,
	}

	var publisher queue.EventPublisher
	if q, err := queue.Dial(cfg.AMQPURL); err != nil {
		log.Println("⚠️ AMQP unavailable, tracking events apply inline:", err)
	} else {
		publisher = q
		defer q.Close()
	}

	driver := &automation.Driver{
		Leads:      leadService,
		Sender:     campaignService,
		Campaigns:  campaignRepo,
		Interval:   cfg.AutomationInterval,
		WorkStart:  cfg.WorkStartHour,
		WorkEnd:    cfg.WorkEndHour,
		Keywords:   cfg.AutomationKeywords,
		BatchSize:  cfg.AutomationBatchSize,
		MaxCollect: 20,
	}
	defer driver.Stop()

	leadController := &controller.LeadController{LeadService: leadService}
	templateController := &controller.TemplateController{TemplateRepo: templateRepo}
	campaignController := &controller.CampaignController{CampaignService: campaignService}
	eventController := &controller.EventController{Publisher: publisher, Tracker: tracker}
	automationController := &controller.AutomationController{Driver: driver}
	dashboard := &handler.DashboardHandler{
		LeadRepo:     leadRepo,
		CampaignRepo: campaignRepo,
		LogRepo:      logRepo,
	}

	r := chi.NewRouter()

	// Lead routes
	r.Get("/leads", dashboard.ListLeads)
	r.Post("/leads", leadController.Create)
	r.Get("/leads/{id}", dashboard.GetLead)
	r.Put("/leads/{id}", leadController.Update)
	r.Delete("/leads/{id}", leadController.Delete)
	r.Post("/leads/{id}/status", leadController.SetStatus)
	r.Post("/leads/{id}/score", leadController.Score)
	r.Post("/leads/score-batch", leadController.ScoreBatch)

	// Template routes
	r.Get("/templates", templateController.List)
	r.Post("/templates", templateController.Create)
	r.Get("/templates/{id}", templateController.Get)
	r.Put("/templates/{id}", templateController.Update)
	r.Delete("/templates/{id}", templateController.Delete)

	// Campaign routes
	r.Get("/campaigns", dashboard.ListCampaigns)
	r.Post("/campaigns", campaignController.Create)
	r.Get("/campaigns/{id}", dashboard.GetCampaign)
	r.Put("/campaigns/{id}", campaignController.Update)
	r.Delete("/campaigns/{id}", campaignController.Delete)
	r.Post("/campaigns/{id}/start", campaignController.Start)
	r.Post("/campaigns/{id}/pause", campaignController.Pause)
	r.Post("/campaigns/{id}/resume", campaignController.Resume)
	r.Post("/campaigns/{id}/complete", campaignController.Complete)
	r.Post("/campaigns/{id}/send-batch", campaignController.SendBatch)

	// Tracking + automation
	r.Post("/events", eventController.Receive)
	r.Get("/automation", automationController.Status)
	r.Post("/automation/start", automationController.Start)
	r.Post("/automation/stop", automationController.Stop)

	// Dashboard
	r.Get("/dashboard", dashboard.Dashboard)

	log.Println("🚀 Server running on", cfg.HTTPAddr)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
