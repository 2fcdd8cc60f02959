// cmd/worker/main.go
package main

import (
	"log"

	"github.com/leadforge/leadforge-backend/internal/config"
	"github.com/leadforge/leadforge-backend/internal/db"
	"github.com/leadforge/leadforge-backend/internal/queue"
	"github.com/leadforge/leadforge-backend/internal/repository"
	"github.com/leadforge/leadforge-backend/internal/service"
)

// The worker drains the tracking-event queue: every open/click/reply/bounce
// callback published by the API lands here and advances email logs and leads
// through the event tracker.
func main() {
	cfg := config.Load()

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatal("failed to open database: ", err)
	}
	defer conn.Close()

	tracker := &service.EventTracker{
		LogRepo:      &repository.EmailLogRepository{DB: conn},
		LeadRepo:     &repository.LeadRepository{DB: conn},
		CampaignRepo: &repository.CampaignRepository{DB: conn},
	}

	q, err := queue.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ: ", err)
	}
	defer q.Close()

	log.Println("Worker running, waiting for tracking events...")
	err = q.Consume(func(ev queue.TrackingEvent) error {
		log.Printf("📩 %s event for message %s", ev.Event, ev.MessageRef)
		if ev.MessageRef != "" {
			return tracker.ApplyByRef(ev.Event, ev.MessageRef)
		}
		return tracker.Apply(ev.Event, ev.LogID)
	})
	if err != nil {
		log.Fatal("consumer stopped: ", err)
	}
}
