// internal/controller/event_controller.go
package controller

import (
	"log"
	"net/http"

	"github.com/leadforge/leadforge-backend/internal/automation"
	"github.com/leadforge/leadforge-backend/internal/queue"
	"github.com/leadforge/leadforge-backend/internal/service"
)

// EventController receives provider tracking callbacks. With a queue wired it
// publishes and returns immediately; without one it applies the event inline.
type EventController struct {
	Publisher queue.EventPublisher
	Tracker   *service.EventTracker
}

func (ct *EventController) Receive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Event      string `json:"event" validate:"required,oneof=opened clicked replied bounced unsubscribed"`
		MessageRef string `json:"message_ref" validate:"required"`
	}
	if err := decodeAndValidate(r, &body); err != nil {
		writeError(w, err)
		return
	}

	if ct.Publisher != nil {
		ev := queue.TrackingEvent{Event: body.Event, MessageRef: body.MessageRef}
		if err := ct.Publisher.Publish(ev); err != nil {
			log.Println("⚠️ failed to enqueue tracking event, applying inline:", err)
		} else {
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
			return
		}
	}

	if err := ct.Tracker.ApplyByRef(body.Event, body.MessageRef); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

// AutomationController starts and stops the background driver.
type AutomationController struct {
	Driver *automation.Driver
}

func (ct *AutomationController) Start(w http.ResponseWriter, r *http.Request) {
	ct.Driver.Start()
	writeJSON(w, http.StatusOK, ct.Driver.Stats())
}

func (ct *AutomationController) Stop(w http.ResponseWriter, r *http.Request) {
	ct.Driver.Stop()
	writeJSON(w, http.StatusOK, ct.Driver.Stats())
}

func (ct *AutomationController) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ct.Driver.Stats())
}
