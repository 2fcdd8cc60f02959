// internal/automation/driver.go
package automation

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/leadforge/leadforge-backend/internal/model"
	"github.com/leadforge/leadforge-backend/internal/repository"
	"github.com/leadforge/leadforge-backend/internal/service"
)

// LeadOps is what the driver needs from the lead service.
type LeadOps interface {
	Collect(ctx context.Context, keyword, category string, maxResults int) (*service.CollectResult, error)
	ExtractContacts(ctx context.Context, limit int) (int, error)
	ScoreBatch(filter repository.LeadFilter) (*service.ScoreBatchResult, error)
}

// BatchSender is what the driver needs from the campaign scheduler.
type BatchSender interface {
	SendBatch(ctx context.Context, campaignID, batchSize int) (*service.SendBatchResult, error)
}

// ActiveCampaigns lists the campaigns a tick should process.
type ActiveCampaigns interface {
	ListActive() ([]*model.Campaign, error)
}

// Snapshot is the driver's externally visible state.
type Snapshot struct {
	Running        bool `json:"running"`
	TodayCollected int  `json:"today_collected"`
	TodayScored    int  `json:"today_scored"`
	TodaySent      int  `json:"today_sent"`
}

// Driver is the single background loop: on each tick inside the working
// window it collects new leads, scores them, extracts contacts and runs one
// send batch per active campaign, sequentially. Campaigns never run in
// parallel from the driver, so its own activity cannot race the shared
// counters against itself.
type Driver struct {
	Leads     LeadOps
	Sender    BatchSender
	Campaigns ActiveCampaigns

	Interval   time.Duration
	WorkStart  int
	WorkEnd    int
	Keywords   []string
	BatchSize  int
	MaxCollect int

	// Now is injectable for window tests; nil means time.Now.
	Now func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	statsMu        sync.Mutex
	statsDay       string
	todayCollected int
	todayScored    int
	todaySent      int
}

func (d *Driver) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Start launches the loop. Starting a running driver is a no-op.
func (d *Driver) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running = true

	go d.run(ctx, d.done)
	log.Println("🚀 automation driver started")
}

// Stop halts the loop. An in-flight lead dispatch completes (cancellation is
// only observed at lead boundaries); Stop returns once the loop has exited.
// Stopping a stopped driver is a no-op.
func (d *Driver) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	cancel, done := d.cancel, d.done
	d.running = false
	d.mu.Unlock()

	cancel()
	<-done
	log.Println("automation driver stopped")
}

func (d *Driver) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *Driver) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

// Tick runs one full pass. Exported so a manual trigger and tests share the
// loop body.
func (d *Driver) Tick(ctx context.Context) {
	now := d.now()
	if !d.inWorkingHours(now) {
		return
	}
	d.rollStats(now)

	for _, keyword := range d.Keywords {
		if ctx.Err() != nil {
			return
		}
		res, err := d.Leads.Collect(ctx, keyword, "", d.MaxCollect)
		if err != nil {
			log.Println("⚠️ collection sweep failed:", err)
			continue
		}
		d.addStats(res.Created, 0, 0)
	}

	scored, err := d.Leads.ScoreBatch(repository.LeadFilter{UnscoredOnly: true, Limit: 100})
	if err != nil {
		log.Println("⚠️ scoring pass failed:", err)
	} else {
		d.addStats(0, scored.Scored, 0)
	}

	if _, err := d.Leads.ExtractContacts(ctx, 50); err != nil {
		log.Println("⚠️ extraction sweep failed:", err)
	}

	campaigns, err := d.Campaigns.ListActive()
	if err != nil {
		log.Println("⚠️ failed to list active campaigns:", err)
		return
	}
	for _, c := range campaigns {
		if ctx.Err() != nil {
			return
		}
		res, err := d.Sender.SendBatch(ctx, c.ID, d.BatchSize)
		if err != nil {
			log.Println("⚠️ send batch failed for campaign", c.ID, ":", err)
			continue
		}
		d.addStats(0, 0, res.Sent)
	}
}

func (d *Driver) inWorkingHours(t time.Time) bool {
	h := t.Hour()
	return h >= d.WorkStart && h < d.WorkEnd
}

// rollStats resets the today counters when the local day changed.
func (d *Driver) rollStats(now time.Time) {
	day := now.Format("2006-01-02")
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	if d.statsDay != day {
		d.statsDay = day
		d.todayCollected = 0
		d.todayScored = 0
		d.todaySent = 0
	}
}

func (d *Driver) addStats(collected, scored, sent int) {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	d.todayCollected += collected
	d.todayScored += scored
	d.todaySent += sent
}

func (d *Driver) Stats() Snapshot {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	return Snapshot{
		Running:        d.IsRunning(),
		TodayCollected: d.todayCollected,
		TodayScored:    d.todayScored,
		TodaySent:      d.todaySent,
	}
}
