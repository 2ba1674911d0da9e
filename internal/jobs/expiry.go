package jobs

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mangeshr/parkseva-backend/internal/services"
	"github.com/mangeshr/parkseva-backend/internal/storage"
)

// reminderWindow is how long before expiry the single reminder goes out.
const reminderWindow = 15 * time.Minute

// ExpiryJob sweeps all parking records on a fixed period and fires the
// reminder and overstay notifications. Each notification is at-most-once
// per record: the flag is set whether or not the send succeeded, so there
// is never a retry.
type ExpiryJob struct {
	store      storage.Store
	dispatcher services.Dispatcher
	interval   time.Duration
	now        func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewExpiryJob creates a scanner that sweeps every minute.
func NewExpiryJob(store storage.Store, dispatcher services.Dispatcher) *ExpiryJob {
	return &ExpiryJob{
		store:      store,
		dispatcher: dispatcher,
		interval:   time.Minute,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
}

// Start runs the sweep loop in the background until Stop is called.
func (j *ExpiryJob) Start() {
	log.Printf("Starting expiry scanner (every %v)...", j.interval)
	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-j.stop:
				return
			case <-ticker.C:
				if err := j.RunOnce(); err != nil {
					log.Printf("Expiry sweep error: %v", err)
				}
			}
		}
	}()
}

// Stop halts the sweep loop. Safe to call more than once.
func (j *ExpiryJob) Stop() {
	j.stopOnce.Do(func() {
		log.Println("Stopping expiry scanner...")
		close(j.stop)
	})
}

// RunOnce performs a single sweep over all records and writes the whole
// collection back in one batch. Exported so tests can drive the scanner
// without a ticker.
func (j *ExpiryJob) RunOnce() error {
	recs, err := j.store.ListParkings()
	if err != nil {
		return fmt.Errorf("read parkings: %w", err)
	}

	now := j.now()
	for _, r := range recs {
		if !r.ReminderSent {
			left := r.ExpiresAt.Sub(now)
			if left > 0 && left <= reminderWindow {
				mins := int(left.Round(time.Minute) / time.Minute)
				msg := fmt.Sprintf("Your parking expires in %d minutes. Please move your vehicle or renew.", mins)
				if err := j.dispatcher.Send(services.ChannelSMS, r.Mobile, msg); err != nil {
					log.Printf("Reminder send failed for %s: %v", r.VehicleNo, err)
				}
				// One attempt only, success or not.
				r.ReminderSent = true
			}
		}

		if now.After(r.ExpiresAt) && !r.OverstayNotified {
			msg := "Your parking time is over. Please remove your vehicle."
			if err := j.dispatcher.Send(services.ChannelSMS, r.Mobile, msg); err != nil {
				log.Printf("Overstay send failed for %s: %v", r.VehicleNo, err)
			}
			r.OverstayNotified = true
		}
	}

	if err := j.store.SaveParkings(recs); err != nil {
		return fmt.Errorf("write parkings: %w", err)
	}
	return nil
}
