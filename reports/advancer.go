package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"civicsync-web/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// StatusAdvancer moves a report to its next status. Drivers never touch
// report state any other way.
type StatusAdvancer interface {
	Advance(reportID int64) (models.ReportStatus, error)
}

// StatusApplier sets an explicit status; regressions are ignored.
type StatusApplier interface {
	Apply(reportID int64, status models.ReportStatus) (models.ReportStatus, error)
}

// StatusDriver decides when a tracked report advances.
type StatusDriver interface {
	Track(reportID int64, advancer StatusAdvancer)
}

const (
	DefaultReviewAfter = 8 * time.Second
	DefaultActionAfter = 12 * time.Second
)

// TimerDriver simulates the municipal back office: Under Review after
// reviewAfter, Actioned actionAfter later.
type TimerDriver struct {
	delays    []time.Duration
	afterFunc func(time.Duration, func())
}

func NewTimerDriver(reviewAfter, actionAfter time.Duration) *TimerDriver {
	if reviewAfter <= 0 {
		reviewAfter = DefaultReviewAfter
	}
	if actionAfter <= 0 {
		actionAfter = DefaultActionAfter
	}
	return &TimerDriver{
		delays: []time.Duration{reviewAfter, actionAfter},
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

func (d *TimerDriver) Track(reportID int64, advancer StatusAdvancer) {
	var elapsed time.Duration
	for _, delay := range d.delays {
		elapsed += delay
		d.afterFunc(elapsed, func() {
			status, err := advancer.Advance(reportID)
			if err != nil {
				log.Debug().Err(err).Int64("report_id", reportID).Msg("status timer fired for missing report")
				return
			}
			log.Debug().Int64("report_id", reportID).Str("status", string(status)).Msg("report status advanced")
		})
	}
}

// StatusUpdate is the message carried on the status channel.
type StatusUpdate struct {
	ReportID int64               `json:"reportId"`
	Status   models.ReportStatus `json:"status,omitempty"`
}

// RedisFeed receives status pushes from a Redis pub/sub channel. An update
// with a status is applied as-is, one without a status advances the report.
type RedisFeed struct {
	client  *redis.Client
	channel string

	mu      sync.Mutex
	tracked map[int64]StatusAdvancer
	ready   chan struct{}
	once    sync.Once
}

func NewRedisFeed(client *redis.Client, channel string) *RedisFeed {
	return &RedisFeed{
		client:  client,
		channel: channel,
		tracked: make(map[int64]StatusAdvancer),
		ready:   make(chan struct{}),
	}
}

func (f *RedisFeed) Track(reportID int64, advancer StatusAdvancer) {
	f.mu.Lock()
	f.tracked[reportID] = advancer
	f.mu.Unlock()
}

// Ready is closed once the subscription is confirmed.
func (f *RedisFeed) Ready() <-chan struct{} { return f.ready }

// Publish sends an update on the channel.
func (f *RedisFeed) Publish(ctx context.Context, update StatusUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode status update: %w", err)
	}
	return f.client.Publish(ctx, f.channel, payload).Err()
}

// Run consumes the channel until ctx is done.
func (f *RedisFeed) Run(ctx context.Context) error {
	sub := f.client.Subscribe(ctx, f.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", f.channel, err)
	}
	f.once.Do(func() { close(f.ready) })
	log.Info().Str("channel", f.channel).Msg("listening for report status updates")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			f.dispatch(msg.Payload)
		}
	}
}

func (f *RedisFeed) dispatch(payload string) {
	var update StatusUpdate
	if err := json.Unmarshal([]byte(payload), &update); err != nil {
		log.Warn().Err(err).Msg("discarding malformed status update")
		return
	}

	f.mu.Lock()
	advancer, ok := f.tracked[update.ReportID]
	f.mu.Unlock()
	if !ok {
		return
	}

	var (
		status models.ReportStatus
		err    error
	)
	if applier, canApply := advancer.(StatusApplier); canApply && update.Status != "" {
		status, err = applier.Apply(update.ReportID, update.Status)
	} else {
		status, err = advancer.Advance(update.ReportID)
	}
	if err != nil {
		log.Warn().Err(err).Int64("report_id", update.ReportID).Msg("status update rejected")
		return
	}
	if _, more := status.Next(); !more {
		f.mu.Lock()
		delete(f.tracked, update.ReportID)
		f.mu.Unlock()
	}
}
