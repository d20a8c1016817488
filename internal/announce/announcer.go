// Package announce pushes a message whenever an inject becomes visible to a group.
package announce

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/ubnetdef/injectengine/internal/model"
	"github.com/ubnetdef/injectengine/internal/schedule"
)

// DefaultSpec polls every 30 seconds.
const DefaultSpec = "*/30 * * * * *"

const tickTimeout = 20 * time.Second

// Source yields what a set of groups can currently see.
type Source interface {
	ActiveInjects(ctx context.Context, groups []int) ([]schedule.InjectView, error)
}

// GroupLister enumerates the groups to announce to.
type GroupLister interface {
	ListGroups(ctx context.Context) ([]model.Group, error)
}

// Release is the payload published for a newly visible inject.
type Release struct {
	Type       string `json:"type"`
	ScheduleID int    `json:"schedule_id"`
	InjectID   int    `json:"inject_id"`
	Title      string `json:"title"`
	GroupID    int    `json:"group_id"`
	Start      int64  `json:"start"`
	End        int64  `json:"end"`
}

// Topic is where releases for groupID are published.
func Topic(groupID int) string {
	return fmt.Sprintf("injects/%d/released", groupID)
}

// Announcer remembers which schedules each group has already been told
// about. A group's first tick only records what is visible.
type Announcer struct {
	source    Source
	groups    GroupLister
	publisher Publisher

	mu   sync.Mutex
	seen map[int]map[int]struct{} // group id -> schedule ids

	cron *cron.Cron
}

func New(source Source, groups GroupLister, publisher Publisher) *Announcer {
	return &Announcer{
		source:    source,
		groups:    groups,
		publisher: publisher,
		seen:      make(map[int]map[int]struct{}),
	}
}

// Start runs Tick on spec (six fields, seconds first) until Stop.
func (a *Announcer) Start(spec string) error {
	if spec == "" {
		spec = DefaultSpec
	}
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
		defer cancel()
		a.Tick(ctx)
	}); err != nil {
		return fmt.Errorf("invalid announce spec %q: %w", spec, err)
	}
	a.cron = c
	c.Start()
	log.Info().Str("spec", spec).Msg("announcer started")
	return nil
}

// Stop halts the schedule and waits for a running tick to finish.
func (a *Announcer) Stop() {
	if a.cron == nil {
		return
	}
	<-a.cron.Stop().Done()
	log.Info().Msg("announcer stopped")
}

// Tick checks every group once and returns how many releases were published.
func (a *Announcer) Tick(ctx context.Context) int {
	groups, err := a.groups.ListGroups(ctx)
	if err != nil {
		log.Error().Err(err).Msg("announcer: ListGroups failed")
		return 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	published := 0
	for _, g := range groups {
		views, err := a.source.ActiveInjects(ctx, []int{g.ID})
		if err != nil {
			log.Error().Err(err).Int("group_id", g.ID).Msg("announcer: ActiveInjects failed")
			continue
		}
		published += a.announceGroup(g.ID, views)
	}
	return published
}

func (a *Announcer) announceGroup(groupID int, views []schedule.InjectView) int {
	seen, known := a.seen[groupID]
	if !known {
		seen = make(map[int]struct{}, len(views))
		a.seen[groupID] = seen
	}

	published := 0
	for _, v := range views {
		if _, ok := seen[v.Schedule.ID]; ok {
			continue
		}
		if known {
			if err := a.publish(groupID, v); err != nil {
				// retried next tick
				log.Error().Err(err).Int("group_id", groupID).Int("schedule_id", v.Schedule.ID).Msg("announcer: publish failed")
				continue
			}
			published++
		}
		seen[v.Schedule.ID] = struct{}{}
	}
	return published
}

func (a *Announcer) publish(groupID int, v schedule.InjectView) error {
	payload, err := json.Marshal(Release{
		Type:       "inject_released",
		ScheduleID: v.Schedule.ID,
		InjectID:   v.Inject.ID,
		Title:      v.Inject.Title,
		GroupID:    groupID,
		Start:      v.Start(),
		End:        v.End(),
	})
	if err != nil {
		return err
	}
	if err := a.publisher.Publish(Topic(groupID), payload); err != nil {
		return err
	}
	log.Info().Int("group_id", groupID).Int("schedule_id", v.Schedule.ID).Msg("inject released")
	return nil
}
