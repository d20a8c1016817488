// Package schedule resolves which injects a set of viewer groups can see.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ubnetdef/injectengine/internal/db"
	"github.com/ubnetdef/injectengine/internal/model"
)

// DefaultRecentWindow is how far back RecentExpired looks by default.
const DefaultRecentWindow = 90 * time.Minute

// ErrCompetitionStartMissing is returned when no competition start is configured.
// Fuzzy schedules cannot be placed in time without it.
var ErrCompetitionStartMissing = errors.New("competition start is not configured")

// Store is the persistence the resolver reads from.
type Store interface {
	ListSchedules(ctx context.Context, filter db.ScheduleFilter) ([]model.Schedule, error)
	ListScheduleListings(ctx context.Context, activeOnly bool) ([]model.ScheduleListing, error)
	ScheduleBounds(ctx context.Context, competitionStart int64) (model.ScheduleBounds, bool, error)
	GetInjectsByIDs(ctx context.Context, ids []int) (map[int]model.Inject, error)
}

// SubmissionCounter counts submissions a set of groups made for an inject.
type SubmissionCounter interface {
	CountSubmissions(ctx context.Context, injectID int, groups []int) (int, error)
}

type Options struct {
	// CompetitionStart anchors fuzzy schedule times. Required.
	CompetitionStart time.Time
	// Location is used to round schedule bounds to the hour. Defaults to UTC.
	Location *time.Location
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Resolver is immutable after construction and safe for concurrent use.
type Resolver struct {
	store            Store
	counter          SubmissionCounter
	competitionStart int64
	location         *time.Location
	clock            func() time.Time
}

func NewResolver(store Store, counter SubmissionCounter, opts Options) (*Resolver, error) {
	if opts.CompetitionStart.IsZero() {
		return nil, ErrCompetitionStartMissing
	}
	if store == nil || counter == nil {
		return nil, errors.New("schedule: store and submission counter are required")
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Resolver{
		store:            store,
		counter:          counter,
		competitionStart: opts.CompetitionStart.Unix(),
		location:         opts.Location,
		clock:            opts.Clock,
	}, nil
}

// CompetitionStart returns the configured start as epoch seconds.
func (r *Resolver) CompetitionStart() int64 {
	return r.competitionStart
}

// InjectsRaw returns at most one started, active schedule per inject visible to groups.
// Order is sort_order, start, expiring before open-ended, then end.
func (r *Resolver) InjectsRaw(ctx context.Context, groups []int) ([]model.Schedule, error) {
	return r.injectsRaw(ctx, groups, r.clock().Unix())
}

func (r *Resolver) injectsRaw(ctx context.Context, groups []int, now int64) ([]model.Schedule, error) {
	if len(groups) == 0 {
		return []model.Schedule{}, nil
	}

	records, err := r.store.ListSchedules(ctx, db.ScheduleFilter{
		GroupIDs:         groups,
		ActiveOnly:       true,
		StartedBy:        &now,
		CompetitionStart: r.competitionStart,
	})
	if err != nil {
		return nil, fmt.Errorf("list visible schedules: %w", err)
	}

	visible := make([]model.Schedule, 0, len(records))
	for _, s := range records {
		if s.Active && containsGroup(groups, s.GroupID) && s.AbsoluteStart(r.competitionStart) <= now {
			visible = append(visible, s)
		}
	}

	r.sortSchedules(visible)
	return r.dedupe(visible), nil
}

// InjectRaw looks up one schedule by id. Expiry is not checked here; with
// showExpired unset the schedule must have started. The bool is false when
// nothing matched.
func (r *Resolver) InjectRaw(ctx context.Context, id int, groups []int, showExpired bool) (model.Schedule, bool, error) {
	return r.injectRaw(ctx, id, groups, showExpired, r.clock().Unix())
}

func (r *Resolver) injectRaw(ctx context.Context, id int, groups []int, showExpired bool, now int64) (model.Schedule, bool, error) {
	if len(groups) == 0 {
		return model.Schedule{}, false, nil
	}

	filter := db.ScheduleFilter{
		ID:               &id,
		GroupIDs:         groups,
		ActiveOnly:       true,
		CompetitionStart: r.competitionStart,
	}
	if !showExpired {
		filter.StartedBy = &now
	}

	records, err := r.store.ListSchedules(ctx, filter)
	if err != nil {
		return model.Schedule{}, false, fmt.Errorf("get schedule %d: %w", id, err)
	}

	for _, s := range records {
		if s.ID != id || !s.Active || !containsGroup(groups, s.GroupID) {
			continue
		}
		if !showExpired && s.AbsoluteStart(r.competitionStart) > now {
			continue
		}
		return s, true, nil
	}
	return model.Schedule{}, false, nil
}

// Injects wraps InjectsRaw with inject metadata and submission counts.
func (r *Resolver) Injects(ctx context.Context, groups []int) ([]InjectView, error) {
	now := r.clock().Unix()
	raw, err := r.injectsRaw(ctx, groups, now)
	if err != nil {
		return nil, err
	}
	return r.wrap(ctx, raw, groups, now)
}

// Inject wraps InjectRaw. The bool is false when nothing matched.
func (r *Resolver) Inject(ctx context.Context, id int, groups []int, showExpired bool) (InjectView, bool, error) {
	now := r.clock().Unix()
	raw, ok, err := r.injectRaw(ctx, id, groups, showExpired, now)
	if err != nil || !ok {
		return InjectView{}, false, err
	}
	views, err := r.wrap(ctx, []model.Schedule{raw}, groups, now)
	if err != nil {
		return InjectView{}, false, err
	}
	return views[0], true, nil
}

// ActiveInjects is Injects without the views that have already expired.
func (r *Resolver) ActiveInjects(ctx context.Context, groups []int) ([]InjectView, error) {
	views, err := r.Injects(ctx, groups)
	if err != nil {
		return nil, err
	}
	active := make([]InjectView, 0, len(views))
	for _, v := range views {
		if !v.IsExpired() {
			active = append(active, v)
		}
	}
	return active, nil
}

// RecentExpired lists every active schedule for groups whose end falls in
// [now-howRecent, now). Schedules are not deduplicated and counts are not loaded.
// A non-positive howRecent uses DefaultRecentWindow.
func (r *Resolver) RecentExpired(ctx context.Context, groups []int, howRecent time.Duration) ([]InjectView, error) {
	if len(groups) == 0 {
		return []InjectView{}, nil
	}
	if howRecent <= 0 {
		howRecent = DefaultRecentWindow
	}
	now := r.clock().Unix()
	window := db.TimeRange{From: now - int64(howRecent/time.Second), To: now}

	records, err := r.store.ListSchedules(ctx, db.ScheduleFilter{
		GroupIDs:         groups,
		ActiveOnly:       true,
		EndedWithin:      &window,
		CompetitionStart: r.competitionStart,
	})
	if err != nil {
		return nil, fmt.Errorf("list expired schedules: %w", err)
	}

	expired := make([]model.Schedule, 0, len(records))
	for _, s := range records {
		if !s.Active || !s.Expires() || !containsGroup(groups, s.GroupID) {
			continue
		}
		if end := s.AbsoluteEnd(r.competitionStart); end >= window.From && end < window.To {
			expired = append(expired, s)
		}
	}
	return r.wrap(ctx, expired, nil, now)
}

// AllSchedules lists every schedule with its group, for administration.
func (r *Resolver) AllSchedules(ctx context.Context, activeOnly bool) ([]InjectView, error) {
	now := r.clock().Unix()
	listings, err := r.store.ListScheduleListings(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list all schedules: %w", err)
	}
	if activeOnly {
		kept := listings[:0]
		for _, l := range listings {
			if l.Active {
				kept = append(kept, l)
			}
		}
		listings = kept
	}

	records := make([]model.Schedule, len(listings))
	for i, l := range listings {
		records[i] = l.Schedule
	}
	views, err := r.wrap(ctx, records, nil, now)
	if err != nil {
		return nil, err
	}
	for i, l := range listings {
		views[i].Group = &model.Group{ID: l.GroupID, Name: l.GroupName, TeamNumber: l.GroupTeamNumber}
	}
	return views, nil
}

// ScheduleBounds returns the earliest start and latest end of every schedule.
// With round set, both are floored to the hour and padded by an hour outward.
// An empty store yields zero bounds.
func (r *Resolver) ScheduleBounds(ctx context.Context, round bool) (model.ScheduleBounds, error) {
	bounds, ok, err := r.store.ScheduleBounds(ctx, r.competitionStart)
	if err != nil {
		return model.ScheduleBounds{}, fmt.Errorf("schedule bounds: %w", err)
	}
	if !ok {
		return model.ScheduleBounds{}, nil
	}
	if round {
		bounds.Min = r.floorHour(bounds.Min) - int64(time.Hour/time.Second)
		bounds.Max = r.floorHour(bounds.Max) + int64(time.Hour/time.Second)
	}
	return bounds, nil
}

func (r *Resolver) floorHour(epoch int64) int64 {
	t := time.Unix(epoch, 0).In(r.location)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, r.location).Unix()
}

func (r *Resolver) sortSchedules(records []model.Schedule) {
	cs := r.competitionStart
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if as, bs := a.AbsoluteStart(cs), b.AbsoluteStart(cs); as != bs {
			return as < bs
		}
		if a.Expires() != b.Expires() {
			return a.Expires()
		}
		return a.AbsoluteEnd(cs) < b.AbsoluteEnd(cs)
	})
}

// dedupe keeps one schedule per inject, preferring the latest end, where an
// end of 0 outranks every finite end. Ties keep the first seen.
func (r *Resolver) dedupe(ordered []model.Schedule) []model.Schedule {
	winners := make(map[int]model.Schedule, len(ordered))
	for _, s := range ordered {
		best, seen := winners[s.InjectID]
		if !seen || r.outlasts(s, best) {
			winners[s.InjectID] = s
		}
	}

	out := make([]model.Schedule, 0, len(winners))
	for _, s := range ordered {
		if w, ok := winners[s.InjectID]; ok && w.ID == s.ID {
			out = append(out, s)
			delete(winners, s.InjectID)
		}
	}
	return out
}

func (r *Resolver) outlasts(candidate, current model.Schedule) bool {
	newEnd := candidate.AbsoluteEnd(r.competitionStart)
	oldEnd := current.AbsoluteEnd(r.competitionStart)
	if oldEnd == 0 {
		return false
	}
	return newEnd == 0 || newEnd > oldEnd
}

// wrap loads inject metadata for records. Submission counts are only loaded
// when groups is non-empty.
func (r *Resolver) wrap(ctx context.Context, records []model.Schedule, groups []int, now int64) ([]InjectView, error) {
	views := make([]InjectView, 0, len(records))
	if len(records) == 0 {
		return views, nil
	}

	ids := make([]int, 0, len(records))
	for _, s := range records {
		ids = append(ids, s.InjectID)
	}
	injects, err := r.store.GetInjectsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load injects: %w", err)
	}

	for _, s := range records {
		inject, ok := injects[s.InjectID]
		if !ok {
			log.Warn().Int("schedule_id", s.ID).Int("inject_id", s.InjectID).Msg("schedule references a missing inject")
			inject = model.Inject{ID: s.InjectID, Type: model.InjectTypeNone}
		}
		inject.Type = inject.Type.Normalize()

		count := 0
		if len(groups) > 0 {
			count, err = r.counter.CountSubmissions(ctx, s.InjectID, groups)
			if err != nil {
				return nil, fmt.Errorf("count submissions for inject %d: %w", s.InjectID, err)
			}
		}
		views = append(views, newInjectView(s, inject, count, r.competitionStart, now))
	}
	return views, nil
}

func containsGroup(groups []int, id int) bool {
	for _, g := range groups {
		if g == id {
			return true
		}
	}
	return false
}
