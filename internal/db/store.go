// Package db is the PostgreSQL persistence for schedules, injects, groups,
// submissions and users.
package db

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ubnetdef/injectengine/internal/model"
)

// ErrNotFound is returned by writes that matched no row.
var ErrNotFound = errors.New("not found")

// TimeRange is a half-open [From, To) range of epoch seconds.
type TimeRange struct {
	From int64
	To   int64
}

// ScheduleFilter narrows ListSchedules. Time predicates are in absolute
// epoch seconds; fuzzy rows are compared after adding CompetitionStart.
type ScheduleFilter struct {
	ID         *int
	GroupIDs   []int
	ActiveOnly bool
	// StartedBy keeps schedules whose start is at or before the value.
	StartedBy *int64
	// EndedWithin keeps expiring schedules whose end lies in the range.
	EndedWithin      *TimeRange
	CompetitionStart int64
}

type Store interface {
	// schedules
	ListSchedules(ctx context.Context, filter ScheduleFilter) ([]model.Schedule, error)
	ListScheduleListings(ctx context.Context, activeOnly bool) ([]model.ScheduleListing, error)
	ScheduleBounds(ctx context.Context, competitionStart int64) (model.ScheduleBounds, bool, error)
	CreateSchedule(ctx context.Context, s model.Schedule) (model.Schedule, error)
	SetScheduleActive(ctx context.Context, id int, active bool) error

	// injects
	GetInjectByID(ctx context.Context, id int) (*model.Inject, error)
	GetInjectsByIDs(ctx context.Context, ids []int) (map[int]model.Inject, error)

	// submissions
	CountSubmissions(ctx context.Context, injectID int, groups []int) (int, error)

	// groups
	GetGroupByID(ctx context.Context, id int) (*model.Group, error)
	ListGroups(ctx context.Context) ([]model.Group, error)

	// users
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id int) (*model.User, error)

	// config
	GetConfigValue(ctx context.Context, key string) (string, bool, error)
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(db *sqlx.DB) Store {
	return &pgStore{db: db}
}
