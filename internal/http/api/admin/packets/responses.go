package packets

import (
	"github.com/ubnetdef/injectengine/internal/model"
	"github.com/ubnetdef/injectengine/internal/schedule"
)

type ScheduleListResponse struct {
	CompetitionStart int64                 `json:"competition_start"`
	Schedules        []schedule.InjectView `json:"schedules"`
}

type BoundsResponse struct {
	model.ScheduleBounds
	Rounded bool `json:"rounded"`
}

type ScheduleResponse struct {
	Schedule model.Schedule `json:"schedule"`
}
