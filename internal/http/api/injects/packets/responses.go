package packets

import "github.com/ubnetdef/injectengine/internal/schedule"

// returned for GET /api/injects
type InjectListResponse struct {
	CompetitionStart int64                 `json:"competition_start"`
	Injects          []schedule.InjectView `json:"injects"`
}

// returned for GET /api/injects/:id
type InjectResponse struct {
	Inject schedule.InjectView `json:"inject"`
	// AcceptsSubmissions is false once the inject expired or when it is informational.
	AcceptsSubmissions bool `json:"accepts_submissions"`
}

// returned for GET /api/staff/overview
type OverviewResponse struct {
	CompetitionStart int64                 `json:"competition_start"`
	Active           []schedule.InjectView `json:"active"`
	RecentlyExpired  []schedule.InjectView `json:"recently_expired"`
}
