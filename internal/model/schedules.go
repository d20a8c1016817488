package model

// Schedule attaches an inject to a viewer group for a window of time.
// When Fuzzy is set, Start and End are offsets in seconds from the
// competition start instead of epoch seconds. An End of 0 never expires.
type Schedule struct {
	ID       int   `db:"id"         json:"id"`
	InjectID int   `db:"inject_id"  json:"inject_id"`
	GroupID  int   `db:"group_id"   json:"group_id"`
	Active   bool  `db:"active"     json:"active"`
	Fuzzy    bool  `db:"fuzzy"      json:"fuzzy"`
	Start    int64 `db:"start_ts"   json:"start"`
	End      int64 `db:"end_ts"     json:"end"`
	Order    int   `db:"sort_order" json:"order"`
}

// AbsoluteStart returns Start as epoch seconds.
func (s Schedule) AbsoluteStart(competitionStart int64) int64 {
	if s.Fuzzy {
		return s.Start + competitionStart
	}
	return s.Start
}

// AbsoluteEnd returns End as epoch seconds, keeping the 0 sentinel.
func (s Schedule) AbsoluteEnd(competitionStart int64) int64 {
	if s.End == 0 {
		return 0
	}
	if s.Fuzzy {
		return s.End + competitionStart
	}
	return s.End
}

// Expires reports whether the schedule has an end time at all.
func (s Schedule) Expires() bool {
	return s.End != 0
}

// ScheduleListing is a schedule joined with the group it targets.
type ScheduleListing struct {
	Schedule
	GroupName       string `db:"group_name"        json:"group_name"`
	GroupTeamNumber *int   `db:"group_team_number" json:"group_team_number,omitempty"`
}

// ScheduleBounds are the earliest start and latest end across all schedules.
type ScheduleBounds struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}
