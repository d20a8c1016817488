package packets

// used for POST /api/admin/schedules. With Fuzzy set, Start and End are
// seconds relative to the competition start. End 0 means the schedule never expires.
type CreateScheduleRequest struct {
	InjectID int   `json:"inject_id" binding:"required"`
	GroupID  int   `json:"group_id"  binding:"required"`
	Fuzzy    bool  `json:"fuzzy"`
	Start    int64 `json:"start"`
	End      int64 `json:"end"`
	Order    int   `json:"order"`
	Active   *bool `json:"active"`
}
