package schedule

import (
	"encoding/json"
	"time"

	"github.com/ubnetdef/injectengine/internal/model"
)

// InjectView is a resolved schedule decorated for display. Expiry is judged
// against the time captured by the call that built the view.
type InjectView struct {
	Schedule        model.Schedule
	Inject          model.Inject
	Group           *model.Group
	SubmissionCount int

	competitionStart int64
	asOf             int64
}

func newInjectView(s model.Schedule, inject model.Inject, count int, competitionStart, asOf int64) InjectView {
	return InjectView{
		Schedule:         s,
		Inject:           inject,
		SubmissionCount:  count,
		competitionStart: competitionStart,
		asOf:             asOf,
	}
}

// Start is the absolute start in epoch seconds.
func (v InjectView) Start() int64 {
	return v.Schedule.AbsoluteStart(v.competitionStart)
}

// End is the absolute end in epoch seconds, or 0 if it never expires.
func (v InjectView) End() int64 {
	return v.Schedule.AbsoluteEnd(v.competitionStart)
}

func (v InjectView) IsExpired() bool {
	return v.ExpiredAt(v.asOf)
}

// ExpiredAt reports whether the view had expired at now (epoch seconds).
func (v InjectView) ExpiredAt(now int64) bool {
	return v.Schedule.Expires() && v.End() <= now
}

// Remaining is the time left before expiry. The bool is false for views
// that never expire.
func (v InjectView) Remaining() (time.Duration, bool) {
	if !v.Schedule.Expires() {
		return 0, false
	}
	left := v.End() - v.asOf
	if left < 0 {
		left = 0
	}
	return time.Duration(left) * time.Second, true
}

type injectViewJSON struct {
	Schedule         model.Schedule `json:"schedule"`
	Inject           model.Inject   `json:"inject"`
	Group            *model.Group   `json:"group,omitempty"`
	SubmissionCount  int            `json:"submission_count"`
	Start            int64          `json:"start"`
	End              int64          `json:"end"`
	Expired          bool           `json:"expired"`
	RemainingSeconds *int64         `json:"remaining_seconds,omitempty"`
}

func (v InjectView) MarshalJSON() ([]byte, error) {
	out := injectViewJSON{
		Schedule:        v.Schedule,
		Inject:          v.Inject,
		Group:           v.Group,
		SubmissionCount: v.SubmissionCount,
		Start:           v.Start(),
		End:             v.End(),
		Expired:         v.IsExpired(),
	}
	if left, ok := v.Remaining(); ok {
		secs := int64(left / time.Second)
		out.RemainingSeconds = &secs
	}
	return json.Marshal(out)
}
