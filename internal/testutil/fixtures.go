package testutil

import (
	"time"

	"github.com/ubnetdef/injectengine/internal/model"
)

// Fixture times and ids shared by the HTTP tests.
var (
	CompetitionStart = time.Unix(1_700_000_000, 0)
	Now              = CompetitionStart.Add(time.Hour)
)

const (
	GroupBlue  = 1
	GroupStaff = 2
	GroupAdmin = 3

	InjectFirewall = 10
	InjectMemo     = 11
)

// Seed fills store with a small competition, one hour in:
//
//	1: firewall for blue, fuzzy 0..7200, running
//	2: memo for blue, fixed, ended 30 minutes in
//	3: firewall for blue, fuzzy, starts two hours in, never ends
//	4: memo for staff, fuzzy, never ends
//	5: firewall for blue, deactivated
func Seed(store *MemStore) {
	cs := CompetitionStart.Unix()
	team := 1

	store.mu.Lock()
	defer store.mu.Unlock()

	store.Groups[GroupBlue] = model.Group{ID: GroupBlue, Name: "Blue Team 1", TeamNumber: &team}
	store.Groups[GroupStaff] = model.Group{ID: GroupStaff, Name: "White Team"}
	store.Groups[GroupAdmin] = model.Group{ID: GroupAdmin, Name: "Admins"}

	store.Injects[InjectFirewall] = model.Inject{ID: InjectFirewall, Title: "Firewall policy", Sequence: 1, Type: model.InjectTypeText, MaxPoints: 10}
	store.Injects[InjectMemo] = model.Inject{ID: InjectMemo, Title: "Welcome memo", Sequence: 2, Type: model.InjectTypeNone}

	store.Schedules = []model.Schedule{
		{ID: 1, InjectID: InjectFirewall, GroupID: GroupBlue, Active: true, Fuzzy: true, Start: 0, End: 7200},
		{ID: 2, InjectID: InjectMemo, GroupID: GroupBlue, Active: true, Start: cs - 100, End: cs + 1800},
		{ID: 3, InjectID: InjectFirewall, GroupID: GroupBlue, Active: true, Fuzzy: true, Start: 7200},
		{ID: 4, InjectID: InjectMemo, GroupID: GroupStaff, Active: true, Fuzzy: true},
		{ID: 5, InjectID: InjectFirewall, GroupID: GroupBlue, Start: cs + 100, End: cs + 200},
	}
	store.Submissions[InjectFirewall] = 2
}
