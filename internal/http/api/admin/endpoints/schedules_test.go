package endpoints_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubnetdef/injectengine/internal/http/api"
	"github.com/ubnetdef/injectengine/internal/http/api/admin/endpoints"
	"github.com/ubnetdef/injectengine/internal/http/api/admin/packets"
	"github.com/ubnetdef/injectengine/internal/testutil"
)

func setupAdmin(t *testing.T) (*gin.Engine, *testutil.MemStore, string) {
	store := testutil.NewMemStore()
	testutil.Seed(store)
	store.AddUser(t, 7, "blue1", "changeme", testutil.GroupBlue)
	store.AddUser(t, 9, "admin", "changeme", testutil.GroupAdmin)
	resolver := testutil.NewResolver(t, store, testutil.CompetitionStart, testutil.Now)

	r := testutil.NewRouter()
	api.MountGroup(r.Group("/api"), api.GroupConfig{
		Prefix:    "/admin",
		Auth:      true,
		SecretKey: testutil.JWTSecret,
		Users:     store,
		Groups:    []int{testutil.GroupAdmin},
	}, endpoints.Module(store, resolver))
	return r, store, testutil.Token(t, 9)
}

type listing struct {
	Schedule struct {
		ID     int  `json:"id"`
		Active bool `json:"active"`
	} `json:"schedule"`
	Group *struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"group"`
}

func TestListSchedules(t *testing.T) {
	r, _, token := setupAdmin(t)

	decode := func(t *testing.T, body []byte) []listing {
		var resp struct {
			Schedules []listing `json:"schedules"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		return resp.Schedules
	}

	w := testutil.Do(r, http.MethodGet, "/api/admin/schedules", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	active := decode(t, w.Body.Bytes())
	require.Len(t, active, 4)
	for _, l := range active {
		assert.True(t, l.Schedule.Active)
		require.NotNil(t, l.Group)
	}
	assert.Equal(t, "Blue Team 1", active[0].Group.Name)

	w = testutil.Do(r, http.MethodGet, "/api/admin/schedules?all=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w.Body.Bytes()), 5)
}

func TestScheduleBoundsEndpoint(t *testing.T) {
	r, _, token := setupAdmin(t)
	cs := testutil.CompetitionStart.Unix()

	w := testutil.Do(r, http.MethodGet, "/api/admin/schedules/bounds?round=0", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var raw packets.BoundsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.False(t, raw.Rounded)
	assert.Equal(t, cs-100, raw.Min)
	assert.Equal(t, cs+7200, raw.Max)

	w = testutil.Do(r, http.MethodGet, "/api/admin/schedules/bounds", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rounded packets.BoundsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rounded))
	assert.True(t, rounded.Rounded)
	assert.Equal(t, int64(1_699_995_600), rounded.Min)
	assert.Equal(t, int64(1_700_010_000), rounded.Max)

	w = testutil.Do(r, http.MethodGet, "/api/admin/schedules/bounds?round=maybe", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateSchedule(t *testing.T) {
	r, store, token := setupAdmin(t)

	w := testutil.Do(r, http.MethodPost, "/api/admin/schedules", token,
		[]byte(`{"inject_id":10,"group_id":1,"fuzzy":true,"start":600,"end":1200,"order":2}`))
	require.Equal(t, http.StatusOK, w.Code)

	var resp packets.ScheduleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 6, resp.Schedule.ID)
	assert.True(t, resp.Schedule.Active)
	assert.True(t, resp.Schedule.Fuzzy)
	assert.Equal(t, int64(600), resp.Schedule.Start)
	assert.Equal(t, 2, resp.Schedule.Order)
	assert.Len(t, store.Schedules, 6)
}

func TestCreateScheduleValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing inject", `{"group_id":1,"fuzzy":true}`},
		{"unknown inject", `{"inject_id":99,"group_id":1,"fuzzy":true}`},
		{"unknown group", `{"inject_id":10,"group_id":99,"fuzzy":true}`},
		{"end before start", `{"inject_id":10,"group_id":1,"fuzzy":true,"start":600,"end":300}`},
		{"fixed without start", `{"inject_id":10,"group_id":1}`},
		{"negative offset", `{"inject_id":10,"group_id":1,"fuzzy":true,"start":-5}`},
		{"malformed", `{"inject_id":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, store, token := setupAdmin(t)
			w := testutil.Do(r, http.MethodPost, "/api/admin/schedules", token, []byte(tc.body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Len(t, store.Schedules, 5)
		})
	}
}

func TestDeleteSchedule(t *testing.T) {
	r, store, token := setupAdmin(t)

	w := testutil.Do(r, http.MethodDelete, "/api/admin/schedules/2", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, store.Schedules[1].Active)
	// soft delete keeps the row
	assert.Len(t, store.Schedules, 5)

	w = testutil.Do(r, http.MethodDelete, "/api/admin/schedules/99", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.Do(r, http.MethodDelete, "/api/admin/schedules/x", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRejectsTeams(t *testing.T) {
	r, _, _ := setupAdmin(t)
	blue := testutil.Token(t, 7)

	w := testutil.Do(r, http.MethodGet, "/api/admin/schedules", blue, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.Do(r, http.MethodDelete, "/api/admin/schedules/1", blue, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
